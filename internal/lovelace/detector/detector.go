// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     detector
// Description: Client for the external marker detector
// Author:      msto63
// Created:     2026-09-23
// License:     MIT
// ============================================================================

package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

// Detector turns a photo of a marker program into tokens
type Detector interface {
	Detect(ctx context.Context, image []byte, filename string) ([]token.Token, error)
}

// Func adapts a function to Detector
type Func func(ctx context.Context, image []byte, filename string) ([]token.Token, error)

// Detect calls f
func (f Func) Detect(ctx context.Context, image []byte, filename string) ([]token.Token, error) {
	return f(ctx, image, filename)
}

// Static returns a detector that always reports tokens
func Static(tokens []token.Token) Detector {
	return Func(func(ctx context.Context, image []byte, filename string) ([]token.Token, error) {
		out := make([]token.Token, len(tokens))
		copy(out, tokens)
		return out, nil
	})
}

// Unavailable returns a detector that fails every request, used when no
// detector URL is configured
func Unavailable() Detector {
	return Func(func(ctx context.Context, image []byte, filename string) ([]token.Token, error) {
		return nil, mdwerror.New("no marker detector configured").
			WithCode(mdwerror.CodeServiceUnavailable).
			WithOperation("detect")
	})
}

// Config holds HTTP detector configuration
type Config struct {
	URL     string
	Timeout time.Duration
	Logger  *logging.Logger
}

// HTTPDetector posts images to a detector service. The service answers
// {"tokens": [...]} on success, 400 or 422 for images it cannot decode and
// any other status for internal failures.
type HTTPDetector struct {
	url    string
	client *http.Client
	logger *logging.Logger
}

// NewHTTPDetector creates a detector client
func NewHTTPDetector(cfg Config) *HTTPDetector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("lovelace-detector")
	}
	return &HTTPDetector{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// URL returns the detector endpoint
func (d *HTTPDetector) URL() string {
	return d.url
}

type detectResponse struct {
	Tokens []token.Token `json:"tokens"`
	Error  string        `json:"error,omitempty"`
}

// Detect uploads image as multipart field "image"
func (d *HTTPDetector) Detect(ctx context.Context, image []byte, filename string) ([]token.Token, error) {
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to build detector request").WithCode(mdwerror.CodeInternal)
	}
	if _, err := part.Write(image); err != nil {
		return nil, mdwerror.Wrap(err, "failed to build detector request").WithCode(mdwerror.CodeInternal)
	}
	if err := mw.Close(); err != nil {
		return nil, mdwerror.Wrap(err, "failed to build detector request").WithCode(mdwerror.CodeInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, &body)
	if err != nil {
		return nil, mdwerror.Wrap(err, "invalid detector URL").WithCode(mdwerror.CodeInvalidConfig)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, mdwerror.Wrap(err, "detector unreachable").
			WithCode(mdwerror.CodeServiceUnavailable).
			WithOperation("detect")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to read detector response").WithCode(mdwerror.CodeDetectionFailed)
	}

	var decoded detectResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		msg := decoded.Error
		if msg == "" {
			msg = "image could not be decoded"
		}
		return nil, mdwerror.New(msg).
			WithCode(mdwerror.CodeInvalidImage).
			WithDetail("status", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, mdwerror.Newf("detector returned HTTP %d", resp.StatusCode).
			WithCode(mdwerror.CodeDetectionFailed).
			WithDetail("status", resp.StatusCode).
			WithDetail("body", truncate(string(raw), 200))
	case decodeErr != nil:
		return nil, mdwerror.Wrap(decodeErr, "invalid detector response").WithCode(mdwerror.CodeDetectionFailed)
	}

	for i, tok := range decoded.Tokens {
		if err := tok.Validate(); err != nil {
			return nil, mdwerror.Wrap(err, fmt.Sprintf("detector returned invalid token %d", i)).
				WithCode(mdwerror.CodeDetectionFailed)
		}
	}

	d.logger.Debug("markers detected",
		"tokens", len(decoded.Tokens),
		"bytes", len(image),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return decoded.Tokens, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
