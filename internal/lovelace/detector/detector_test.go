package detector

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

func detectorServer(t *testing.T, handler http.HandlerFunc) *HTTPDetector {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPDetector(Config{URL: srv.URL, Timeout: 2 * time.Second})
}

func TestHTTPDetector_Success(t *testing.T) {
	d := detectorServer(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("FormFile() error = %v", err)
			http.Error(w, "no image", http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "PNGDATA" || header.Filename != "board.png" {
			t.Errorf("upload = %q as %q", data, header.Filename)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tokens": []token.Token{
				token.New(token.KindLoop, "2", 10, 10),
				token.New(token.KindDirection, token.Right, 50, 60),
			},
		})
	})

	tokens, err := d.Detect(context.Background(), []byte("PNGDATA"), "board.png")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(tokens) != 2 || tokens[1].Value != token.Right || tokens[1].Position.Y != 60 {
		t.Errorf("Detect() = %v", tokens)
	}
}

func TestHTTPDetector_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode mdwerror.Code
	}{
		{"undecodable image", http.StatusBadRequest, `{"error":"cannot decode"}`, mdwerror.CodeInvalidImage},
		{"unprocessable", http.StatusUnprocessableEntity, ``, mdwerror.CodeInvalidImage},
		{"internal failure", http.StatusInternalServerError, `oops`, mdwerror.CodeDetectionFailed},
		{"garbage body", http.StatusOK, `not json`, mdwerror.CodeDetectionFailed},
		{"invalid token", http.StatusOK, `{"tokens":[{"kind":"direction","value":"north"}]}`, mdwerror.CodeDetectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := detectorServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := d.Detect(context.Background(), []byte("x"), "x.png")
			if !mdwerror.HasCode(err, tt.wantCode) {
				t.Errorf("Detect() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestHTTPDetector_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d := NewHTTPDetector(Config{URL: url, Timeout: time.Second})
	_, err := d.Detect(context.Background(), []byte("x"), "x.png")
	if !mdwerror.HasCode(err, mdwerror.CodeServiceUnavailable) {
		t.Errorf("Detect() error = %v, want SERVICE_UNAVAILABLE", err)
	}
}

func TestStaticAndUnavailable(t *testing.T) {
	tokens := []token.Token{token.New(token.KindAction, "jump", 0, 0)}
	got, err := Static(tokens).Detect(context.Background(), nil, "")
	if err != nil || len(got) != 1 || got[0].Value != "jump" {
		t.Errorf("Static().Detect() = %v, %v", got, err)
	}
	got[0].Value = "changed"
	again, _ := Static(tokens).Detect(context.Background(), nil, "")
	if again[0].Value != "jump" {
		t.Error("Static detector should return copies")
	}

	_, err = Unavailable().Detect(context.Background(), []byte("x"), "x.png")
	if !mdwerror.HasCode(err, mdwerror.CodeServiceUnavailable) {
		t.Errorf("Unavailable().Detect() error = %v", err)
	}
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		data     string
		tokens   int
		expected string
		wantErr  bool
	}{
		{
			name:     "json object",
			format:   "json",
			data:     `{"tokens":[{"kind":"direction","value":"up","position":{"x":1,"y":2}}],"expected":"[[0, -1]]"}`,
			tokens:   1,
			expected: "[[0, -1]]",
		},
		{
			name:   "json list",
			format: "json",
			data:   `[{"kind":"action","value":"jump","position":{"x":0,"y":0}},{"kind":"color","value":"red","position":{"x":40,"y":0}}]`,
			tokens: 2,
		},
		{
			name:   "yaml object",
			format: "yaml",
			data: `level: square
tokens:
  - kind: loop
    value: "4"
    position: {x: 10, y: 10}
  - kind: direction
    value: right
    position: {x: 50, y: 60}
`,
			tokens: 2,
		},
		{
			name:   "yaml list",
			format: "yml",
			data:   "- {kind: direction, value: down, position: {x: 0, y: 0}}\n",
			tokens: 1,
		},
		{name: "unknown format", format: "xml", data: "<x/>", wantErr: true},
		{name: "invalid token", format: "json", data: `[{"kind":"teleport","value":"x"}]`, wantErr: true},
		{name: "broken json", format: "json", data: `{"tokens":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.data), tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseManifest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(m.Tokens) != tt.tokens {
				t.Errorf("tokens = %d, want %d", len(m.Tokens), tt.tokens)
			}
			if m.Expected != tt.expected {
				t.Errorf("expected = %q, want %q", m.Expected, tt.expected)
			}
		})
	}
}

func TestManifest_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		Tokens:   []token.Token{token.New(token.KindIf, "", 10, 10), token.New(token.KindCondition, "path_clear", 50, 10)},
		Expected: "['jump']",
		Level:    "intro",
	}

	for _, name := range []string{"board.json", "board.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := m.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := LoadManifest(path)
			if err != nil {
				t.Fatalf("LoadManifest() error = %v", err)
			}
			if len(got.Tokens) != 2 || got.Tokens[1].Value != "path_clear" || got.Level != "intro" {
				t.Errorf("LoadManifest() = %+v", got)
			}
		})
	}

	if _, err := LoadManifest(filepath.Join(dir, "missing.json")); !mdwerror.HasCode(err, mdwerror.CodeNotFound) {
		t.Errorf("LoadManifest(missing) error = %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0644)
	if _, err := LoadManifest(bad); err == nil {
		t.Error("LoadManifest(bad) should fail")
	}
}
