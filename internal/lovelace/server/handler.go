// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     server
// Description: HTTP handler of the Lovelace compile service
// Author:      msto63
// Created:     2026-09-25
// License:     MIT
// ============================================================================

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	"github.com/msto63/ct4pwd/internal/lovelace/store"
	"github.com/msto63/ct4pwd/pkg/core/health"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

// Client-facing messages of the upload endpoint
const (
	MsgNoImage       = "No image file provided. Please upload an image using 'image' field"
	MsgNoFilename    = "No image file selected"
	MsgInvalidImage  = "Could not read the uploaded image. Please ensure it's a valid image file"
	MsgImageTooLarge = "Image exceeds the upload limit"
	MsgProcessing    = "Error processing image: "
)

// RequestIDHeader carries the request ID in HTTP requests and responses
const RequestIDHeader = "X-Request-ID"

// CompileRequest is the JSON body of a compile request. Image is base64
// in JSON and replaces Tokens when set.
type CompileRequest struct {
	Tokens   []token.Token `json:"tokens"`
	Image    []byte        `json:"image,omitempty"`
	Filename string        `json:"filename,omitempty"`
	Expected string        `json:"expected,omitempty"`
	Level    string        `json:"level,omitempty"`
}

// toService converts the request for the compile service
func (r CompileRequest) toService(requestID string) service.Request {
	return service.Request{
		Tokens:    r.Tokens,
		Image:     r.Image,
		Filename:  r.Filename,
		Expected:  r.Expected,
		LevelID:   r.Level,
		RequestID: requestID,
	}
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// CompileErrorResponse is the failure payload of the compile endpoint. It
// has the success, is_correct and output fields of a compile result, so
// clients read one shape for every outcome.
type CompileErrorResponse struct {
	service.Response
	Code string `json:"code,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Version string               `json:"version"`
	Uptime  string               `json:"uptime"`
	Checks  []health.CheckResult `json:"checks,omitempty"`
}

// LevelsResponse represents a list of levels
type LevelsResponse struct {
	Levels []*store.Level `json:"levels"`
	Total  int            `json:"total"`
}

// RunsResponse represents a list of runs
type RunsResponse struct {
	Runs  []*store.Run `json:"runs"`
	Total int          `json:"total"`
}

// StructureResponse lists the rows found by the structurer
type StructureResponse struct {
	Rows []StructureRow `json:"rows"`
}

// StructureRow is one row of a StructureResponse
type StructureRow struct {
	Row    int           `json:"row"`
	Depth  int           `json:"depth"`
	Tokens []token.Token `json:"tokens"`
}

// HandlerConfig configures the HTTP handler
type HandlerConfig struct {
	Version        string
	MaxUploadBytes int64
	CORSEnabled    bool
	AllowedOrigins []string
	Logger         *logging.Logger
}

// Handler handles HTTP requests for the compile service
type Handler struct {
	svc       *service.Service
	health    *health.Registry
	logger    *logging.Logger
	startTime time.Time
	config    HandlerConfig
}

// NewHandler creates a new API handler
func NewHandler(cfg HandlerConfig, svc *service.Service, registry *health.Registry) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 * 1024 * 1024
	}
	if cfg.Version == "" {
		cfg.Version = "1.0"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("lovelace-handler")
	}
	if registry == nil {
		registry = health.NewRegistry("lovelace", cfg.Version)
	}
	return &Handler{
		svc:       svc,
		health:    registry,
		logger:    logger,
		startTime: time.Now(),
		config:    cfg,
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	w.Header().Set(RequestIDHeader, requestID)

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)
	case path == "health":
		h.handleHealth(w, r)
	case path == "compile":
		h.handleCompile(w, r, requestID)
	case path == "structure":
		h.handleStructure(w, r)
	case path == "levels":
		h.handleLevels(w, r)
	case strings.HasPrefix(path, "levels/"):
		h.handleLevel(w, r, strings.TrimPrefix(path, "levels/"))
	case path == "runs":
		h.handleRuns(w, r)
	default:
		h.writeError(w, http.StatusNotFound, string(mdwerror.CodeNotFound), "Endpoint not found", "")
	}
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	if !h.config.CORSEnabled {
		return
	}
	origin := "*"
	if len(h.config.AllowedOrigins) > 0 && h.config.AllowedOrigins[0] != "*" {
		origin = ""
		reqOrigin := r.Header.Get("Origin")
		for _, allowed := range h.config.AllowedOrigins {
			if allowed == reqOrigin {
				origin = reqOrigin
				break
			}
		}
		w.Header().Add("Vary", "Origin")
	}
	if origin == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
}

// handleRoot describes the API
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"message": "CT4PWD Compiler API",
		"version": h.config.Version,
		"endpoints": map[string]string{
			"GET  /":                       "API documentation",
			"GET  /health":                 "Health check",
			"POST /compile":                "Compile a photographed or tokenized program",
			"POST /api/v1/compile":         "Compile a tokenized program (JSON)",
			"POST /api/v1/structure":       "Show the detected rows and indentation",
			"GET  /api/v1/levels":          "List levels",
			"POST /api/v1/levels":          "Create a level",
			"GET  /api/v1/levels/{id}":     "Show a level",
			"DELETE /api/v1/levels/{id}":   "Delete a level",
			"GET  /api/v1/runs?level={id}": "Recent compile runs",
			"GET  /api/v1/ws":              "WebSocket trace streaming",
		},
		"usage": map[string]interface{}{
			"compile": map[string]string{
				"method":       "POST",
				"endpoint":     "/compile",
				"content_type": "multipart/form-data",
				"field":        "image",
				"description":  "Upload an image of the marker program; optional fields 'expected' and 'level' check the result",
				"example":      "curl -X POST -F 'image=@program.jpg' http://localhost:8080/compile",
			},
		},
	}
	h.writeJSON(w, http.StatusOK, info)
}

// handleHealth runs the registered health checks
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, HealthResponse{
		Status:  string(report.Status),
		Message: "CT4PWD Compiler API is running",
		Version: h.config.Version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  report.Checks,
	})
}

// handleCompile accepts a multipart image upload or a JSON token list
func (h *Handler) handleCompile(w http.ResponseWriter, r *http.Request, requestID string) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)

	if isJSON(r) {
		h.handleCompileJSON(w, r, requestID)
		return
	}
	h.handleCompileUpload(w, r, requestID)
}

func (h *Handler) handleCompileJSON(w http.ResponseWriter, r *http.Request, requestID string) {
	var req CompileRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeCompileError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), "Invalid request body: "+err.Error())
		return
	}
	for i, tok := range req.Tokens {
		if err := tok.Validate(); err != nil {
			h.writeCompileError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput),
				"Invalid token at index "+strconv.Itoa(i)+": "+err.Error())
			return
		}
	}

	res, err := h.svc.Compile(r.Context(), req.toService(requestID))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleCompileUpload(w http.ResponseWriter, r *http.Request, requestID string) {
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeCompileError(w, http.StatusRequestEntityTooLarge, string(mdwerror.CodeInvalidImage), MsgImageTooLarge)
			return
		}
		h.writeCompileError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), MsgNoImage)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		// a part without filename is parsed as a plain form value
		msg := MsgNoImage
		if _, ok := r.MultipartForm.Value["image"]; ok {
			msg = MsgNoFilename
		}
		h.writeCompileError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), msg)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeCompileError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), MsgNoFilename)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		h.writeCompileError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidImage), MsgInvalidImage)
		return
	}

	res, err := h.svc.Compile(r.Context(), service.Request{
		Image:     data,
		Filename:  header.Filename,
		Expected:  r.FormValue("expected"),
		LevelID:   r.FormValue("level"),
		RequestID: requestID,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// writeServiceError maps a service error to a status and message
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	code := mdwerror.GetCode(err)
	switch code {
	case mdwerror.CodeInvalidImage:
		h.writeCompileError(w, http.StatusBadRequest, string(code), MsgInvalidImage)
	case mdwerror.CodeNotFound, mdwerror.CodeInvalidFormat, mdwerror.CodeInvalidInput:
		h.writeCompileError(w, code.HTTPStatus(), string(code), err.Error())
	default:
		h.writeCompileError(w, http.StatusInternalServerError, string(code), MsgProcessing+err.Error())
	}
}

func (h *Handler) writeCompileError(w http.ResponseWriter, status int, code, output string) {
	h.writeJSON(w, status, CompileErrorResponse{
		Response: service.Response{Success: false, IsCorrect: false, Output: output},
		Code:     code,
	})
}

// handleStructure reports rows and depths without compiling
func (h *Handler) handleStructure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")
		return
	}

	var req CompileRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), "Invalid request body", err.Error())
		return
	}

	lines, err := h.svc.Structure(req.Tokens)
	if err != nil {
		diag := service.Diagnose(err)
		h.writeError(w, http.StatusUnprocessableEntity, diag.Code, diag.Output, "")
		return
	}

	resp := StructureResponse{Rows: make([]StructureRow, 0, len(lines))}
	for _, line := range lines {
		resp.Rows = append(resp.Rows, StructureRow{Row: line.Row + 1, Depth: line.Depth, Tokens: line.Tokens})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleLevels lists or creates levels
func (h *Handler) handleLevels(w http.ResponseWriter, r *http.Request) {
	st := h.svc.Store()

	switch r.Method {
	case http.MethodGet:
		levels, err := st.ListLevels(r.Context())
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		if levels == nil {
			levels = []*store.Level{}
		}
		h.writeJSON(w, http.StatusOK, LevelsResponse{Levels: levels, Total: len(levels)})

	case http.MethodPost:
		var level store.Level
		if err := h.readJSON(r, &level); err != nil {
			h.writeError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), "Invalid request body", err.Error())
			return
		}
		if err := st.SaveLevel(r.Context(), &level); err != nil {
			h.writeStoreError(w, err)
			return
		}
		h.writeJSON(w, http.StatusCreated, level)

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")
	}
}

// handleLevel shows or deletes one level
func (h *Handler) handleLevel(w http.ResponseWriter, r *http.Request, id string) {
	st := h.svc.Store()

	switch r.Method {
	case http.MethodGet:
		level, err := st.GetLevel(r.Context(), id)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, level)

	case http.MethodDelete:
		if err := st.DeleteLevel(r.Context(), id); err != nil {
			h.writeStoreError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]string{"deleted": id})

	default:
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")
	}
}

// handleRuns lists recent runs, optionally for one level
func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, string(mdwerror.CodeInvalidInput), "limit must be a positive integer", "")
			return
		}
		limit = n
	}

	runs, err := h.svc.Store().ListRuns(r.Context(), r.URL.Query().Get("level"), limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	h.writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, Total: len(runs)})
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	code := mdwerror.GetCode(err)
	status := code.HTTPStatus()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		h.logger.LogError(err)
	}
	h.writeError(w, status, string(code), err.Error(), "")
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	h.writeJSON(w, status, resp)
}
