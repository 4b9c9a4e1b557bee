package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
	"github.com/msto63/ct4pwd/internal/lovelace/detector"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

func quietLogger() *logging.Logger {
	return logging.Wrap(logging.NewLogger(logging.LoggerConfig{
		ServiceName: "test",
		Level:       "error",
		Output:      io.Discard,
	}), "test")
}

func loopProgram() []token.Token {
	return []token.Token{
		token.New(token.KindLoop, "2", 100, 100),
		token.New(token.KindDirection, token.Up, 152, 158),
		token.New(token.KindAction, "jump", 207, 163),
		token.New(token.KindDirection, token.Left, 97, 221),
	}
}

const loopTrace = "[[0, -1], 'jump', [0, -1], 'jump', [-1, 0]]"

// imageDetector accepts the bytes "png" and rejects everything else
func imageDetector() detector.Detector {
	return detector.Func(func(ctx context.Context, image []byte, filename string) ([]token.Token, error) {
		if string(image) != "png" {
			return nil, mdwerror.New("cannot decode image").WithCode(mdwerror.CodeInvalidImage)
		}
		return loopProgram(), nil
	})
}

func newTestServer(t *testing.T, mutate func(*Config, *service.Config)) *Server {
	t.Helper()

	svcCfg := service.DefaultConfig()
	svcCfg.Engine.BandWidth = 50
	svcCfg.Detector = imageDetector()
	svcCfg.Logger = quietLogger()

	cfg := DefaultConfig()
	cfg.DisableGRPC = true
	cfg.Logger = quietLogger()

	if mutate != nil {
		mutate(&cfg, &svcCfg)
	}

	srv, err := New(cfg, service.New(svcCfg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { srv.svc.Close() })
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, srv *Server, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return do(t, srv, http.MethodPost, path, bytes.NewReader(data), "application/json")
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

// multipartBody builds a form with an optional image part
func multipartBody(t *testing.T, filename string, image []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHandler_Root(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	decode(t, rec, &body)
	if body["message"] != "CT4PWD Compiler API" {
		t.Errorf("message = %v", body["message"])
	}
	usage, ok := body["usage"].(map[string]interface{})
	if !ok || usage["compile"] == nil {
		t.Errorf("usage = %v", body["usage"])
	}
}

func TestHandler_Health(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body HealthResponse
	decode(t, rec, &body)
	if body.Status != "healthy" || body.Message != "CT4PWD Compiler API is running" {
		t.Errorf("health = %+v", body)
	}
	if len(body.Checks) != 2 {
		t.Errorf("checks = %d, want 2", len(body.Checks))
	}
}

func TestHandler_RequestID(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/health", nil, "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q, want echo", got)
	}
}

func TestHandler_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/v1/nothing", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandler_CORS(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		srv := newTestServer(t, nil)
		rec := do(t, srv, http.MethodOptions, "/compile", nil, "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("allow origin = %q", got)
		}
	})

	t.Run("restricted", func(t *testing.T) {
		srv := newTestServer(t, func(c *Config, _ *service.Config) {
			c.AllowedOrigins = []string{"http://classroom.local"}
		})

		for _, tt := range []struct {
			origin string
			want   string
		}{
			{"http://classroom.local", "http://classroom.local"},
			{"http://elsewhere", ""},
		} {
			req := httptest.NewRequest(http.MethodOptions, "/compile", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("origin %s: allow = %q, want %q", tt.origin, got, tt.want)
			}
		}
	})

	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, func(c *Config, _ *service.Config) { c.CORSEnabled = false })
		rec := do(t, srv, http.MethodOptions, "/compile", nil, "")
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow origin = %q, want none", got)
		}
	})
}

func TestHandler_CompileJSON(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name        string
		path        string
		req         CompileRequest
		wantSuccess bool
		wantCorrect bool
		wantOutput  string
	}{
		{
			name:        "trace",
			path:        "/compile",
			req:         CompileRequest{Tokens: loopProgram()},
			wantSuccess: true,
			wantCorrect: true,
			wantOutput:  loopTrace,
		},
		{
			name:        "verify correct",
			path:        "/api/v1/compile",
			req:         CompileRequest{Tokens: loopProgram(), Expected: loopTrace},
			wantSuccess: true,
			wantCorrect: true,
			wantOutput:  loopTrace,
		},
		{
			name:        "verify incorrect",
			path:        "/api/v1/compile",
			req:         CompileRequest{Tokens: loopProgram(), Expected: "[[1, 0]]"},
			wantSuccess: true,
			wantCorrect: false,
			wantOutput:  "step 1: expected [1, 0], got [0, -1]",
		},
		{
			name: "empty block body",
			path: "/api/v1/compile",
			req: CompileRequest{Tokens: []token.Token{
				token.New(token.KindLoop, "3", 100, 100),
				token.New(token.KindDirection, token.Up, 100, 160),
			}},
			wantSuccess: false,
			wantCorrect: false,
			wantOutput:  "Syntax error: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv, tt.path, tt.req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var res service.Result
			decode(t, rec, &res)
			if res.Success != tt.wantSuccess || res.IsCorrect != tt.wantCorrect {
				t.Errorf("success = %v, is_correct = %v", res.Success, res.IsCorrect)
			}
			if !strings.HasPrefix(res.Output, tt.wantOutput) {
				t.Errorf("output = %q, want prefix %q", res.Output, tt.wantOutput)
			}
		})
	}
}

func TestHandler_CompileJSONErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		req        CompileRequest
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed expected",
			req:        CompileRequest{Tokens: loopProgram(), Expected: "[[0,"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_FORMAT",
		},
		{
			name:       "unknown level",
			req:        CompileRequest{Tokens: loopProgram(), Level: "nope"},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "invalid token",
			req:        CompileRequest{Tokens: []token.Token{token.New("arrow", "x", 0, 0)}},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv, "/api/v1/compile", tt.req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var body CompileErrorResponse
			decode(t, rec, &body)
			if body.Code != tt.wantCode || body.Success || body.IsCorrect || body.Output == "" {
				t.Errorf("body = %+v, want failed result with code %q", body, tt.wantCode)
			}
		})
	}

	rec := do(t, srv, http.MethodPost, "/api/v1/compile", strings.NewReader("{"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("broken JSON status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/compile", nil, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rec.Code)
	}
}

func TestHandler_CompileUpload(t *testing.T) {
	srv := newTestServer(t, nil)

	t.Run("image", func(t *testing.T) {
		body, ct := multipartBody(t, "board.png", []byte("png"), nil)
		rec := do(t, srv, http.MethodPost, "/compile", body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var res service.Result
		decode(t, rec, &res)
		if !res.Success || res.Output != loopTrace {
			t.Errorf("result = %+v", res.Response)
		}
	})

	t.Run("image with expected", func(t *testing.T) {
		body, ct := multipartBody(t, "board.png", []byte("png"), map[string]string{"expected": "[]"})
		rec := do(t, srv, http.MethodPost, "/compile", body, ct)
		var res service.Result
		decode(t, rec, &res)
		if !res.Verify || res.IsCorrect {
			t.Errorf("result = %+v, want incorrect verify", res.Response)
		}
	})

	errorTests := []struct {
		name       string
		body       func() (io.Reader, string)
		wantStatus int
		wantError  string
	}{
		{
			name: "no image field",
			body: func() (io.Reader, string) {
				b, ct := multipartBody(t, "", nil, map[string]string{"other": "x"})
				return b, ct
			},
			wantStatus: http.StatusBadRequest,
			wantError:  MsgNoImage,
		},
		{
			name: "not multipart",
			body: func() (io.Reader, string) {
				return strings.NewReader("raw"), "text/plain"
			},
			wantStatus: http.StatusBadRequest,
			wantError:  MsgNoImage,
		},
		{
			name: "empty filename",
			body: func() (io.Reader, string) {
				b, ct := multipartBody(t, "", []byte("png"), nil)
				return b, ct
			},
			wantStatus: http.StatusBadRequest,
			wantError:  MsgNoFilename,
		},
		{
			name: "undecodable image",
			body: func() (io.Reader, string) {
				b, ct := multipartBody(t, "cat.gif", []byte("gif"), nil)
				return b, ct
			},
			wantStatus: http.StatusBadRequest,
			wantError:  MsgInvalidImage,
		},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := tt.body()
			rec := do(t, srv, http.MethodPost, "/compile", body, ct)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp CompileErrorResponse
			decode(t, rec, &resp)
			if resp.Success || resp.IsCorrect || resp.Output != tt.wantError {
				t.Errorf("body = %+v, want output %q", resp, tt.wantError)
			}
		})
	}
}

func TestHandler_CompileUploadWithoutDetector(t *testing.T) {
	srv := newTestServer(t, func(_ *Config, s *service.Config) { s.Detector = nil })

	body, ct := multipartBody(t, "board.png", []byte("png"), nil)
	rec := do(t, srv, http.MethodPost, "/compile", body, ct)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp CompileErrorResponse
	decode(t, rec, &resp)
	if resp.Success || !strings.HasPrefix(resp.Output, MsgProcessing) || resp.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("body = %+v", resp)
	}
}

func TestHandler_CompileFailureShape(t *testing.T) {
	srv := newTestServer(t, nil)

	body, ct := multipartBody(t, "", nil, map[string]string{"other": "x"})
	rec := do(t, srv, http.MethodPost, "/compile", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	var raw map[string]interface{}
	decode(t, rec, &raw)
	if raw["success"] != false || raw["is_correct"] != false || raw["output"] != MsgNoImage {
		t.Errorf("payload = %v", raw)
	}
	if _, ok := raw["error"]; ok {
		t.Errorf("payload carries an error field: %v", raw)
	}
}

func TestHandler_Structure(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := postJSON(t, srv, "/api/v1/structure", CompileRequest{Tokens: loopProgram()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp StructureResponse
	decode(t, rec, &resp)
	if len(resp.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(resp.Rows))
	}
	if resp.Rows[0].Row != 1 || resp.Rows[1].Depth != 1 || len(resp.Rows[1].Tokens) != 2 {
		t.Errorf("rows = %+v", resp.Rows)
	}
}

func TestHandler_Levels(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := postJSON(t, srv, "/api/v1/levels", map[string]string{
		"title":    "Zickzack",
		"expected": "[[0,-1],\"jump\"]",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID       string `json:"id"`
		Expected string `json:"expected"`
	}
	decode(t, rec, &created)
	if created.ID == "" || created.Expected != "[[0, -1], 'jump']" {
		t.Errorf("created = %+v", created)
	}

	rec = postJSON(t, srv, "/api/v1/levels", map[string]string{"expected": "[]"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing title status = %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/levels", nil, "")
	var list LevelsResponse
	decode(t, rec, &list)
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/levels/"+created.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = postJSON(t, srv, "/api/v1/compile", CompileRequest{Tokens: loopProgram(), Level: created.ID})
	var res service.Result
	decode(t, rec, &res)
	if !res.Verify || res.IsCorrect {
		t.Errorf("level compile = %+v, want incorrect verify", res.Response)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/runs?level="+created.ID, nil, "")
	var runs RunsResponse
	decode(t, rec, &runs)
	if runs.Total != 1 || runs.Runs[0].LevelID != created.ID {
		t.Errorf("runs = %+v", runs)
	}

	rec = do(t, srv, http.MethodDelete, "/api/v1/levels/"+created.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, "/api/v1/levels/"+created.ID, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestHandler_Runs(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/runs", nil, "")
	var runs RunsResponse
	decode(t, rec, &runs)
	if runs.Runs == nil || runs.Total != 0 {
		t.Errorf("empty runs = %+v", runs)
	}

	postJSON(t, srv, "/compile", CompileRequest{Tokens: loopProgram()})
	postJSON(t, srv, "/compile", CompileRequest{Tokens: loopProgram()})

	rec = do(t, srv, http.MethodGet, "/api/v1/runs?limit=1", nil, "")
	decode(t, rec, &runs)
	if runs.Total != 1 {
		t.Errorf("limited runs = %d, want 1", runs.Total)
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/runs?limit=zero", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}
}
