package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl/evaluator"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	"github.com/msto63/ct4pwd/pkg/core/logging"
)

// WebSocket upgrader with permissive settings for classroom setups
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const wsReadTimeout = 120 * time.Second

// WebSocketHandler streams compile traces step by step
type WebSocketHandler struct {
	svc    *service.Service
	logger *logging.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(svc *service.Service, logger *logging.Logger) *WebSocketHandler {
	if logger == nil {
		logger = logging.New("lovelace-websocket")
	}
	return &WebSocketHandler{
		svc:    svc,
		logger: logger,
	}
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`         // "compile", "ping"
	ID      string          `json:"id,omitempty"` // echoed in every response
	Payload json.RawMessage `json:"payload"`
}

// WSResponse represents a WebSocket response
type WSResponse struct {
	Type    string      `json:"type"` // "step", "done", "error", "pong"
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload"`
}

// WSStepPayload is one trace step and the cursor after it
type WSStepPayload struct {
	Index int            `json:"index"`
	Step  evaluator.Step `json:"step"`
	X     int            `json:"x"`
	Y     int            `json:"y"`
}

// WSErrorPayload represents an error payload
type WSErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Row     int    `json:"row,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.WriteJSON(v)
}

// ServeHTTP handles WebSocket upgrade and connections
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	h.handleConnection(&wsConn{Conn: conn})
}

func (h *WebSocketHandler) handleConnection(conn *wsConn) {
	defer conn.Close()

	h.logger.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		wg.Wait()
	}()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("WebSocket read error", "error", err)
			} else {
				h.logger.Info("WebSocket connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		switch msg.Type {
		case "ping":
			h.sendResponse(conn, WSResponse{Type: "pong", ID: msg.ID})

		case "compile":
			var req CompileRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				h.sendError(conn, msg.ID, WSErrorPayload{Code: "invalid_payload", Message: "Invalid compile payload"})
				continue
			}

			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				h.handleCompile(ctx, conn, id, req)
			}(msg.ID)

		default:
			h.sendError(conn, msg.ID, WSErrorPayload{Code: "unknown_type", Message: "Unknown message type: " + msg.Type})
		}
	}
}

// handleCompile compiles req and streams the trace
func (h *WebSocketHandler) handleCompile(ctx context.Context, conn *wsConn, id string, req CompileRequest) {
	res, err := h.svc.Compile(ctx, req.toService(uuid.New().String()))
	if err != nil {
		h.sendError(conn, id, WSErrorPayload{
			Code:    string(mdwerror.GetCode(err)),
			Message: err.Error(),
		})
		return
	}
	if !res.Success {
		h.sendError(conn, id, WSErrorPayload{Code: res.Code, Message: res.Output, Row: res.Row})
		return
	}

	x, y := 0, 0
	for i, step := range res.Trace {
		if ctx.Err() != nil {
			return
		}
		if step.Kind == evaluator.StepMove {
			x += step.Vector.DX
			y += step.Vector.DY
		}
		if err := conn.send(WSResponse{
			Type:    "step",
			ID:      id,
			Payload: WSStepPayload{Index: i + 1, Step: step, X: x, Y: y},
		}); err != nil {
			h.logger.Error("WebSocket send error", "error", err)
			return
		}
	}

	h.sendResponse(conn, WSResponse{Type: "done", ID: id, Payload: res})
}

func (h *WebSocketHandler) sendResponse(conn *wsConn, resp WSResponse) {
	if err := conn.send(resp); err != nil {
		h.logger.Error("WebSocket send error", "error", err)
	}
}

func (h *WebSocketHandler) sendError(conn *wsConn, id string, payload WSErrorPayload) {
	h.sendResponse(conn, WSResponse{Type: "error", ID: id, Payload: payload})
}
