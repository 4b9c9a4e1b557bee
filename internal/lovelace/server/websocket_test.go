package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/msto63/ct4pwd/foundation/vpl/token"
)

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

type wsReply struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType, id string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(WSMessage{Type: msgType, ID: id, Payload: raw}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func readWS(t *testing.T, conn *websocket.Conn) wsReply {
	t.Helper()
	var reply wsReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return reply
}

func TestWebSocket_Ping(t *testing.T) {
	conn := dialWS(t, newTestServer(t, nil))

	sendWS(t, conn, "ping", "p1", nil)
	reply := readWS(t, conn)
	if reply.Type != "pong" || reply.ID != "p1" {
		t.Errorf("reply = %+v, want pong p1", reply)
	}
}

func TestWebSocket_CompileStreamsSteps(t *testing.T) {
	conn := dialWS(t, newTestServer(t, nil))

	sendWS(t, conn, "compile", "c1", CompileRequest{Tokens: loopProgram()})

	var steps []WSStepPayload
	for {
		reply := readWS(t, conn)
		if reply.ID != "c1" {
			t.Fatalf("reply id = %q", reply.ID)
		}
		if reply.Type == "done" {
			var done struct {
				Success bool   `json:"success"`
				Output  string `json:"output"`
			}
			if err := json.Unmarshal(reply.Payload, &done); err != nil {
				t.Fatal(err)
			}
			if !done.Success || done.Output != loopTrace {
				t.Errorf("done = %+v", done)
			}
			break
		}
		if reply.Type != "step" {
			t.Fatalf("unexpected %s: %s", reply.Type, reply.Payload)
		}
		var step WSStepPayload
		if err := json.Unmarshal(reply.Payload, &step); err != nil {
			t.Fatal(err)
		}
		steps = append(steps, step)
	}

	if len(steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(steps))
	}
	last := steps[len(steps)-1]
	if last.Index != 5 || last.X != -1 || last.Y != -2 {
		t.Errorf("last step = %+v, want index 5 at (-1, -2)", last)
	}
	if steps[1].Step.Label != "jump" || steps[1].Y != -1 {
		t.Errorf("second step = %+v", steps[1])
	}
}

func TestWebSocket_CompileError(t *testing.T) {
	conn := dialWS(t, newTestServer(t, nil))

	sendWS(t, conn, "compile", "bad", CompileRequest{Tokens: []token.Token{
		token.New(token.KindLoop, "3", 100, 100),
		token.New(token.KindDirection, token.Up, 100, 160),
	}})

	reply := readWS(t, conn)
	if reply.Type != "error" {
		t.Fatalf("type = %s, want error", reply.Type)
	}
	var payload WSErrorPayload
	if err := json.Unmarshal(reply.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Code != "EmptyBlockBody" || payload.Row != 1 {
		t.Errorf("payload = %+v", payload)
	}
}

func TestWebSocket_UnknownType(t *testing.T) {
	conn := dialWS(t, newTestServer(t, nil))

	sendWS(t, conn, "dance", "", nil)
	reply := readWS(t, conn)
	var payload WSErrorPayload
	json.Unmarshal(reply.Payload, &payload)
	if reply.Type != "error" || payload.Code != "unknown_type" {
		t.Errorf("reply = %+v, payload = %+v", reply, payload)
	}
}
