package wireclient

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
)

func startEchoListener(t *testing.T, respond func(req map[string]interface{}) Response) string {
	t.Helper()

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "test.sock")

	l, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				reader := bufio.NewReader(conn)
				line, _, err := reader.ReadLine()
				if err != nil {
					return
				}
				var req map[string]interface{}
				json.Unmarshal(line, &req)
				resp := respond(req)
				data, _ := json.Marshal(resp)
				data = append(data, '\n')
				conn.Write(data)
			}()
		}
	}()

	return sockPath
}

func TestCallRoundTrip(t *testing.T) {
	sockPath := startEchoListener(t, func(req map[string]interface{}) Response {
		if req["type"] != "STATUS" {
			t.Errorf("server saw type = %v, want STATUS", req["type"])
		}
		return Response{Status: "ok", Data: map[string]interface{}{"running": true}}
	})

	c := New(sockPath)
	resp, err := c.Call(map[string]interface{}{"type": "STATUS"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
	running, ok := resp.Bool("running")
	if !ok || !running {
		t.Errorf("running = %v (ok=%v), want true", running, ok)
	}
}

func TestCallErrorResponse(t *testing.T) {
	sockPath := startEchoListener(t, func(req map[string]interface{}) Response {
		return Response{Status: "error", Error: "something went wrong"}
	})

	c := New(sockPath)
	resp, err := c.Call(map[string]interface{}{"type": "BOGUS"})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("resp = %+v, want error with message", resp)
	}
}

func TestCallDialFailure(t *testing.T) {
	c := New("/nonexistent/path/does-not-exist.sock")
	if _, err := c.Call(map[string]interface{}{"type": "STATUS"}); err == nil {
		t.Error("Call() on nonexistent socket: expected error, got nil")
	}
}
