package server

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"evframe-go/internal/config"
)

func TestHandleConfig(t *testing.T) {
	srv := &Server{
		cfg: config.AppConfig{
			Width:  346,
			Height: 260,
			FPS:    25,
			Port:   9999,
		},
	}

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["width"].(float64) != 346 {
		t.Fatalf("unexpected width: %v", payload["width"])
	}
	if payload["height"].(float64) != 260 {
		t.Fatalf("unexpected height: %v", payload["height"])
	}
	if payload["fps"].(float64) != 25 {
		t.Fatalf("unexpected fps: %v", payload["fps"])
	}
}

func TestHandleConfigPrefersCallback(t *testing.T) {
	srv := &Server{
		configFn: func() map[string]any {
			return map[string]any{"type": "config", "width": 128}
		},
	}
	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["width"].(float64) != 128 {
		t.Fatalf("callback config ignored: %v", payload)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := &Server{
		statusFn: func() map[string]any {
			return map[string]any{"source": "simulator"}
		},
	}
	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["source"] != "simulator" {
		t.Fatalf("unexpected source: %v", payload["source"])
	}
	if payload["ws_clients"].(float64) != 0 {
		t.Fatalf("unexpected ws_clients: %v", payload["ws_clients"])
	}
}

func TestHandleHealth(t *testing.T) {
	srv := &Server{}
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, req)
	if rec.Code != 200 || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}
