package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"backend-tripline/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:             "secret",
		ServerPort:            ":0",
		HeartbeatInterval:     5 * time.Second,
		PresenceTTL:           10 * time.Second,
		PresenceSweepInterval: 4 * time.Second,
		GeocodeFailTTL:        time.Hour,
	}
}

func TestHealthRoute(t *testing.T) {
	s := NewServer(testConfig(), nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}
}

func TestRealtimeConfigRoute(t *testing.T) {
	s := NewServer(testConfig(), nil, nil)

	req := httptest.NewRequest("GET", "/realtime/config", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 status")
	}

	var body struct {
		HeartbeatIntervalMS int64 `json:"heartbeat_interval_ms"`
		PresenceTTLMS       int64 `json:"presence_ttl_ms"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.HeartbeatIntervalMS != 5000 || body.PresenceTTLMS != 10000 {
		t.Fatalf("unexpected config %+v", body)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	s := NewServer(testConfig(), nil, nil)

	req := httptest.NewRequest("POST", "/trips", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
