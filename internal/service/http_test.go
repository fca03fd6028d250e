package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, _ := newTestService(t)
	srv := httptest.NewServer(NewHandler(svc, prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_GetNikud(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/services/get_nikud", `{"text":"שלום עולם","genre":"modern"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body GetNikudResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.Success || body.NikudText == nil || *body.NikudText != "שָׁלוֹם עוֹלָם" {
		t.Errorf("body = %+v", body)
	}

	// A cache hit reports a zero response time rather than omitting it.
	resp = post(t, srv.URL+"/api/services/get_nikud", `{"text":"שלום עולם","genre":"modern"}`)
	var hit map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&hit); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	for _, key := range []string{"success", "original_text", "nikud_text", "response_time", "cache_stats"} {
		if _, ok := hit[key]; !ok {
			t.Errorf("hit body missing %q: %v", key, hit)
		}
	}
	if hit["response_time"] != 0.0 || hit["cached"] != true {
		t.Errorf("hit response_time = %v, cached = %v, want 0 and true", hit["response_time"], hit["cached"])
	}
}

func TestHandler_GetNikud_EscapedLongText(t *testing.T) {
	srv := newTestServer(t)

	// 10000 characters outside the BMP, each escaped as a surrogate pair.
	text := strings.Repeat(`\ud83d\ude00`, 10000)
	resp := post(t, srv.URL+"/api/services/get_nikud", `{"text":"`+text+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body GetNikudResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.Success {
		t.Errorf("Success = false, error = %q", body.Error)
	}
}

func TestHandler_ServiceErrorIsOK(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/services/get_nikud", `{"text":"שלום","genre":"klingon"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	if _, ok := body["error"].(string); !ok {
		t.Errorf("error = %v, want string", body["error"])
	}
	if _, ok := body["nikud_text"]; ok {
		t.Error("failure body carries nikud_text")
	}
	stats, ok := body["cache_stats"].(map[string]any)
	if !ok {
		t.Fatalf("cache_stats = %v, want object", body["cache_stats"])
	}
	if stats["total_entries"] != 0.0 {
		t.Errorf("cache_stats.total_entries = %v, want 0", stats["total_entries"])
	}
}

func TestHandler_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/api/services/get_nikud", `{"text":`},
		{"empty body", "/api/services/get_nikud", ``},
		{"unknown field", "/api/services/update_config", `{"cache_size":10}`},
		{"wrong type", "/api/services/update_config", `{"max_cache_size":"big"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Success || body.Error == "" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestHandler_ClearAndConfig(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv.URL+"/api/services/get_nikud", `{"text":"שלום עולם"}`)

	resp := post(t, srv.URL+"/api/services/clear_cache", ``)
	var cleared ClearCacheResponse
	if err := json.NewDecoder(resp.Body).Decode(&cleared); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !cleared.Success || cleared.ClearedEntries != 1 {
		t.Errorf("clear_cache = %+v", cleared)
	}

	resp = post(t, srv.URL+"/api/services/update_config", `{"enable_cache_timeout":true,"cache_duration":600}`)
	var updated UpdateConfigResponse
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !updated.Success || !updated.ConfigAfter.EnableCacheTimeout || updated.ConfigAfter.CacheDuration != 600 {
		t.Errorf("update_config = %+v", updated)
	}
}

func TestHandler_StatusAndHealth(t *testing.T) {
	srv := newTestServer(t)

	post(t, srv.URL+"/api/services/get_nikud", `{"text":"שלום עולם"}`)

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	defer resp.Body.Close()

	var view StatusView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if view.State != "Ready" || view.TotalRequests != 1 || view.SuccessRate != "100.0%" {
		t.Errorf("status = %+v", view)
	}

	health, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer health.Body.Close()
	data, _ := io.ReadAll(health.Body)
	if health.StatusCode != http.StatusOK || string(data) != "OK" {
		t.Errorf("healthz = %d %q", health.StatusCode, data)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/services/get_nikud")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
