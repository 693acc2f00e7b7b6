// Presence Relay - Real-Time Location Presence Broadcast Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/presence-relay

package longpoll

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/presence-relay/internal/presence"
	"github.com/tomtom215/presence-relay/internal/protocol"
)

func setupHandlerServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	relay := presence.NewRelay(presence.Options{})
	server := httptest.NewServer(NewHandler(NewManager(relay, opts)).Routes())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func openHTTPSession(t *testing.T, server *httptest.Server) OpenResponse {
	t.Helper()
	resp, body := doRequest(t, http.MethodPost, server.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("open status = %d, body %s", resp.StatusCode, body)
	}
	var open OpenResponse
	if err := json.Unmarshal(body, &open); err != nil {
		t.Fatalf("decode open response: %v", err)
	}
	return open
}

func TestHandler_Open(t *testing.T) {
	t.Parallel()

	server := setupHandlerServer(t, testOptions())
	open := openHTTPSession(t, server)

	if open.SID == "" {
		t.Error("sid should not be empty")
	}
	if open.PingIntervalMS != 1000 || open.PingTimeoutMS != 1000 {
		t.Errorf("ping settings = %d/%d, want 1000/1000", open.PingIntervalMS, open.PingTimeoutMS)
	}
}

func TestHandler_PollReturnsArray(t *testing.T) {
	t.Parallel()

	server := setupHandlerServer(t, testOptions())
	open := openHTTPSession(t, server)

	resp, body := doRequest(t, http.MethodGet, server.URL+"/"+open.SID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("poll status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var envs []protocol.Envelope
	if err := json.Unmarshal(body, &envs); err != nil {
		t.Fatalf("decode poll body %s: %v", body, err)
	}
	if len(envs) != 1 || envs[0].Type != protocol.TypeTotalUsers {
		t.Errorf("poll = %s, want [total-users]", body)
	}

	// Nothing queued: an empty array once PollWait elapses.
	resp, body = doRequest(t, http.MethodGet, server.URL+"/"+open.SID, "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("idle poll = %d %s, want 200 []", resp.StatusCode, body)
	}
}

func TestHandler_SubmitStatuses(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.UpdateRate = 0.001
	opts.UpdateBurst = 1
	server := setupHandlerServer(t, opts)
	open := openHTTPSession(t, server)
	url := server.URL + "/" + open.SID

	tests := []struct {
		name       string
		url        string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"ping", url, `{"type":"ping"}`, http.StatusNoContent, ""},
		{"valid location", url, `{"type":"send-location","data":{"latitude":1,"longitude":2}}`, http.StatusNoContent, ""},
		{"invalid location", url, `{"type":"send-location","data":{"latitude":"bad","longitude":2}}`, http.StatusBadRequest, protocol.CodeValidation},
		{"malformed", url, `nope`, http.StatusBadRequest, protocol.CodeMalformed},
		{"rate limited", url, `{"type":"send-location","data":{"latitude":1,"longitude":2}}`, http.StatusTooManyRequests, protocol.CodeRateLimited},
		{"unknown session", server.URL + "/missing", `{"type":"ping"}`, http.StatusNotFound, "SESSION_NOT_FOUND"},
	}

	// Sequential: the rate-limit case depends on the earlier valid update.
	for _, tt := range tests {
		resp, body := doRequest(t, http.MethodPost, tt.url, tt.body)
		if resp.StatusCode != tt.wantStatus {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, resp.StatusCode, tt.wantStatus, body)
			continue
		}
		if tt.wantCode == "" {
			continue
		}
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err != nil {
			t.Errorf("%s: decode error body: %v", tt.name, err)
			continue
		}
		if eb.Success || eb.Error.Code != tt.wantCode {
			t.Errorf("%s: error body = %+v, want code %s", tt.name, eb, tt.wantCode)
		}
	}
}

func TestHandler_SubmitTooLarge(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.MaxMessageSize = 32
	server := setupHandlerServer(t, opts)
	open := openHTTPSession(t, server)

	resp, _ := doRequest(t, http.MethodPost, server.URL+"/"+open.SID, strings.Repeat("x", 64))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestHandler_Delete(t *testing.T) {
	t.Parallel()

	server := setupHandlerServer(t, testOptions())
	open := openHTTPSession(t, server)
	url := server.URL + "/" + open.SID

	if resp, _ := doRequest(t, http.MethodDelete, url, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	if resp, _ := doRequest(t, http.MethodDelete, url, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
	if resp, _ := doRequest(t, http.MethodGet, url, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("poll after delete status = %d, want 404", resp.StatusCode)
	}
}
