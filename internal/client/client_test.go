package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"loom/internal/types"
)

func TestListSessionsDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/pipeline/sessions" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(SessionsResponse{Sessions: []*types.PipelineSession{
			{ID: "s1", Status: types.PipelineStatusRunning},
			{ID: "s2", Status: types.PipelineStatusComplete},
		}})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "test-token")
	sessions, err := c.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "s1" || sessions[1].Status != types.PipelineStatusComplete {
		t.Fatalf("unexpected sessions: %#v", sessions)
	}
}

func TestRespondToGateReportsAcceptance(t *testing.T) {
	accepted := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/pipeline/sessions/s1/gate" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var response types.GateResponse
		if err := json.NewDecoder(r.Body).Decode(&response); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if response.GateID != "gate-1" || response.Response != "approve" {
			t.Fatalf("unexpected request body: %#v", response)
		}
		_ = json.NewEncoder(w).Encode(GateResponseResult{Accepted: accepted})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "test-token")
	ok, err := c.RespondToGate(context.Background(), "s1", types.GateResponse{GateID: "gate-1", Response: "approve"})
	if err != nil || !ok {
		t.Fatalf("expected accepted, got ok=%v err=%v", ok, err)
	}

	accepted = false
	ok, err = c.RespondToGate(context.Background(), "s1", types.GateResponse{GateID: "gate-1", Response: "approve"})
	if err != nil || ok {
		t.Fatalf("expected rejection without error, got ok=%v err=%v", ok, err)
	}
}

func TestRespondToGateTreatsConflictAsRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "gate already resolved"})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "test-token")
	ok, err := c.RespondToGate(context.Background(), "s1", types.GateResponse{GateID: "gate-1"})
	if err != nil {
		t.Fatalf("conflict should not be an error: %v", err)
	}
	if ok {
		t.Fatalf("conflict must report rejection")
	}
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "test-token")
	_, err := c.GetSession(context.Background(), "missing")
	apiErr := AsAPIError(err)
	if apiErr == nil {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "session not found" {
		t.Fatalf("unexpected error: %#v", apiErr)
	}
}

func TestMissingTokenFailsBeforeRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewWithBaseURL(server.URL, "")
	if _, err := c.ListSessions(context.Background()); err == nil {
		t.Fatalf("expected token error")
	}
	if called {
		t.Fatalf("request must not reach the server without a token")
	}
}
