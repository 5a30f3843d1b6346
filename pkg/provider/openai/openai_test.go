package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SinaShahandeh/GetBack2Werk/pkg/domain"
	"github.com/SinaShahandeh/GetBack2Werk/pkg/provider"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("")
	var authErr *provider.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("New(\"\") error = %v, want AuthError", err)
	}
	if authErr.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", authErr.Provider)
	}
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body["model"] == "" || body["voice"] == "" {
			t.Errorf("request body missing model/voice: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"client_secret": map[string]string{"value": "ephemeral-123"},
		})
	}))
	defer srv.Close()

	a, err := New("test-key")
	if err != nil {
		t.Fatal(err)
	}
	a.sessionsURL = srv.URL

	token, err := a.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if token != "ephemeral-123" {
		t.Errorf("token = %q, want ephemeral-123", token)
	}
}

func TestCreateSessionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a, _ := New("bad-key")
	a.sessionsURL = srv.URL

	_, err := a.CreateSession(context.Background())
	var provErr *provider.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if provErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", provErr.StatusCode)
	}
}

func TestCreateSessionMissingSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a, _ := New("test-key")
	a.sessionsURL = srv.URL

	if _, err := a.CreateSession(context.Background()); err == nil {
		t.Fatal("expected error for response without client secret")
	}
}

// TestRealtimeSessionFlow runs a full session against a local websocket
// server: dial with the session token, configure, receive a transcript, and
// answer a tool call with a correlated function_call_output.
func TestRealtimeSessionFlow(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverDone := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(serverDone)

		if got := r.Header.Get("Authorization"); got != "Bearer ephemeral-123" {
			t.Errorf("Authorization = %q, want the session token", got)
		}
		if got := r.Header.Get("OpenAI-Beta"); got != "realtime=v1" {
			t.Errorf("OpenAI-Beta = %q", got)
		}
		if got := r.URL.Query().Get("model"); got == "" {
			t.Error("dial URL missing model parameter")
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var update struct {
			Type    string `json:"type"`
			Session struct {
				Instructions  string `json:"instructions"`
				Voice         string `json:"voice"`
				ToolChoice    string `json:"tool_choice"`
				TurnDetection struct {
					Type string `json:"type"`
				} `json:"turn_detection"`
				Tools []struct {
					Name string `json:"name"`
				} `json:"tools"`
				NoiseReduction *struct {
					Type string `json:"type"`
				} `json:"input_audio_noise_reduction"`
			} `json:"session"`
		}
		if err := conn.ReadJSON(&update); err != nil {
			t.Errorf("reading session.update: %v", err)
			return
		}
		if update.Type != "session.update" {
			t.Errorf("first event type = %q, want session.update", update.Type)
		}
		if update.Session.Instructions != "stay focused" {
			t.Errorf("instructions = %q", update.Session.Instructions)
		}
		if update.Session.TurnDetection.Type != "server_vad" {
			t.Errorf("turn detection = %q, want server_vad", update.Session.TurnDetection.Type)
		}
		if update.Session.ToolChoice != "auto" {
			t.Errorf("tool choice = %q, want auto", update.Session.ToolChoice)
		}
		if len(update.Session.Tools) != 1 || update.Session.Tools[0].Name != "EndSession" {
			t.Errorf("tools = %+v", update.Session.Tools)
		}
		if update.Session.NoiseReduction == nil || update.Session.NoiseReduction.Type != "far_field" {
			t.Errorf("noise reduction = %+v, want far_field", update.Session.NoiseReduction)
		}

		if err := conn.WriteJSON(map[string]string{
			"type":       "response.audio_transcript.done",
			"transcript": "hello there",
		}); err != nil {
			t.Errorf("writing transcript: %v", err)
			return
		}

		var item struct {
			Type string `json:"type"`
			Item struct {
				Type   string `json:"type"`
				CallID string `json:"call_id"`
				Output string `json:"output"`
			} `json:"item"`
		}
		if err := conn.ReadJSON(&item); err != nil {
			t.Errorf("reading tool output: %v", err)
			return
		}
		if item.Item.Type != "function_call_output" {
			t.Errorf("item type = %q, want function_call_output", item.Item.Type)
		}
		if item.Item.CallID != "call-1" {
			t.Errorf("call_id = %q, want call-1", item.Item.CallID)
		}
		var output map[string]any
		if err := json.Unmarshal([]byte(item.Item.Output), &output); err != nil {
			t.Errorf("output is not JSON: %v", err)
		} else if output["status"] != "success" {
			t.Errorf("output = %v", output)
		}

		// Hold the connection until the client disconnects.
		conn.ReadMessage()
	}))
	defer srv.Close()

	a, err := New("test-key")
	if err != nil {
		t.Fatal(err)
	}
	a.realtimeURL = "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx := context.Background()
	if err := a.Connect(ctx, "ephemeral-123"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !a.Connected() {
		t.Fatal("Connected() = false after Connect")
	}

	cfg := provider.SessionConfig{
		SystemPrompt:   "stay focused",
		Tools:          []domain.ToolDef{{Name: "EndSession", Description: "end", Parameters: map[string]any{"type": "object"}}},
		NoiseReduction: "far_field",
	}
	if err := a.ConfigureSession(ctx, cfg); err != nil {
		t.Fatalf("ConfigureSession: %v", err)
	}

	select {
	case msg := <-a.Messages():
		if msg.Kind != domain.KindText || msg.Text != "hello there" {
			t.Errorf("received %+v, want the transcript", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transcript")
	}

	results := []domain.ToolResult{{
		Name:   "EndSession",
		CallID: "call-1",
		Result: map[string]any{"status": "success"},
	}}
	if err := a.SendToolResponse(ctx, results); err != nil {
		t.Fatalf("SendToolResponse: %v", err)
	}

	if err := a.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if a.Connected() {
		t.Error("Connected() = true after Disconnect")
	}

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("server handler did not finish")
	}
}

func TestDisconnectWithoutConnect(t *testing.T) {
	a, _ := New("test-key")
	if err := a.Disconnect(); err != nil {
		t.Fatalf("Disconnect on fresh adapter: %v", err)
	}
}
