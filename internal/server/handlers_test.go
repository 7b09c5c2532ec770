// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistgate/assistgate/internal/assistant"
	"github.com/assistgate/assistgate/internal/config"
	"github.com/assistgate/assistgate/internal/protocol"
)

// chatOnlyAdapter supports a single operation, for unsupported-operation tests.
type chatOnlyAdapter struct {
	*assistant.StubAdapter
}

func (c *chatOnlyAdapter) Descriptor() assistant.Descriptor {
	d := c.StubAdapter.Descriptor()
	d.Operations = []assistant.Operation{assistant.OpChat}
	return d
}

func newTestServer(t *testing.T, adapters ...assistant.Adapter) *httptest.Server {
	t.Helper()

	registry := assistant.NewRegistry()
	if len(adapters) == 0 {
		adapters = []assistant.Adapter{assistant.NewStubAdapter()}
	}
	for _, a := range adapters {
		require.NoError(t, registry.Register(a))
	}

	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0, MaxBodyBytes: 1 << 20}
	srv := New(cfg, registry, "test")

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) assistant.Envelope {
	t.Helper()
	var env assistant.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func TestPostChat_Success(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/v1/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "stub", env.Assistant)
	assert.Equal(t, assistant.OpChat, env.Operation)
	assert.True(t, env.Success)
	require.NotNil(t, env.Content)
	assert.Equal(t, "OK", *env.Content)
	assert.Nil(t, env.ErrorKind)
}

func TestPostChat_UnknownAssistant(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/v1/chat", `{"message":"hello","assistant":"missing"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["error"], "missing")
}

func TestPostChat_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/v1/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostChat_UnsupportedOperationOnOtherRoute(t *testing.T) {
	ts := newTestServer(t, &chatOnlyAdapter{&assistant.StubAdapter{ID: "chatbot", Available: true}})

	resp := postJSON(t, ts, "/api/v1/code/modify", `{"code":"x=1","instruction":"rename"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostModifyCode_EchoRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts, "/api/v1/code/modify",
		`{"code":"def f():\n    pass","instruction":"add docstring","language":"python"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)
	require.NotNil(t, env.Content)
	assert.Equal(t, "def f():\n    pass", *env.Content)
	assert.Equal(t, assistant.OpModifyCode, env.Operation)
}

func TestPostChat_ToolFailureIsStructured(t *testing.T) {
	stub := assistant.NewStubAdapter()
	stub.FailWith = assistant.ErrorKindToolTimeout
	ts := newTestServer(t, stub)

	resp := postJSON(t, ts, "/api/v1/chat", `{"message":"hello"}`)
	// Tool failures are carried in the envelope, not as HTTP errors.
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Nil(t, env.Content)
	require.NotNil(t, env.ErrorKind)
	assert.Equal(t, "tool_timeout", *env.ErrorKind)
}

func TestPostCommit_EmptyBodyAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/v1/git/commit", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	env := decodeEnvelope(t, resp)
	assert.Equal(t, assistant.OpCommit, env.Operation)
	assert.True(t, env.Success)
}

func TestPostCommit_ChunkedBodyIsRead(t *testing.T) {
	ts := newTestServer(t)

	// Wrapping the reader hides the length, so the client sends the body
	// chunked (ContentLength -1). The assistant named in it must still be
	// resolved, not silently replaced by the default.
	body := struct{ io.Reader }{strings.NewReader(`{"assistant":"missing","diff":"x"}`)}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/git/commit", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostCommit_ChunkedInvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	body := struct{ io.Reader }{strings.NewReader(`{not json`)}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/git/commit", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// cancelSensitiveAdapter fails when its context is already cancelled, which a
// real adapter would do the moment it starts the subprocess.
type cancelSensitiveAdapter struct {
	*assistant.StubAdapter
}

func (c *cancelSensitiveAdapter) Chat(ctx context.Context, in assistant.ChatInput) assistant.Outcome {
	if ctx.Err() != nil {
		return assistant.FailureOutcome(assistant.ErrorKindToolExecutionFailed, "context cancelled", 0)
	}
	return c.StubAdapter.Chat(ctx, in)
}

func TestInvoke_SurvivesClientDisconnect(t *testing.T) {
	registry := assistant.NewRegistry()
	require.NoError(t, registry.Register(&cancelSensitiveAdapter{assistant.NewStubAdapter()}))

	b := NewEventBroadcaster(NewClientRegistry())
	h := NewHandlers(registry, b, NewMetrics(), "test")

	// Simulate the client going away before the adapter runs: the request
	// context is already cancelled when the handler executes.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hello"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	h.PostChat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var env assistant.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.True(t, env.Success, "invocation must not be cancelled by client disconnect")
}

func TestAvailabilityTransitionsBroadcast(t *testing.T) {
	stub := assistant.NewStubAdapter()
	registry := assistant.NewRegistry()
	require.NoError(t, registry.Register(stub))

	b := NewEventBroadcaster(NewClientRegistry())
	h := NewHandlers(registry, b, NewMetrics(), "test")

	get := func() {
		rec := httptest.NewRecorder()
		h.GetAssistants(rec, httptest.NewRequest(http.MethodGet, "/api/v1/assistants", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// First probe establishes the baseline without broadcasting.
	get()
	select {
	case ev := <-b.eventChan:
		t.Fatalf("unexpected event on first probe: %#v", ev)
	default:
	}

	// A flip to unavailable is a transition and must be broadcast.
	stub.Available = false
	get()
	select {
	case ev := <-b.eventChan:
		avail, ok := ev.(protocol.AssistantAvailabilityEvent)
		require.True(t, ok, "expected availability event, got %#v", ev)
		assert.Equal(t, "stub", avail.Assistant)
		assert.False(t, avail.Available)
	default:
		t.Fatal("expected an availability transition event")
	}

	// Steady state stays quiet.
	get()
	select {
	case ev := <-b.eventChan:
		t.Fatalf("unexpected event without a transition: %#v", ev)
	default:
	}
}

func TestGetAssistants(t *testing.T) {
	ts := newTestServer(t,
		&assistant.StubAdapter{ID: "copilot", Name: "GitHub Copilot CLI", Available: true},
		&assistant.StubAdapter{ID: "claude", Name: "Claude Code CLI", Available: false},
	)

	resp, err := http.Get(ts.URL + "/api/v1/assistants")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Assistants []assistant.Status `json:"assistants"`
		Default    string             `json:"default"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Assistants, 2)
	assert.Equal(t, "copilot", body.Assistants[0].ID)
	assert.True(t, body.Assistants[0].Available)
	assert.Equal(t, "claude", body.Assistants[1].ID)
	assert.False(t, body.Assistants[1].Available)
	assert.Equal(t, "copilot", body.Default)
}

func TestGetHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status     string             `json:"status"`
		Version    string             `json:"version"`
		Assistants []assistant.Status `json:"assistants"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Len(t, body.Assistants, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// Drive one invocation so the counter exists.
	resp := postJSON(t, ts, "/api/v1/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	mResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mResp.Body.Close()
	require.Equal(t, http.StatusOK, mResp.StatusCode)

	data, err := io.ReadAll(mResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "assistgate_invocations_total")
	assert.Contains(t, string(data), `assistant="stub"`)
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRequestIDHeader_ClientSupplied(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "trace-1234")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "trace-1234", resp.Header.Get("X-Request-ID"))

	// Malformed IDs are replaced, not echoed.
	req, err = http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "bad id with spaces")

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	got := resp.Header.Get("X-Request-ID")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, "bad id with spaces", got)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
