// Copyright (C) 2026 Assistgate
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/assistgate/assistgate/internal/assistant"
	"github.com/assistgate/assistgate/internal/protocol"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	registry    *assistant.Registry
	broadcaster *EventBroadcaster
	metrics     *Metrics
	version     string
	started     time.Time

	availMu  sync.Mutex
	lastSeen map[string]bool // availability per assistant, as of the last probe
}

// NewHandlers creates the handler set.
func NewHandlers(registry *assistant.Registry, broadcaster *EventBroadcaster, metrics *Metrics, version string) *Handlers {
	return &Handlers{
		registry:    registry,
		broadcaster: broadcaster,
		metrics:     metrics,
		version:     version,
		started:     time.Now(),
		lastSeen:    make(map[string]bool),
	}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeResolveError maps registry resolution errors to HTTP statuses.
// Unknown assistant identifiers are a 404; an assistant that exists but does
// not support the requested operation is a 400.
func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, assistant.ErrAssistantNotFound),
		errors.Is(err, assistant.ErrNoDefaultConfigured):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, assistant.ErrUnsupportedOperation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

// invoke resolves the adapter, emits lifecycle events around the call, and
// writes the normalized envelope. Tool failures are part of the envelope, not
// HTTP errors: once an adapter is reached the response status is 200.
func (h *Handlers) invoke(w http.ResponseWriter, r *http.Request, assistantID string, op assistant.Operation, call func(context.Context, assistant.Adapter) assistant.Outcome) {
	ad, err := h.registry.ResolveFor(assistantID, op)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	id := ad.Descriptor().ID
	reqID := GetRequestID(r.Context())

	h.broadcaster.Publish(protocol.NewInvocationStartedEvent(reqID, id, string(op)))
	// The per-invocation timeout is the only cancellation mechanism: a client
	// that disconnects mid-call must not kill the tool underneath it.
	out := call(context.WithoutCancel(r.Context()), ad)
	h.broadcaster.Publish(protocol.NewInvocationCompletedEvent(
		reqID, id, string(op), out.Success, string(out.ErrorKind), out.Elapsed.Milliseconds()))
	h.metrics.ObserveInvocation(id, string(op), out.Success, string(out.ErrorKind), out.Elapsed)

	writeJSON(w, http.StatusOK, assistant.Normalize(id, op, out))
}

// probeStatuses runs the availability probes and broadcasts a transition
// event for every assistant whose availability changed since the last probe.
func (h *Handlers) probeStatuses(r *http.Request) []assistant.Status {
	statuses := h.registry.Statuses(r.Context())
	reqID := GetRequestID(r.Context())

	h.availMu.Lock()
	defer h.availMu.Unlock()
	for _, st := range statuses {
		if prev, seen := h.lastSeen[st.ID]; seen && prev != st.Available {
			h.broadcaster.Publish(protocol.NewAssistantAvailabilityEvent(reqID, st.ID, st.Available))
		}
		h.lastSeen[st.ID] = st.Available
	}
	return statuses
}

// --- GET handlers ---

// assistantsResponse is the JSON shape for GET /api/v1/assistants.
type assistantsResponse struct {
	Assistants []assistant.Status `json:"assistants"`
	Default    string             `json:"default,omitempty"`
}

// GetAssistants handles GET /api/v1/assistants
func (h *Handlers) GetAssistants(w http.ResponseWriter, r *http.Request) {
	resp := assistantsResponse{Assistants: h.probeStatuses(r)}
	if def, err := h.registry.Default(); err == nil {
		resp.Default = def.Descriptor().ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// healthResponse is the JSON shape for GET /health.
type healthResponse struct {
	Status        string             `json:"status"`
	Version       string             `json:"version"`
	UptimeSeconds int64              `json:"uptime_seconds"`
	Assistants    []assistant.Status `json:"assistants"`
}

// GetHealth handles GET /health
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Assistants:    h.probeStatuses(r),
	})
}

// --- POST handlers ---

// chatRequest is the JSON body for free-form chat.
type chatRequest struct {
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	Assistant string `json:"assistant,omitempty"`
	Model     string `json:"model,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// PostChat handles POST /api/v1/chat
func (h *Handlers) PostChat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	h.invoke(w, r, body.Assistant, assistant.OpChat, func(ctx context.Context, ad assistant.Adapter) assistant.Outcome {
		return ad.Chat(ctx, assistant.ChatInput{
			Message:   body.Message,
			Context:   body.Context,
			Model:     body.Model,
			Workspace: body.Workspace,
		})
	})
}

// codeRequest is the JSON body for code explanation and modification.
type codeRequest struct {
	Code        string `json:"code"`
	Instruction string `json:"instruction,omitempty"`
	Language    string `json:"language,omitempty"`
	Assistant   string `json:"assistant,omitempty"`
	Model       string `json:"model,omitempty"`
	Workspace   string `json:"workspace,omitempty"`
}

func (r codeRequest) toInput() assistant.CodeInput {
	return assistant.CodeInput{
		Code:        r.Code,
		Instruction: r.Instruction,
		Language:    r.Language,
		Model:       r.Model,
		Workspace:   r.Workspace,
	}
}

// PostExplainCode handles POST /api/v1/code/explain
func (h *Handlers) PostExplainCode(w http.ResponseWriter, r *http.Request) {
	var body codeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	h.invoke(w, r, body.Assistant, assistant.OpExplainCode, func(ctx context.Context, ad assistant.Adapter) assistant.Outcome {
		return ad.ExplainCode(ctx, body.toInput())
	})
}

// PostModifyCode handles POST /api/v1/code/modify
func (h *Handlers) PostModifyCode(w http.ResponseWriter, r *http.Request) {
	var body codeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	h.invoke(w, r, body.Assistant, assistant.OpModifyCode, func(ctx context.Context, ad assistant.Adapter) assistant.Outcome {
		return ad.ModifyCode(ctx, body.toInput())
	})
}

// commitRequest is the JSON body for commit message generation. Diff may be
// empty, in which case the adapter collects the staged diff itself.
type commitRequest struct {
	Diff      string `json:"diff,omitempty"`
	Assistant string `json:"assistant,omitempty"`
	Model     string `json:"model,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// PostCommit handles POST /api/v1/git/commit
func (h *Handlers) PostCommit(w http.ResponseWriter, r *http.Request) {
	var body commitRequest
	// An absent body is fine here (the adapter collects the staged diff), but
	// a present body must be read even when the length is unknown (chunked).
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	h.invoke(w, r, body.Assistant, assistant.OpCommit, func(ctx context.Context, ad assistant.Adapter) assistant.Outcome {
		return ad.GenerateCommitMessage(ctx, assistant.CommitInput{
			Diff:      body.Diff,
			Model:     body.Model,
			Workspace: body.Workspace,
		})
	})
}
