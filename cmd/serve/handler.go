package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	aguievents "github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/agui"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/runner"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/shipping"
)

// userHeader names the request header carrying the user id.
const userHeader = "X-User-ID"

// Handler serves AG-UI runs of the shipping app.
type Handler struct {
	runner *runner.Runner
	logger *slog.Logger
}

// NewHandler creates a handler over r.
func NewHandler(r *runner.Runner, logger *slog.Logger) *Handler {
	return &Handler{runner: r, logger: logger}
}

// Routes returns the HTTP routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/agent", corsMiddleware(http.HandlerFunc(h.agent)))
	mux.Handle("/api/approval", corsMiddleware(http.HandlerFunc(h.approval)))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

// agent handles AG-UI run requests.
func (h *Handler) agent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", "error", err)
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	prepared, err := input.Prepare()
	if err != nil {
		h.logger.Warn("invalid input", "run_id", input.RunID, "thread_id", input.ThreadID, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.stream(w, r, prepared.ThreadID, prepared.RunID, prepared.Content)
}

// approval handles decisions posted outside the message list. The thread id
// is taken from the thread_id query parameter.
func (h *Handler) approval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		http.Error(w, "thread_id is required", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input, err := agui.ParseApprovalInput(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.stream(w, r, threadID, "", input.ToContent())
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request, threadID, runID string, msg *event.Content) {
	start := time.Now()
	ctx := r.Context()
	userID := r.Header.Get(userHeader)
	if userID == "" {
		userID = shipping.DefaultUserID
	}

	sessionID, err := h.ensureSession(ctx, userID, threadID)
	if err != nil {
		h.logger.Error("session lookup failed", "thread_id", threadID, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mapper := agui.NewMapper(sessionID, runID)
	log := h.logger.With("run_id", mapper.RunID(), "thread_id", sessionID, "user_id", userID)

	events, err := h.runner.Run(ctx, userID, sessionID, msg)
	if err != nil {
		log.Warn("run rejected", "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var count int
	out := mapper.MapStream(events)
	for ev := range out {
		count++
		if err := writeSSE(w, flusher, ev); err != nil {
			log.Error("failed to write SSE event", "error", err, "event_type", ev.Type())
			for range out {
			}
			return
		}
	}
	log.Info("request completed", "duration_ms", time.Since(start).Milliseconds(), "events_sent", count)
}

// ensureSession returns the session for threadID, creating it when missing.
func (h *Handler) ensureSession(ctx context.Context, userID, threadID string) (string, error) {
	sessions := h.runner.Sessions()
	appName := h.runner.App().Name
	if threadID == "" {
		threadID = shipping.NewSessionID()
	}
	if _, err := sessions.Get(ctx, appName, userID, threadID); err == nil {
		return threadID, nil
	} else if !errors.Is(err, session.ErrSessionNotFound) {
		return "", err
	}
	sess, err := sessions.Create(ctx, appName, userID, threadID)
	if errors.Is(err, session.ErrSessionExists) {
		return threadID, nil
	}
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

// statusFor maps errors returned before a stream starts to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ai.ErrCorrelation):
		return http.StatusConflict
	case errors.Is(err, ai.ErrConfiguration):
		return http.StatusInternalServerError
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// writeSSE writes an AG-UI event in SSE format.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev aguievents.Event) error {
	data, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), string(data)); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
