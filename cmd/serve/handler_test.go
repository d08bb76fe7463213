package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/internal/app"
	"github.com/spetersoncode/pausable/internal/config"
	"github.com/spetersoncode/pausable/session"
)

// orderModel orders 10 containers, then reports the tool status.
type orderModel struct{}

func (orderModel) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	last := messages[len(messages)-1]
	if last.Role == ai.RoleTool && len(last.ToolResults) > 0 {
		var res struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal([]byte(last.ToolResults[0].Content), &res); err != nil {
			return nil, err
		}
		return &ai.Response{Content: "Order " + res.Status}, nil
	}
	return &ai.Response{ToolCalls: []ai.ToolCall{{
		ID:        "call_1",
		Name:      "place_shipping_order",
		Arguments: `{"num_containers":10,"destination":"Rotterdam"}`,
	}}}, nil
}

func (orderModel) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	return nil, errors.New("not supported")
}

type sseEvent struct {
	Type         string `json:"type"`
	ToolCallID   string `json:"toolCallId"`
	ToolCallName string `json:"toolCallName"`
	Delta        string `json:"delta"`
}

func parseSSE(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()
	var out []sseEvent
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev sseEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	r, err := app.NewShippingRunner(config.Default(), orderModel{}, session.NewInMemoryService())
	require.NoError(t, err)
	return NewHandler(r, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes()
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAgentPauseAndApprove(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h, "/api/agent", `{"thread_id":"t1","run_id":"r1","messages":[{"id":"m1","role":"user","content":"Ship 10 containers to Rotterdam"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var approvalID string
	events := parseSSE(t, rec.Body)
	for _, ev := range events {
		if ev.Type == "TOOL_CALL_START" && ev.ToolCallName == "request_confirmation" {
			approvalID = ev.ToolCallID
		}
	}
	require.NotEmpty(t, approvalID, "stream should carry a confirmation request")
	assert.Equal(t, "RUN_STARTED", events[0].Type)
	assert.Equal(t, "RUN_FINISHED", events[len(events)-1].Type)

	body := fmt.Sprintf(`{"thread_id":"t1","run_id":"r2","messages":[{"id":"m2","role":"tool","toolCallId":%q,"content":"{\"confirmed\":true}"}]}`, approvalID)
	rec = post(h, "/api/agent", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var text string
	for _, ev := range parseSSE(t, rec.Body) {
		if ev.Type == "TEXT_MESSAGE_CONTENT" {
			text += ev.Delta
		}
	}
	assert.Equal(t, "Order approved", text)
}

func TestApprovalEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := post(h, "/api/agent", `{"thread_id":"t2","messages":[{"id":"m1","role":"user","content":"Ship 10 containers to Rotterdam"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var approvalID string
	for _, ev := range parseSSE(t, rec.Body) {
		if ev.ToolCallName == "request_confirmation" {
			approvalID = ev.ToolCallID
		}
	}
	require.NotEmpty(t, approvalID)

	rec = post(h, "/api/approval?thread_id=t2", fmt.Sprintf(`{"approvalId":%q,"approved":false}`, approvalID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order rejected")

	rec = post(h, "/api/approval?thread_id=t2", fmt.Sprintf(`{"approvalId":%q,"approved":true}`, approvalID))
	assert.Equal(t, http.StatusConflict, rec.Code, "a decided approval cannot be resumed again")
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"invalid json", "/api/agent", `{`, http.StatusBadRequest},
		{"no messages", "/api/agent", `{"thread_id":"t"}`, http.StatusBadRequest},
		{"unknown approval", "/api/approval?thread_id=t3", `{"approvalId":"appr-missing","approved":true}`, http.StatusConflict},
		{"approval without thread", "/api/approval", `{"approvalId":"a","approved":true}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, post(h, tt.path, tt.body).Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/agent", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
