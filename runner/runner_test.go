package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/approval"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// mockProvider implements ai.ChatProvider with scripted responses.
type mockProvider struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     [][]ai.Message
}

type mockResponse struct {
	content   string
	toolCalls []ai.ToolCall
	err       error
}

func (m *mockProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := make([]ai.Message, len(messages))
	copy(history, messages)
	m.calls = append(m.calls, history)

	if len(m.calls) > len(m.responses) {
		return &ai.Response{Content: "No more responses"}, nil
	}
	resp := m.responses[len(m.calls)-1]
	if resp.err != nil {
		return nil, resp.err
	}
	return &ai.Response{
		Content:   resp.content,
		ToolCalls: resp.toolCalls,
		Usage:     ai.Usage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

func (m *mockProvider) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	return nil, errors.New("streaming not supported by mock")
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockProvider) lastCall() []ai.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

type orderArgs struct {
	NumContainers int    `json:"num_containers" required:"true"`
	Destination   string `json:"destination" required:"true"`
}

func gatedTools() *tool.Registry {
	ctrl := approval.NewController(approval.DefaultThreshold)
	return tool.NewRegistry().Add(
		tool.Func("place_order", "Place an order", func(ctx context.Context, args orderArgs) (string, error) {
			conf := approval.Absent()
			tc, ok := tool.FromContext(ctx)
			if ok {
				conf = tc.Confirmation()
			}
			out, err := ctrl.Evaluate(approval.Request{Quantity: args.NumContainers, Destination: args.Destination}, conf)
			if err != nil {
				return "", err
			}
			if out.Descriptor != nil {
				if err := tc.RequestConfirmation(*out.Descriptor); err != nil {
					return "", err
				}
			}
			return tool.JSON(out)
		}),
		tool.Func("lookup", "Look up a port", func(ctx context.Context, args struct {
			Port string `json:"port"`
		}) (string, error) {
			return `{"port":"` + args.Port + `","open":true}`, nil
		}),
	)
}

func orderCall(id string, n int) ai.ToolCall {
	return ai.ToolCall{
		ID:        id,
		Name:      "place_order",
		Arguments: fmt.Sprintf(`{"num_containers":%d,"destination":"Rotterdam"}`, n),
	}
}

func newTestRunner(t *testing.T, provider *mockProvider, resumable bool, opts ...Option) (*Runner, *session.Session) {
	t.Helper()
	sessions := session.NewInMemoryService()
	sess, err := sessions.Create(context.Background(), "test_app", "u", "s1")
	require.NoError(t, err)

	app := App{
		Name:      "test_app",
		Resumable: resumable,
		Agent: Agent{
			Name:        "test_agent",
			Instruction: "Place orders.",
			Tools:       gatedTools(),
		},
	}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(app, provider, sessions, opts...), sess
}

func run(t *testing.T, r *Runner, text string) []event.Event {
	t.Helper()
	events, err := r.Run(context.Background(), "u", "s1", event.NewUserMessage(text))
	require.NoError(t, err)
	all, err := Collect(events)
	require.NoError(t, err)
	return all
}

func confirmationRequest(t *testing.T, events []event.Event) event.ConfirmationRequest {
	t.Helper()
	for _, ev := range events {
		if reqs := ev.ConfirmationRequests(); len(reqs) > 0 {
			return reqs[0]
		}
	}
	t.Fatal("no confirmation request in events")
	return event.ConfirmationRequest{}
}

func functionResponse(t *testing.T, events []event.Event, name string) event.FunctionResponse {
	t.Helper()
	for _, ev := range events {
		for _, resp := range ev.FunctionResponses() {
			if resp.Name == name {
				return resp
			}
		}
	}
	t.Fatalf("no %s response in events", name)
	return event.FunctionResponse{}
}

func TestRunWithoutTools(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{{content: "Hello!"}}}
	r, sess := newTestRunner(t, provider, true)

	events := run(t, r, "Hi")
	require.Len(t, events, 2)
	assert.Equal(t, UserAuthor, events[0].Author)
	assert.Equal(t, "test_agent", events[1].Author)
	assert.True(t, events[1].IsFinalResponse())
	assert.Equal(t, "Hello!", events[1].Text())
	assert.Equal(t, events[0].InvocationID, events[1].InvocationID)
	assert.Regexp(t, `^e-`, events[0].InvocationID)
	require.NotNil(t, events[1].Usage)
	assert.Equal(t, 10, events[1].Usage.InputTokens)

	stored, err := r.Sessions().Get(context.Background(), "test_app", "u", sess.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Events, 2)
}

func TestRunAutoApproved(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 3)}},
		{content: "Order placed."},
	}}
	r, _ := newTestRunner(t, provider, true)

	events := run(t, r, "Ship 3 containers to Rotterdam")
	resp := functionResponse(t, events, "place_order")
	assert.Equal(t, "approved", resp.Response["status"])
	assert.Equal(t, "ORD-3-AUTO", resp.Response["order_id"])
	assert.Equal(t, "Order placed.", events[len(events)-1].Text())

	for _, ev := range events {
		assert.Empty(t, ev.ConfirmationRequests())
	}
	assert.Equal(t, 2, provider.callCount())
}

func TestRunSuspendsAndResumes(t *testing.T) {
	tests := []struct {
		name       string
		approved   bool
		wantStatus string
		wantOrder  string
	}{
		{name: "approved", approved: true, wantStatus: "approved", wantOrder: "ORD-10-HUMAN"},
		{name: "rejected", approved: false, wantStatus: "rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{responses: []mockResponse{
				{toolCalls: []ai.ToolCall{orderCall("call_1", 10)}},
				{content: "Done."},
			}}
			r, _ := newTestRunner(t, provider, true)
			ctx := context.Background()

			events := run(t, r, "Ship 10 containers to Rotterdam")
			require.Len(t, events, 3)
			last := events[2]
			req := confirmationRequest(t, events)
			assert.Equal(t, []string{req.ApprovalID}, last.LongRunningToolIDs)
			assert.Regexp(t, `^appr-`, req.ApprovalID)
			assert.Equal(t, events[0].InvocationID, req.InvocationID)
			assert.Equal(t, "Large order: 10 containers to Rotterdam. Do you want to approve?", req.Hint)
			assert.Equal(t, map[string]any{"num_containers": 10, "destination": "Rotterdam"}, req.Payload)
			assert.Equal(t, "place_order", req.OriginalCall.Name)
			assert.Equal(t, "call_1", req.OriginalCall.ID)
			assert.Equal(t, 1, provider.callCount())
			assert.Equal(t, approval.StatePending, r.Tracker().State(req.InvocationID, req.ApprovalID))

			resumed, err := r.Resume(ctx, "u", "s1", req.InvocationID, event.NewConfirmationResponse(req.ApprovalID, tt.approved))
			require.NoError(t, err)
			after, err := Collect(resumed)
			require.NoError(t, err)

			resp := functionResponse(t, after, "place_order")
			assert.Equal(t, tt.wantStatus, resp.Response["status"])
			if tt.wantOrder != "" {
				assert.Equal(t, tt.wantOrder, resp.Response["order_id"])
			} else {
				assert.NotContains(t, resp.Response, "order_id")
			}
			for _, ev := range after {
				assert.Equal(t, req.InvocationID, ev.InvocationID)
			}
			assert.Equal(t, "Done.", after[len(after)-1].Text())

			history := provider.lastCall()
			toolMsg := history[len(history)-1]
			require.Equal(t, ai.RoleTool, toolMsg.Role)
			require.Len(t, toolMsg.ToolResults, 1)
			assert.Equal(t, "call_1", toolMsg.ToolResults[0].ToolCallID)
			assert.Contains(t, toolMsg.ToolResults[0].Content, tt.wantStatus)

			assert.Equal(t, approval.StateUnstarted, r.Tracker().State(req.InvocationID, req.ApprovalID))

			_, err = r.Resume(ctx, "u", "s1", req.InvocationID, event.NewConfirmationResponse(req.ApprovalID, true))
			assert.ErrorIs(t, err, ai.ErrCorrelation)
		})
	}
}

func TestResumeCorrelationErrors(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 10)}},
	}}
	r, _ := newTestRunner(t, provider, true)
	ctx := context.Background()
	req := confirmationRequest(t, run(t, r, "Ship 10 containers"))

	tests := []struct {
		name         string
		invocationID string
		msg          *event.Content
	}{
		{name: "unknown invocation", invocationID: "e-unknown", msg: event.NewConfirmationResponse(req.ApprovalID, true)},
		{name: "approval of another invocation", invocationID: req.InvocationID, msg: event.NewConfirmationResponse("appr-other", true)},
		{name: "no decision", invocationID: req.InvocationID, msg: event.NewUserMessage("yes")},
		{name: "nil message", invocationID: req.InvocationID, msg: nil},
		{
			name:         "same approval twice",
			invocationID: req.InvocationID,
			msg: &event.Content{Role: ai.RoleUser, Parts: append(
				event.NewConfirmationResponse(req.ApprovalID, true).Parts,
				event.NewConfirmationResponse(req.ApprovalID, false).Parts...,
			)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resume(ctx, "u", "s1", tt.invocationID, tt.msg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ai.ErrCorrelation)
			var corr *ai.CorrelationError
			assert.ErrorAs(t, err, &corr)
		})
	}

	assert.Equal(t, approval.StatePending, r.Tracker().State(req.InvocationID, req.ApprovalID))
}

func TestResumeIsExactlyOnce(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 10)}},
		{content: "Done."},
	}}
	r, _ := newTestRunner(t, provider, true)
	ctx := context.Background()
	req := confirmationRequest(t, run(t, r, "Ship 10 containers to Rotterdam"))

	const attempts = 20
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		resumed     int
		correlation int
		other       []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stream, err := r.Resume(ctx, "u", "s1", req.InvocationID, event.NewConfirmationResponse(req.ApprovalID, true))
			if err == nil {
				_, err = Collect(stream)
				if err == nil {
					mu.Lock()
					resumed++
					mu.Unlock()
					return
				}
			}
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ai.ErrCorrelation) {
				correlation++
				return
			}
			other = append(other, err)
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, resumed)
	assert.Equal(t, attempts-1, correlation)
	assert.Equal(t, 2, provider.callCount())
	assert.Equal(t, approval.StateUnstarted, r.Tracker().State(req.InvocationID, req.ApprovalID))
}

func TestRunRoutesDecisionToInvocation(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 8)}},
		{content: "Approved and placed."},
	}}
	r, _ := newTestRunner(t, provider, true)
	req := confirmationRequest(t, run(t, r, "Ship 8 containers"))

	events, err := r.Run(context.Background(), "u", "s1", event.NewConfirmationResponse(req.ApprovalID, true))
	require.NoError(t, err)
	after, err := Collect(events)
	require.NoError(t, err)

	assert.Equal(t, "ORD-8-HUMAN", functionResponse(t, after, "place_order").Response["order_id"])
	assert.Equal(t, req.InvocationID, after[0].InvocationID)

	_, err = r.Run(context.Background(), "u", "s1", event.NewConfirmationResponse("appr-missing", true))
	assert.ErrorIs(t, err, ai.ErrCorrelation)
}

func TestRunNotResumable(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 10)}},
		{content: "Could not place the order."},
	}}
	r, _ := newTestRunner(t, provider, false)

	events := run(t, r, "Ship 10 containers")
	for _, ev := range events {
		assert.Empty(t, ev.ConfirmationRequests())
	}
	resp := functionResponse(t, events, "place_order")
	assert.Contains(t, resp.Response["error"], "not resumable")
	assert.Equal(t, "Could not place the order.", events[len(events)-1].Text())

	_, err := r.Resume(context.Background(), "u", "s1", events[0].InvocationID, event.NewConfirmationResponse("appr-1", true))
	assert.ErrorIs(t, err, ai.ErrConfiguration)
}

func TestSuspendKeepsCompletedResults(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{
			orderCall("call_1", 12),
			{ID: "call_2", Name: "lookup", Arguments: `{"port":"Rotterdam"}`},
		}},
		{content: "All done."},
	}}
	r, _ := newTestRunner(t, provider, true)

	events := run(t, r, "Ship 12 containers and check the port")
	lookup := functionResponse(t, events, "lookup")
	assert.Equal(t, true, lookup.Response["open"])
	req := confirmationRequest(t, events)

	resumed, err := r.Resume(context.Background(), "u", "s1", req.InvocationID, event.NewConfirmationResponse(req.ApprovalID, true))
	require.NoError(t, err)
	_, err = Collect(resumed)
	require.NoError(t, err)

	history := provider.lastCall()
	toolMsg := history[len(history)-1]
	require.Len(t, toolMsg.ToolResults, 2)
	assert.Equal(t, "call_1", toolMsg.ToolResults[0].ToolCallID)
	assert.Equal(t, "call_2", toolMsg.ToolResults[1].ToolCallID)
}

func TestResumeWithOutstandingApprovals(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 10), orderCall("call_2", 20)}},
		{content: "Both handled."},
	}}
	r, _ := newTestRunner(t, provider, true)
	ctx := context.Background()

	events := run(t, r, "Two large orders")
	last := events[len(events)-1]
	reqs := last.ConfirmationRequests()
	require.Len(t, reqs, 2)
	assert.Len(t, last.LongRunningToolIDs, 2)
	invocationID := reqs[0].InvocationID

	first, err := r.Resume(ctx, "u", "s1", invocationID, event.NewConfirmationResponse(reqs[0].ApprovalID, true))
	require.NoError(t, err)
	_, err = Collect(first)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())
	assert.Equal(t, approval.StatePending, r.Tracker().State(invocationID, reqs[1].ApprovalID))

	second, err := r.Resume(ctx, "u", "s1", invocationID, event.NewConfirmationResponse(reqs[1].ApprovalID, false))
	require.NoError(t, err)
	after, err := Collect(second)
	require.NoError(t, err)
	assert.Equal(t, "rejected", functionResponse(t, after, "place_order").Response["status"])
	assert.Equal(t, 2, provider.callCount())

	history := provider.lastCall()
	require.Len(t, history[len(history)-1].ToolResults, 2)
}

func TestRunFailures(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		provider := &mockProvider{responses: []mockResponse{{err: ai.NewPermanentError("bad request", 400, nil)}}}
		r, _ := newTestRunner(t, provider, true)

		events, err := r.Run(context.Background(), "u", "s1", event.NewUserMessage("hi"))
		require.NoError(t, err)
		_, err = Collect(events)
		assert.True(t, ai.IsPermanent(err))
	})

	t.Run("max steps", func(t *testing.T) {
		provider := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{orderCall("call_1", 1)}},
			{toolCalls: []ai.ToolCall{orderCall("call_2", 1)}},
			{toolCalls: []ai.ToolCall{orderCall("call_3", 1)}},
		}}
		r, _ := newTestRunner(t, provider, true, WithMaxSteps(2))

		events, err := r.Run(context.Background(), "u", "s1", event.NewUserMessage("loop"))
		require.NoError(t, err)
		_, err = Collect(events)
		assert.ErrorIs(t, err, ErrMaxSteps)
		assert.Equal(t, 2, provider.callCount())
	})

	t.Run("empty message", func(t *testing.T) {
		r, _ := newTestRunner(t, &mockProvider{}, true)
		_, err := r.Run(context.Background(), "u", "s1", event.NewUserMessage("  "))
		assert.ErrorIs(t, err, ErrEmptyMessage)
		_, err = r.Run(context.Background(), "u", "s1", nil)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("unknown session", func(t *testing.T) {
		r, _ := newTestRunner(t, &mockProvider{}, true)
		_, err := r.Run(context.Background(), "u", "missing", event.NewUserMessage("hi"))
		assert.ErrorIs(t, err, session.ErrSessionNotFound)
	})
}

func TestRunUsesPriorTurns(t *testing.T) {
	provider := &mockProvider{responses: []mockResponse{{content: "first answer"}, {content: "second answer"}}}
	r, _ := newTestRunner(t, provider, true)

	run(t, r, "first question")
	run(t, r, "second question")

	history := provider.lastCall()
	require.Len(t, history, 3)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, ai.RoleAssistant, history[1].Role)
	assert.Equal(t, "second question", history[2].Content)
}

func TestRunRecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	provider := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{orderCall("call_1", 2)}},
		{content: "ok"},
	}}
	r, _ := newTestRunner(t, provider, true, WithTracerProvider(tp))

	run(t, r, "Ship 2 containers")

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "runner.invocation")
	assert.Contains(t, names, "runner.tool_call")
}
