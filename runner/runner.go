package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/approval"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/internal/tracing"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/tool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UserAuthor is the author of events that carry caller input.
const UserAuthor = "user"

// Agent is a model persona with its tools.
type Agent struct {
	Name        string
	Model       string
	Instruction string
	Tools       *tool.Registry
}

// App binds an agent to a name. Only resumable apps can pause for confirmation.
type App struct {
	Name      string
	Agent     Agent
	Resumable bool
}

// Runner executes invocations of one app.
type Runner struct {
	app            App
	client         ai.ChatProvider
	sessions       session.Service
	tracker        *approval.Tracker
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	maxSteps       int
	timeout        time.Duration
	handlerTimeout time.Duration

	// locks serializes resumes of the same invocation.
	locks sync.Map
}

// New creates a runner for app.
func New(app App, client ai.ChatProvider, sessions session.Service, opts ...Option) *Runner {
	r := &Runner{
		app:            app,
		client:         client,
		sessions:       sessions,
		tracker:        approval.NewTracker(),
		logger:         slog.Default(),
		maxSteps:       10,
		handlerTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.app.Agent.Tools == nil {
		r.app.Agent.Tools = tool.NewRegistry()
	}
	r.tracer = tracing.Tracer(r.tracerProvider)
	return r
}

// App returns the app the runner executes.
func (r *Runner) App() App { return r.app }

// Tracker returns the approval tracker.
func (r *Runner) Tracker() *approval.Tracker { return r.tracker }

// Sessions returns the session service.
func (r *Runner) Sessions() session.Service { return r.sessions }

// invocation is the mutable state of one running invocation.
type invocation struct {
	id      string
	sess    *session.Session
	history []ai.Message
	steps   int
	usage   ai.Usage
	created time.Time
	out     chan<- event.Event
}

// Run starts a new invocation for msg in an existing session.
//
// A message that only carries confirmation responses is routed to the
// suspended invocation that asked for them, as if Resume had been called.
func (r *Runner) Run(ctx context.Context, userID, sessionID string, msg *event.Content) (<-chan event.Event, error) {
	if msg == nil || len(msg.Parts) == 0 {
		return nil, ErrEmptyMessage
	}
	sess, err := r.sessions.Get(ctx, r.app.Name, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if decisions := msg.Decisions(); len(decisions) > 0 {
		invocationID, ok := findInvocation(sess, decisions[0].ApprovalID)
		if !ok {
			return nil, &ai.CorrelationError{ApprovalID: decisions[0].ApprovalID, Reason: "no confirmation request in session"}
		}
		return r.resume(ctx, sess, invocationID, msg, decisions)
	}

	text := contentText(msg)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	out := event.NewChannel()
	inv := &invocation{
		id:      "e-" + uuid.NewString(),
		sess:    sess,
		history: append(priorHistory(sess), ai.Message{Role: ai.RoleUser, Content: text}),
		created: time.Now(),
		out:     out,
	}

	go func() {
		defer close(out)
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		ctx, span := r.startInvocation(ctx, inv, false)

		r.logger.Info("invocation started", "app", r.app.Name, "session_id", sess.ID, "invocation_id", inv.id)
		if !r.emit(ctx, inv, event.New(inv.id, UserAuthor, msg)) {
			r.finish(ctx, inv, span, false, ctx.Err())
			return
		}
		suspended, err := r.loop(ctx, inv)
		r.finish(ctx, inv, span, suspended, err)
	}()

	return out, nil
}

// Resume continues a suspended invocation with the confirmation decisions in msg.
//
// Every decision must name a pending approval of the invocation; otherwise a
// *pausable.CorrelationError is returned and nothing is streamed. Each
// approval can be decided once.
func (r *Runner) Resume(ctx context.Context, userID, sessionID, invocationID string, msg *event.Content) (<-chan event.Event, error) {
	decisions := msg.Decisions()
	if len(decisions) == 0 {
		return nil, &ai.CorrelationError{InvocationID: invocationID, Reason: "message carries no confirmation response"}
	}
	sess, err := r.sessions.Get(ctx, r.app.Name, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return r.resume(ctx, sess, invocationID, msg, decisions)
}

func (r *Runner) resume(ctx context.Context, sess *session.Session, invocationID string, msg *event.Content, decisions []event.Decision) (<-chan event.Event, error) {
	if !r.app.Resumable {
		return nil, ai.NewConfigurationError("resumable", "app %q is not resumable", r.app.Name)
	}

	release := sync.OnceFunc(r.lock(invocationID))
	snap, confs, err := r.decide(ctx, sess, invocationID, decisions)
	if err != nil {
		release()
		return nil, err
	}

	out := event.NewChannel()
	inv := &invocation{
		id:      invocationID,
		sess:    sess,
		history: snap.History,
		steps:   snap.Steps,
		usage:   snap.Usage,
		created: snap.CreatedAt,
		out:     out,
	}

	go func() {
		defer close(out)
		defer release()
		ctx, cancel := r.withTimeout(ctx)
		defer cancel()
		ctx, span := r.startInvocation(ctx, inv, true)

		r.logger.Info("invocation resumed", "app", r.app.Name, "session_id", sess.ID, "invocation_id", inv.id, "decisions", len(decisions))
		if !r.emit(ctx, inv, event.New(inv.id, UserAuthor, msg)) {
			r.finish(ctx, inv, span, false, ctx.Err())
			return
		}
		suspended, err := r.continueFrom(ctx, inv, snap, confs, release)
		r.finish(ctx, inv, span, suspended, err)
	}()

	return out, nil
}

// decide validates decisions against the stored snapshot and records them.
func (r *Runner) decide(ctx context.Context, sess *session.Session, invocationID string, decisions []event.Decision) (session.Invocation, map[string]approval.Confirmation, error) {
	snap, err := r.sessions.LoadInvocation(ctx, sess, invocationID)
	if errors.Is(err, session.ErrInvocationNotFound) {
		return snap, nil, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: decisions[0].ApprovalID, Reason: "no suspended invocation"}
	}
	if err != nil {
		return snap, nil, err
	}

	seen := make(map[string]bool, len(decisions))
	for _, d := range decisions {
		if seen[d.ApprovalID] {
			return snap, nil, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: d.ApprovalID, Reason: "approval answered twice in one message"}
		}
		seen[d.ApprovalID] = true
		if _, ok := snap.PendingCall(d.ApprovalID); !ok {
			return snap, nil, &ai.CorrelationError{InvocationID: invocationID, ApprovalID: d.ApprovalID, Reason: "approval does not belong to invocation"}
		}
	}

	// A tracker that never saw the invocation (another process suspended it)
	// is seeded from the snapshot.
	for _, p := range snap.Pending {
		if r.tracker.State(invocationID, p.ApprovalID) == approval.StateUnstarted {
			if _, err := r.tracker.Suspend(invocationID, approval.Descriptor{ID: p.ApprovalID, Hint: p.Hint, Payload: p.Payload}); err != nil {
				return snap, nil, err
			}
		}
	}

	confs := make(map[string]approval.Confirmation, len(decisions))
	for _, d := range decisions {
		conf, err := r.tracker.Decide(invocationID, d.ApprovalID, d.Confirmed)
		if err != nil {
			return snap, nil, err
		}
		confs[d.ApprovalID] = conf
		r.logger.Info("approval decided", "invocation_id", invocationID, "approval_id", d.ApprovalID, "approved", d.Confirmed)
	}
	return snap, confs, nil
}

func (r *Runner) lock(invocationID string) func() {
	v, _ := r.locks.LoadOrStore(invocationID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) startInvocation(ctx context.Context, inv *invocation, resumed bool) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "runner.invocation", trace.WithAttributes(
		attribute.String("app.name", r.app.Name),
		attribute.String("session.id", inv.sess.ID),
		attribute.String("invocation.id", inv.id),
		attribute.Bool("invocation.resumed", resumed),
	))
}

// emit records e in the session and delivers it to the caller.
func (r *Runner) emit(ctx context.Context, inv *invocation, e event.Event) bool {
	if err := r.sessions.AppendEvent(ctx, inv.sess, e); err != nil {
		r.logger.Warn("failed to record event", "invocation_id", inv.id, "event_id", e.ID, "error", err)
	}
	return event.Send(ctx, inv.out, e)
}

func (r *Runner) finish(ctx context.Context, inv *invocation, span trace.Span, suspended bool, err error) {
	span.SetAttributes(
		attribute.Int("invocation.steps", inv.steps),
		attribute.Bool("invocation.suspended", suspended && err == nil),
	)
	defer tracing.End(span, err)

	if suspended && err == nil {
		r.logger.Info("invocation paused", "invocation_id", inv.id, "steps", inv.steps)
		return
	}

	r.tracker.Forget(inv.id)
	r.locks.Delete(inv.id)
	if derr := r.sessions.DeleteInvocation(context.WithoutCancel(ctx), inv.sess, inv.id); derr != nil {
		r.logger.Warn("failed to delete invocation snapshot", "invocation_id", inv.id, "error", derr)
	}

	if err != nil {
		r.logger.Error("invocation failed", "invocation_id", inv.id, "steps", inv.steps, "error", err)
		final := event.NewError(inv.id, r.app.Agent.Name, err)
		select {
		case inv.out <- final:
		default:
			event.Send(ctx, inv.out, final)
		}
		return
	}
	r.logger.Info("invocation completed", "invocation_id", inv.id, "steps", inv.steps,
		"input_tokens", inv.usage.InputTokens, "output_tokens", inv.usage.OutputTokens)
}

// Collect drains events and returns them with the error carried by the final
// event, if any.
func Collect(events <-chan event.Event) ([]event.Event, error) {
	var all []event.Event
	var err error
	for ev := range events {
		if ev.Err != nil {
			err = ev.Err
			continue
		}
		all = append(all, ev)
	}
	return all, err
}

func notResumable(call ai.ToolCall, appName string) ai.ToolResult {
	return ai.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    fmt.Sprintf("tool %s requires confirmation but app %q is not resumable", call.Name, appName),
		IsError:    true,
	}
}
