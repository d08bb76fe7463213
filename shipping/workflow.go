package shipping

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/runner"
	"github.com/spetersoncode/pausable/session"
)

// DefaultUserID is the user the workflow runs as unless configured otherwise.
const DefaultUserID = "test_user"

// Decider answers a paused order.
type Decider func(ctx context.Context, info ApprovalInfo) (bool, error)

// AlwaysApprove approves every paused order.
func AlwaysApprove(context.Context, ApprovalInfo) (bool, error) { return true, nil }

// AlwaysReject rejects every paused order.
func AlwaysReject(context.Context, ApprovalInfo) (bool, error) { return false, nil }

// Fixed returns a Decider that always gives the same answer.
func Fixed(approved bool) Decider {
	return func(context.Context, ApprovalInfo) (bool, error) { return approved, nil }
}

// Printer renders the progress of a workflow run.
type Printer interface {
	Query(sessionID, query string)
	Paused(info ApprovalInfo)
	Decision(approved bool)
	AgentText(text string)
	Done()
}

// NopPrinter discards all output.
type NopPrinter struct{}

func (NopPrinter) Query(string, string) {}
func (NopPrinter) Paused(ApprovalInfo)  {}
func (NopPrinter) Decision(bool)        {}
func (NopPrinter) AgentText(string)     {}
func (NopPrinter) Done()                {}

// TextPrinter writes plain progress lines to W.
type TextPrinter struct {
	W io.Writer
}

var rule = strings.Repeat("=", 60)

func (p TextPrinter) Query(sessionID, query string) {
	fmt.Fprintf(p.W, "\n%s\nUser > %s\n", rule, query)
}

func (p TextPrinter) Paused(info ApprovalInfo) {
	fmt.Fprintf(p.W, "Pausing for approval: %s\n", info.Hint)
}

func (p TextPrinter) Decision(approved bool) {
	if approved {
		fmt.Fprintln(p.W, "Human Decision: APPROVE")
		return
	}
	fmt.Fprintln(p.W, "Human Decision: REJECT")
}

func (p TextPrinter) AgentText(text string) {
	fmt.Fprintf(p.W, "Agent > %s\n", text)
}

func (p TextPrinter) Done() {
	fmt.Fprintln(p.W, rule)
}

// Report summarizes one workflow run.
type Report struct {
	SessionID    string
	InvocationID string
	// Paused is true when the run stopped for approval at least once.
	Paused bool
	// Approved is the last decision given, nil when no decision was needed.
	Approved *bool
	// Decisions maps each answered approval id to its decision.
	Decisions map[string]bool
	// Result is the last order record the tool returned.
	Result *Result
	// Responses are the agent's text replies, in order.
	Responses []string
	Events    []event.Event
}

// Workflow runs one shipping request end to end: a fresh session, the
// initial run, and a resume with the decider's answer when the order pauses.
type Workflow struct {
	Runner *runner.Runner
	UserID string
	// Sessions creates the per-run session; it must be the runner's store.
	// Nil uses Runner.Sessions().
	Sessions session.Service
	Printer  Printer
}

// NewWorkflow creates a workflow over r that prints nothing.
func NewWorkflow(r *runner.Runner) *Workflow {
	return &Workflow{Runner: r, UserID: DefaultUserID, Sessions: r.Sessions(), Printer: NopPrinter{}}
}

// NewSessionID returns a fresh id of the form order_<8 hex>.
func NewSessionID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return "order_" + hex.EncodeToString(b[:])
}

// Run places query in a new session. Every confirmation request the
// invocation raises is put to the decider once and answered by a resume, until
// the invocation reaches a terminal state.
func (w *Workflow) Run(ctx context.Context, query string, decide Decider) (Report, error) {
	printer := w.Printer
	if printer == nil {
		printer = NopPrinter{}
	}
	userID := w.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	appName := w.Runner.App().Name

	sessions := w.Sessions
	if sessions == nil {
		sessions = w.Runner.Sessions()
	}
	sess, err := sessions.Create(ctx, appName, userID, NewSessionID())
	if err != nil {
		return Report{}, fmt.Errorf("create session: %w", err)
	}
	report := Report{SessionID: sess.ID}
	printer.Query(sess.ID, query)

	stream, err := w.Runner.Run(ctx, userID, sess.ID, event.NewUserMessage(query))
	if err != nil {
		return report, err
	}
	events, err := runner.Collect(stream)
	report.Events = append(report.Events, events...)
	if err != nil {
		return report, err
	}
	if len(events) > 0 {
		report.InvocationID = events[0].InvocationID
	}

	queue, err := PendingApprovals(events)
	if err != nil {
		return report, err
	}
	for len(queue) > 0 {
		info := queue[0]
		queue = queue[1:]
		if _, done := report.Decisions[info.ApprovalID]; done {
			continue
		}
		report.Paused = true
		printer.Paused(info)

		approved, err := decide(ctx, info)
		if err != nil {
			return report, fmt.Errorf("decide %s: %w", info.ApprovalID, err)
		}
		if report.Decisions == nil {
			report.Decisions = make(map[string]bool)
		}
		report.Decisions[info.ApprovalID] = approved
		report.Approved = &approved
		printer.Decision(approved)

		stream, err := w.Runner.Resume(ctx, userID, sess.ID, info.InvocationID, NewApprovalResponse(&info, approved))
		if err != nil {
			return report, err
		}
		events, err := runner.Collect(stream)
		report.Events = append(report.Events, events...)
		if err != nil {
			return report, err
		}
		more, err := PendingApprovals(events)
		if err != nil {
			return report, err
		}
		queue = append(queue, more...)
	}

	if open := w.Runner.Tracker().Pending(report.InvocationID); len(open) > 0 {
		return report, &ai.CorrelationError{
			InvocationID: report.InvocationID,
			ApprovalID:   open[0].ID,
			Reason:       fmt.Sprintf("%d approval(s) left unanswered", len(open)),
		}
	}
	report.finish(printer)
	return report, nil
}

func (r *Report) finish(printer Printer) {
	r.Responses = AgentTexts(r.Events)
	r.Result, _ = LastResult(r.Events)
	for _, text := range r.Responses {
		printer.AgentText(text)
	}
	printer.Done()
}
