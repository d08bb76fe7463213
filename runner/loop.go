package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/approval"
	"github.com/spetersoncode/pausable/event"
	"github.com/spetersoncode/pausable/internal/tracing"
	"github.com/spetersoncode/pausable/session"
	"github.com/spetersoncode/pausable/tool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// loop alternates model steps and tool calls. It reports whether the
// invocation suspended waiting for a decision.
func (r *Runner) loop(ctx context.Context, inv *invocation) (bool, error) {
	agent := r.app.Agent
	opts := []ai.Option{ai.WithTools(agent.Tools.Tools()...)}
	if agent.Model != "" {
		opts = append(opts, ai.WithModel(agent.Model))
	}
	if agent.Instruction != "" {
		opts = append(opts, ai.WithSystem(agent.Instruction))
	}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if r.maxSteps > 0 && inv.steps >= r.maxSteps {
			return false, fmt.Errorf("%w (%d)", ErrMaxSteps, r.maxSteps)
		}
		inv.steps++

		resp, err := r.client.Chat(ctx, inv.history, opts...)
		if err != nil {
			return false, err
		}
		inv.usage = inv.usage.Add(resp.Usage)
		r.logger.Debug("model step", "invocation_id", inv.id, "step", inv.steps, "tool_calls", len(resp.ToolCalls))

		ev := event.New(inv.id, agent.Name, responseContent(resp))
		usage := resp.Usage
		ev.Usage = &usage
		if !r.emit(ctx, inv, ev) {
			return false, ctx.Err()
		}
		inv.history = append(inv.history, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if !resp.HasToolCalls() {
			return false, nil
		}

		results, pending := r.executeCalls(ctx, inv, resp.ToolCalls)
		if len(results) > 0 && !r.emit(ctx, inv, event.New(inv.id, agent.Name, resultsContent(results))) {
			return false, ctx.Err()
		}
		if len(pending) > 0 {
			return true, r.suspend(ctx, inv, results, pending)
		}
		inv.history = append(inv.history, ai.NewToolResultMessage(results...))
	}
}

// continueFrom re-runs the decided calls of a snapshot and resumes the loop
// once no decision is outstanding. release is called as soon as the snapshot
// reflects the decisions.
func (r *Runner) continueFrom(ctx context.Context, inv *invocation, snap session.Invocation, confs map[string]approval.Confirmation, release func()) (bool, error) {
	defer release()

	var results []ai.ToolResult
	var remaining []session.PendingCall
	for _, p := range snap.Pending {
		conf, ok := confs[p.ApprovalID]
		if !ok {
			remaining = append(remaining, p)
			continue
		}
		result, _ := r.executeCall(ctx, inv, p.Call, conf)
		results = append(results, result)
	}
	if len(results) > 0 && !r.emit(ctx, inv, event.New(inv.id, r.app.Agent.Name, resultsContent(results))) {
		return false, ctx.Err()
	}

	completed := append(snap.Completed, results...)
	if len(remaining) > 0 {
		snap.Pending = remaining
		snap.Completed = completed
		if err := r.sessions.SaveInvocation(ctx, inv.sess, snap); err != nil {
			return false, err
		}
		return true, nil
	}
	if err := r.sessions.DeleteInvocation(ctx, inv.sess, inv.id); err != nil {
		return false, err
	}
	release()

	inv.history = append(inv.history, ai.NewToolResultMessage(orderResults(inv.history, completed)...))
	return r.loop(ctx, inv)
}

// executeCalls runs the calls of one step in order. Calls whose tool asked
// for confirmation are registered with the tracker and returned as pending.
func (r *Runner) executeCalls(ctx context.Context, inv *invocation, calls []ai.ToolCall) ([]ai.ToolResult, []session.PendingCall) {
	var results []ai.ToolResult
	var pending []session.PendingCall

	for _, call := range calls {
		result, desc := r.executeCall(ctx, inv, call, approval.Absent())
		if desc == nil {
			results = append(results, result)
			continue
		}
		if !r.app.Resumable {
			r.logger.Warn("confirmation requested by non-resumable app", "invocation_id", inv.id, "tool", call.Name)
			results = append(results, notResumable(call, r.app.Name))
			continue
		}
		token, err := r.tracker.Suspend(inv.id, *desc)
		if err != nil {
			results = append(results, ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true})
			continue
		}
		pending = append(pending, session.PendingCall{
			ApprovalID: token.ApprovalID,
			Call:       call,
			Hint:       desc.Hint,
			Payload:    desc.Payload,
		})
	}
	return results, pending
}

// executeCall runs one tool call with the given confirmation state and
// returns the descriptor the tool requested, if any.
func (r *Runner) executeCall(ctx context.Context, inv *invocation, call ai.ToolCall, conf approval.Confirmation) (ai.ToolResult, *approval.Descriptor) {
	ctx, span := r.tracer.Start(ctx, "runner.tool_call", trace.WithAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
		attribute.String("approval.state", string(conf.State())),
	))

	if r.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.handlerTimeout)
		defer cancel()
	}

	tc := tool.NewContext(inv.id, call.ID, conf)
	result, err := r.app.Agent.Tools.Execute(tool.WithContext(ctx, tc), call)
	if err != nil {
		result = ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true}
	}

	desc, requested := tc.RequestedConfirmation()
	span.SetAttributes(attribute.Bool("approval.requested", requested))
	if result.IsError {
		tracing.End(span, &tool.ErrToolExecution{Name: call.Name, Err: errors.New(result.Content)})
	} else {
		tracing.End(span, nil)
	}

	if requested {
		return result, &desc
	}
	return result, nil
}

// suspend stores the invocation snapshot and emits the confirmation requests.
// The snapshot is saved before the event is sent so an immediate Resume finds it.
func (r *Runner) suspend(ctx context.Context, inv *invocation, completed []ai.ToolResult, pending []session.PendingCall) error {
	snap := session.Invocation{
		ID:        inv.id,
		Agent:     r.app.Agent.Name,
		History:   inv.history,
		Pending:   pending,
		Completed: completed,
		Steps:     inv.steps,
		Usage:     inv.usage,
		CreatedAt: inv.created,
	}
	if err := r.sessions.SaveInvocation(ctx, inv.sess, snap); err != nil {
		return err
	}

	content := &event.Content{Role: ai.RoleAssistant}
	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		fc := event.NewConfirmationCall(p.ApprovalID, functionCall(p.Call), p.Hint, p.Payload)
		content.Parts = append(content.Parts, event.Part{FunctionCall: &fc})
		ids = append(ids, p.ApprovalID)
		r.logger.Info("confirmation requested", "invocation_id", inv.id, "approval_id", p.ApprovalID, "tool", p.Call.Name)
	}

	ev := event.New(inv.id, r.app.Agent.Name, content)
	ev.LongRunningToolIDs = ids
	if !r.emit(ctx, inv, ev) {
		return ctx.Err()
	}
	return nil
}

// orderResults sorts results into the order of the calls of the last
// assistant message.
func orderResults(history []ai.Message, results []ai.ToolResult) []ai.ToolResult {
	if len(history) == 0 {
		return results
	}
	index := make(map[string]int)
	for i, call := range history[len(history)-1].ToolCalls {
		index[call.ID] = i
	}
	sorted := make([]ai.ToolResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return index[sorted[i].ToolCallID] < index[sorted[j].ToolCallID]
	})
	return sorted
}
