package main

import (
	"strings"

	"github.com/fatih/color"

	"github.com/spetersoncode/pausable/shipping"
)

// consolePrinter renders workflow progress in color on stdout.
type consolePrinter struct {
	rule    string
	user    *color.Color
	pause   *color.Color
	approve *color.Color
	reject  *color.Color
	agent   *color.Color
	muted   *color.Color
}

func newConsolePrinter() *consolePrinter {
	return &consolePrinter{
		rule:    strings.Repeat("=", 60),
		user:    color.New(color.FgCyan, color.Bold),
		pause:   color.New(color.FgYellow),
		approve: color.New(color.FgGreen, color.Bold),
		reject:  color.New(color.FgRed, color.Bold),
		agent:   color.New(color.FgWhite),
		muted:   color.New(color.FgHiBlack),
	}
}

var _ shipping.Printer = (*consolePrinter)(nil)

func (p *consolePrinter) Query(sessionID, query string) {
	p.muted.Printf("\n%s\n", p.rule)
	p.muted.Printf("session %s\n", sessionID)
	p.user.Printf("User > %s\n", query)
}

func (p *consolePrinter) Paused(info shipping.ApprovalInfo) {
	p.pause.Println("⏸️  Pausing for approval...")
	p.pause.Printf("   %s\n", info.Hint)
}

func (p *consolePrinter) Decision(approved bool) {
	if approved {
		p.approve.Println("🤔 Human Decision: APPROVE ✅")
		return
	}
	p.reject.Println("🤔 Human Decision: REJECT ❌")
}

func (p *consolePrinter) AgentText(text string) {
	p.agent.Printf("Agent > %s\n", strings.TrimSpace(text))
}

func (p *consolePrinter) Done() {
	p.muted.Println(p.rule)
}
