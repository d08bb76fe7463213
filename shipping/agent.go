package shipping

import (
	"github.com/spetersoncode/pausable/runner"
	"github.com/spetersoncode/pausable/tool"
)

const (
	// AgentName names the shipping agent.
	AgentName = "shipping_agent"
	// AppName names the resumable shipping app.
	AppName = "shipping_coordinator"
)

// Instruction is the system prompt of the shipping agent.
const Instruction = `You are a shipping coordinator assistant.

When users request to ship containers:
 1. Use the place_shipping_order tool with the number of containers and destination
 2. If the order status is 'pending', inform the user that approval is required
 3. After receiving the final result, provide a clear summary including:
    - Order status (approved/rejected)
    - Order ID (if available)
    - Number of containers and destination
 4. Keep responses concise but informative`

// NewAgent returns the shipping agent using the tools in registry.
func NewAgent(model string, registry *tool.Registry) runner.Agent {
	return runner.Agent{
		Name:        AgentName,
		Model:       model,
		Instruction: Instruction,
		Tools:       registry,
	}
}

// NewApp wraps the agent in the resumable shipping app.
func NewApp(agent runner.Agent) runner.App {
	return runner.App{Name: AppName, Agent: agent, Resumable: true}
}
