// Package anthropic adapts the Anthropic Go SDK (Claude) to pausable.ChatProvider.
//
// Tool calls map to tool_use blocks and tool results to tool_result blocks in
// a user turn. System messages and the WithSystem option become the request's
// system prompt.
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"), anthropic.WithModel("claude-haiku-4-5"))
//	resp, err := client.Chat(ctx, messages, pausable.WithTools(tools...))
package anthropic
