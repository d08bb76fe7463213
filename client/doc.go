// Package client provides the model client the runner talks to.
//
// A Client wraps one provider backend (Anthropic, OpenAI or Google) and adds:
//
//   - Configuration checks: a missing API key or unknown provider is a
//     *pausable.ConfigurationError at construction time
//   - Automatic retries: exponential backoff for transient errors
//   - Event emission: observable requests and retries via channel
//
// # Basic Usage
//
//	c, err := client.New(client.Config{
//	    Provider: ai.ProviderGoogle,
//	    APIKey:   os.Getenv("GOOGLE_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Chat(ctx, []ai.Message{
//	    {Role: ai.RoleUser, Content: "Hello!"},
//	})
//
// The backend is created on first use. Per-request options override the
// configured model:
//
//	resp, _ := c.Chat(ctx, messages, ai.WithModel("gemini-2.5-flash"))
//
// # Events
//
// Pass a channel in Config.Events to observe requests. Events are sent
// without blocking; a full channel drops them.
//
//	events := make(chan client.Event, 100)
//	c, _ := client.New(client.Config{Provider: ai.ProviderOpenAI, APIKey: key, Events: events})
package client
