// Package mcp bridges MCP (Model Context Protocol) servers and tool registries.
//
// It works in both directions:
//
//   - Client: [RemoteRegistry] connects to an MCP server over stdio or SSE,
//     lists its tools (optionally filtered) and proxies calls with a timeout.
//     [RemoteRegistry.Bind] copies the remote tools into a [tool.Registry] so an
//     agent can call them like local tools.
//   - Server: [NewServer] exposes a [tool.Registry] to MCP clients, and
//     [ServeStdio] serves it over stdin/stdout.
//
// # Content
//
// Plain text results pass through as text. Results that carry images or audio
// are encoded as an [Envelope] so the binary parts survive the trip through
// tool results and function-response events:
//
//	{"content":[{"type":"image","data":"iVBOR...","mimeType":"image/png"}],"isError":false}
//
// A local handler that returns an Envelope is served as the matching MCP
// content, which is how a Go tool returns an image to MCP clients.
//
// # Consuming an MCP Server
//
//	remote, err := mcp.NewRemoteRegistry(ctx, "npx",
//	    []string{"-y", "@modelcontextprotocol/server-everything"},
//	    mcp.WithToolFilter("getTinyImage"),
//	    mcp.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer remote.Close()
//
//	registry := tool.NewRegistry()
//	if err := remote.Bind(registry); err != nil {
//	    log.Fatal(err)
//	}
package mcp
