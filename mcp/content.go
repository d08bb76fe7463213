package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Content item types.
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeAudio = "audio"
)

// ContentItem is one piece of tool result content. Data is base64 encoded.
type ContentItem struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// Envelope is the JSON form of a tool result that carries non-text content.
type Envelope struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError"`
}

// Binary reports whether the envelope carries image or audio content.
func (e Envelope) Binary() bool {
	for _, c := range e.Content {
		if c.Type == TypeImage || c.Type == TypeAudio {
			return true
		}
	}
	return false
}

// Text joins the text items.
func (e Envelope) Text() string {
	var parts []string
	for _, c := range e.Content {
		if c.Type == TypeText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// String encodes the envelope as JSON.
func (e Envelope) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeEnvelope parses s as an Envelope. It reports false unless s is an
// envelope carrying binary content.
func DecodeEnvelope(s string) (Envelope, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return Envelope{}, false
	}
	var env Envelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return Envelope{}, false
	}
	return env, env.Binary()
}

// NewImageEnvelope builds an envelope holding one image and an optional caption.
func NewImageEnvelope(caption, data, mimeType string) Envelope {
	var env Envelope
	if caption != "" {
		env.Content = append(env.Content, ContentItem{Type: TypeText, Text: caption})
	}
	env.Content = append(env.Content, ContentItem{Type: TypeImage, Data: data, MIMEType: mimeType})
	return env
}

func fromMCPContent(c mcp.Content) (ContentItem, bool) {
	switch v := c.(type) {
	case mcp.TextContent:
		return ContentItem{Type: TypeText, Text: v.Text}, true
	case *mcp.TextContent:
		return ContentItem{Type: TypeText, Text: v.Text}, true
	case mcp.ImageContent:
		return ContentItem{Type: TypeImage, Data: v.Data, MIMEType: v.MIMEType}, true
	case *mcp.ImageContent:
		return ContentItem{Type: TypeImage, Data: v.Data, MIMEType: v.MIMEType}, true
	case mcp.AudioContent:
		return ContentItem{Type: TypeAudio, Data: v.Data, MIMEType: v.MIMEType}, true
	case *mcp.AudioContent:
		return ContentItem{Type: TypeAudio, Data: v.Data, MIMEType: v.MIMEType}, true
	}
	// Resources and links are kept as their JSON form.
	data, err := json.Marshal(c)
	if err != nil {
		return ContentItem{}, false
	}
	return ContentItem{Type: TypeText, Text: string(data)}, true
}

func toMCPContent(c ContentItem) mcp.Content {
	switch c.Type {
	case TypeImage:
		return mcp.NewImageContent(c.Data, c.MIMEType)
	case TypeAudio:
		return mcp.NewAudioContent(c.Data, c.MIMEType)
	}
	return mcp.NewTextContent(c.Text)
}
