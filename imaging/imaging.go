// Package imaging pulls images out of tool results and writes them to disk.
//
// Tools that return images (such as MCP servers) deliver them as function
// responses with a content list, each image item carrying base64 data:
//
//	{"content":[{"type":"image","data":"iVBOR...","mimeType":"image/png"}]}
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
)

// ErrNoImage is returned when no image content is found.
var ErrNoImage = errors.New("imaging: no image content found")

// Image is one decoded image from a function response.
type Image struct {
	// Tool is the name of the function that produced the image.
	Tool     string
	CallID   string
	MIMEType string
	Data     []byte
}

// Info describes an image without decoding its pixels.
type Info struct {
	Format string
	Width  int
	Height int
	Size   int
}

func (i Info) String() string {
	return fmt.Sprintf("%s %dx%d, %d bytes", i.Format, i.Width, i.Height, i.Size)
}

// Extract returns the images carried by the function responses in events,
// in order. Items with invalid base64 fail the whole extraction.
func Extract(events []event.Event) ([]Image, error) {
	var images []Image
	for _, ev := range events {
		for _, resp := range ev.FunctionResponses() {
			items, _ := resp.Response["content"].([]any)
			for _, it := range items {
				item, ok := it.(map[string]any)
				if !ok || item["type"] != "image" {
					continue
				}
				encoded, _ := item["data"].(string)
				data, err := base64.StdEncoding.DecodeString(encoded)
				if err != nil {
					return nil, &ai.ImageError{Op: "extract", Source: resp.Name, Err: err}
				}
				mime, _ := item["mimeType"].(string)
				images = append(images, Image{Tool: resp.Name, CallID: resp.ID, MIMEType: mime, Data: data})
			}
		}
	}
	return images, nil
}

// First returns the first image in events.
func First(events []event.Event) (Image, error) {
	images, err := Extract(events)
	if err != nil {
		return Image{}, err
	}
	if len(images) == 0 {
		return Image{}, ErrNoImage
	}
	return images[0], nil
}

// Inspect decodes the image header.
func Inspect(img Image) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return Info{}, &ai.ImageError{Op: "decode", Source: "base64", Err: err}
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height, Size: len(img.Data)}, nil
}

// Save validates img and writes it to path, creating parent directories.
func Save(img Image, path string) (Info, error) {
	info, err := Inspect(img)
	if err != nil {
		return Info{}, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Info{}, &ai.ImageError{Op: "save", Source: path, Err: err}
		}
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return Info{}, &ai.ImageError{Op: "save", Source: path, Err: err}
	}
	return info, nil
}
