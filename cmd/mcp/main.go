// Command mcp is an MCP stdio server exposing a getTinyImage tool, a local
// stand-in for the MCP "everything" server used by cmd/image.
//
// Usage:
//
//	go run ./cmd/mcp
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"

	"github.com/spetersoncode/pausable/mcp"
	"github.com/spetersoncode/pausable/tool"
)

func main() {
	registry := tool.NewRegistry().Add(
		tool.Func("getTinyImage", "Returns a tiny PNG image", tinyImageHandler),
	)

	if err := mcp.ServeStdio(registry,
		mcp.WithName("pausable-tiny-image"),
		mcp.WithVersion("1.0.0"),
	); err != nil {
		log.Fatal(err)
	}
}

// TinyImageArgs are the arguments for getTinyImage.
type TinyImageArgs struct {
	Size int `json:"size,omitempty" desc:"Edge length in pixels (default 8, max 64)"`
}

func tinyImageHandler(ctx context.Context, args TinyImageArgs) (string, error) {
	size := args.Size
	if size <= 0 {
		size = 8
	}
	if size > 64 {
		return "", fmt.Errorf("size %d exceeds 64", size)
	}

	data, err := checkerboard(size)
	if err != nil {
		return "", err
	}
	return mcp.NewImageEnvelope("This is a tiny image:", base64.StdEncoding.EncodeToString(data), "image/png").String(), nil
}

func checkerboard(size int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	dark := color.RGBA{R: 32, G: 64, B: 128, A: 255}
	light := color.RGBA{R: 240, G: 240, B: 240, A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, dark)
			} else {
				img.Set(x, y, light)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
