package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	ai "github.com/spetersoncode/pausable"
	"github.com/spetersoncode/pausable/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func responseEvent(items ...map[string]any) event.Event {
	content := make([]any, len(items))
	for i, it := range items {
		content[i] = it
	}
	return event.New("e-1", "image_agent", &event.Content{
		Role: ai.RoleTool,
		Parts: []event.Part{{FunctionResponse: &event.FunctionResponse{
			ID:       "call_1",
			Name:     "getTinyImage",
			Response: map[string]any{"content": content},
		}}},
	})
}

func TestExtract(t *testing.T) {
	data := tinyPNG(t)
	events := []event.Event{
		event.New("e-1", "user", event.NewUserMessage("Provide a sample tiny image")),
		responseEvent(
			map[string]any{"type": "text", "text": "This is a tiny image:"},
			map[string]any{"type": "image", "data": base64.StdEncoding.EncodeToString(data), "mimeType": "image/png"},
		),
	}

	images, err := Extract(events)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "getTinyImage", images[0].Tool)
	assert.Equal(t, "call_1", images[0].CallID)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, data, images[0].Data)
}

func TestExtractInvalidBase64(t *testing.T) {
	_, err := Extract([]event.Event{responseEvent(map[string]any{"type": "image", "data": "!!not base64!!"})})
	var imgErr *ai.ImageError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "extract", imgErr.Op)
}

func TestFirstNoImage(t *testing.T) {
	_, err := First([]event.Event{responseEvent(map[string]any{"type": "text", "text": "none"})})
	assert.True(t, errors.Is(err, ErrNoImage))
}

func TestInspect(t *testing.T) {
	info, err := Inspect(Image{Data: tinyPNG(t)})
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 2, info.Width)
	assert.Equal(t, 3, info.Height)

	_, err = Inspect(Image{Data: []byte("not an image")})
	var imgErr *ai.ImageError
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "decode", imgErr.Op)
}

func TestSave(t *testing.T) {
	data := tinyPNG(t)
	path := filepath.Join(t.TempDir(), "out", "tiny_image.png")

	info, err := Save(Image{Data: data}, path)
	require.NoError(t, err)
	assert.Equal(t, len(data), info.Size)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	_, err = Save(Image{Data: []byte("junk")}, filepath.Join(t.TempDir(), "junk.png"))
	assert.Error(t, err)
}
