package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"

	"vision-chat/internal/domain/entity"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestDetectImageMIME(t *testing.T) {
	mime, err := detectImageMIME(writeFile(t, "a.png", pngHeader))
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)

	_, err = detectImageMIME(writeFile(t, "a.txt", []byte("plain text, not an image")))
	require.Error(t, err)

	_, err = detectImageMIME(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type   string `json:"type"`
			Text   string `json:"text"`
			Source *struct {
				Type      string `json:"type"`
				MediaType string `json:"media_type"`
				Data      string `json:"data"`
			} `json:"source"`
		} `json:"content"`
	} `json:"messages"`
}

func anthropicServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err == nil && captured != nil {
			json.Unmarshal(raw, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const anthropicOK = `{"id":"msg_1","type":"message","role":"assistant","model":"claude-haiku-4-5",
"content":[{"type":"text","text":"A dog on grass."}],"stop_reason":"end_turn",
"usage":{"input_tokens":10,"output_tokens":5}}`

func TestAnthropicGenerator_SendsImageThenPrompt(t *testing.T) {
	var captured capturedRequest
	srv := anthropicServer(t, http.StatusOK, anthropicOK, &captured)

	gen, err := NewAnthropicGenerator("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	ctx := context.Background()
	img, err := gen.Upload(ctx, writeFile(t, "img.png", pngHeader))
	require.NoError(t, err)
	require.Equal(t, "image/png", img.MIMEType)
	require.Equal(t, pngHeader, img.Data)

	text, err := gen.Generate(ctx, "claude-haiku-4-5", img, "What is in the image?")
	require.NoError(t, err)
	require.Equal(t, "A dog on grass.", text)

	require.Equal(t, "claude-haiku-4-5", captured.Model)
	require.Len(t, captured.Messages, 1)
	content := captured.Messages[0].Content
	require.Len(t, content, 2)
	require.Equal(t, "image", content[0].Type)
	require.NotNil(t, content[0].Source)
	require.Equal(t, "image/png", content[0].Source.MediaType)
	require.Equal(t, base64.StdEncoding.EncodeToString(pngHeader), content[0].Source.Data)
	require.Equal(t, "text", content[1].Type)
	require.Equal(t, "What is in the image?", content[1].Text)
}

func TestAnthropicGenerator_TextOnly(t *testing.T) {
	var captured capturedRequest
	srv := anthropicServer(t, http.StatusOK, anthropicOK, &captured)

	gen, err := NewAnthropicGenerator("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "claude-haiku-4-5", nil, "prompt")
	require.NoError(t, err)
	require.Len(t, captured.Messages[0].Content, 1)
	require.Equal(t, "text", captured.Messages[0].Content[0].Type)
}

func TestAnthropicGenerator_APIError(t *testing.T) {
	srv := anthropicServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"quota exceeded"}}`, nil)

	gen, err := NewAnthropicGenerator("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "m", nil, "prompt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Anthropic API error")
}

func TestAnthropicGenerator_EmptyContentIsError(t *testing.T) {
	srv := anthropicServer(t, http.StatusOK, `{"id":"msg_1","type":"message","role":"assistant","model":"m",
"content":[],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":0}}`, nil)

	gen, err := NewAnthropicGenerator("test-key", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "m", nil, "prompt")
	require.Error(t, err)
}

func TestAnthropicGenerator_RequiresKey(t *testing.T) {
	_, err := NewAnthropicGenerator("")
	require.Error(t, err)
}

func TestGeminiGenerator_RequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "")
	require.Error(t, err)
}

func TestGeminiGenerator_RejectsEmptyUpload(t *testing.T) {
	gen, err := NewGeminiGenerator(context.Background(), "test-key")
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "gemini-2.5-flash", &entity.UploadedImage{}, "prompt")
	require.Error(t, err)
}

func TestGeminiGenerator_UploadRejectsNonImage(t *testing.T) {
	gen, err := NewGeminiGenerator(context.Background(), "test-key")
	require.NoError(t, err)

	_, err = gen.Upload(context.Background(), writeFile(t, "notes.txt", []byte("hello world")))
	require.Error(t, err)
}
