package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
)

const anthropicMaxTokens = 1024

// AnthropicGenerator обращается к Messages API. Отдельной загрузки файлов нет:
// Upload читает изображение, и оно уходит в запрос как base64-блок.
type AnthropicGenerator struct {
	client anthropic.Client
}

// NewAnthropicGenerator создаёт клиента Anthropic
func NewAnthropicGenerator(apiKey string, opts ...option.RequestOption) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicGenerator{client: anthropic.NewClient(opts...)}, nil
}

// Upload читает изображение с диска для передачи inline.
func (g *AnthropicGenerator) Upload(ctx context.Context, imagePath string) (*entity.UploadedImage, error) {
	return readImage(ctx, imagePath)
}

// Generate отправляет изображение (если есть) и промпт одним пользовательским сообщением.
func (g *AnthropicGenerator) Generate(ctx context.Context, model string, img *entity.UploadedImage, prompt string) (string, error) {
	var blocks []anthropic.ContentBlockParamUnion
	if img != nil {
		if len(img.Data) == 0 {
			return "", fmt.Errorf("uploaded image has no data")
		}
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIMEType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in Anthropic response")
	}
	return sb.String(), nil
}

func readImage(ctx context.Context, imagePath string) (*entity.UploadedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mimeType, err := detectImageMIME(imagePath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return &entity.UploadedImage{MIMEType: mimeType, Data: data}, nil
}

var _ port.Generator = (*AnthropicGenerator)(nil)
