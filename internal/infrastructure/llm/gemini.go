package llm

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"google.golang.org/genai"

	"vision-chat/internal/domain/entity"
	"vision-chat/internal/domain/port"
)

// GeminiGenerator обращается к Gemini API: изображения загружаются через Files API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator создаёт клиента Gemini
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// Upload загружает файл изображения и возвращает его URI.
func (g *GeminiGenerator) Upload(ctx context.Context, imagePath string) (*entity.UploadedImage, error) {
	mimeType, err := detectImageMIME(imagePath)
	if err != nil {
		return nil, err
	}

	file, err := g.client.Files.UploadFromPath(ctx, imagePath, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: "User Image " + filepath.Base(imagePath),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}
	if file == nil || file.URI == "" {
		return nil, errors.New("upload returned no file URI")
	}

	uploaded := &entity.UploadedImage{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
	}
	if uploaded.MIMEType == "" {
		uploaded.MIMEType = mimeType
	}
	return uploaded, nil
}

// Generate запрашивает ответ модели; изображение передаётся первым, текст — последним.
func (g *GeminiGenerator) Generate(ctx context.Context, model string, img *entity.UploadedImage, prompt string) (string, error) {
	var parts []*genai.Part
	if img != nil {
		switch {
		case img.URI != "":
			parts = append(parts, genai.NewPartFromURI(img.URI, img.MIMEType))
		case len(img.Data) > 0:
			parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
		default:
			return "", errors.New("uploaded image has neither URI nor data")
		}
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("no content generated")
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

var _ port.Generator = (*GeminiGenerator)(nil)
