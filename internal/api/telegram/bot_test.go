package telegram

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "vision-chat/internal/application"
	"vision-chat/internal/container"
	"vision-chat/internal/domain/entity"
	"vision-chat/internal/infrastructure/storage"
	"vision-chat/internal/logger"
)

type fakeAPI struct {
	fileURL string
	sent    []tgbotapi.Chattable
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.sent = append(a.sent, c)
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return a.fileURL + "/" + fileID, nil
}

func (a *fakeAPI) texts() []string {
	var out []string
	for _, c := range a.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (a *fakeAPI) photos() []tgbotapi.PhotoConfig {
	var out []tgbotapi.PhotoConfig
	for _, c := range a.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			out = append(out, p)
		}
	}
	return out
}

type stubDetector struct {
	out *entity.DetectionOutput
}

func (d stubDetector) Detect(ctx context.Context, imagePath string) (*entity.DetectionOutput, error) {
	return d.out, nil
}

type stubGenerator struct {
	answer string
}

func (g stubGenerator) Upload(ctx context.Context, imagePath string) (*entity.UploadedImage, error) {
	return &entity.UploadedImage{URI: imagePath, MIMEType: "image/jpeg"}, nil
}

func (g stubGenerator) Generate(ctx context.Context, model string, img *entity.UploadedImage, prompt string) (string, error) {
	return g.answer, nil
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48)), nil))
	return buf.Bytes()
}

func newTestBot(t *testing.T) (*Bot, *fakeAPI) {
	t.Helper()
	photo := testJPEG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(photo)
	}))
	t.Cleanup(srv.Close)

	media, err := storage.NewMediaStore(t.TempDir())
	require.NoError(t, err)

	c := container.New(container.Deps{
		Users:   storage.NewMemoryUserRepository(),
		Records: storage.NewMemoryRecordRepository(media),
		Detector: stubDetector{out: &entity.DetectionOutput{
			Detections: []entity.Detection{entity.NewDetection("dog", 0.87, 10, 10, 30, 30)},
			Annotated:  photo,
		}},
		Generator:   stubGenerator{answer: "It is a dog."},
		Models:      app.ChatModels{Fast: "f", Capable: "c", Text: "t"},
		ChatTimeout: time.Second,
		Logger:      logger.Discard(),
	})

	api := &fakeAPI{fileURL: srv.URL}
	return newBot(api, c, logger.Discard()), api
}

func command(name string) *tgbotapi.Message {
	text := "/" + name
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: 1},
		Chat:     &tgbotapi.Chat{ID: 10},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}
}

func text(s string) *tgbotapi.Message {
	return &tgbotapi.Message{From: &tgbotapi.User{ID: 1}, Chat: &tgbotapi.Chat{ID: 10}, Text: s}
}

func photo() *tgbotapi.Message {
	return &tgbotapi.Message{
		From:  &tgbotapi.User{ID: 1},
		Chat:  &tgbotapi.Chat{ID: 10},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}
}

func TestBot_Commands(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, command("start"))
	bot.handleMessage(ctx, command("check"))
	user, err := bot.app.UserService.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)

	bot.handleMessage(ctx, command("cancel"))
	bot.handleMessage(ctx, command("nope"))

	require.Equal(t, []string{msgStart, msgAwaitingPhoto, msgCancelled, msgUnknownCommand}, api.texts())
}

func TestBot_TextWithoutPhoto(t *testing.T) {
	bot, api := newTestBot(t)
	bot.handleMessage(context.Background(), text("what is this?"))
	require.Equal(t, []string{msgSendPhoto}, api.texts())
}

func TestBot_PhotoThenQuestion(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	bot.handleMessage(ctx, photo())

	photos := api.photos()
	require.Len(t, photos, 1)
	require.Contains(t, photos[0].Caption, "1. dog — 87.00%")

	user, err := bot.app.UserService.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateChatting, user.State)
	require.NotEmpty(t, user.ImageID)

	bot.handleMessage(ctx, text("What is in the image?"))
	texts := api.texts()
	require.Equal(t, "It is a dog.", texts[len(texts)-1])
}

func TestBot_ChatWithLostImage(t *testing.T) {
	bot, api := newTestBot(t)
	ctx := context.Background()

	_, err := bot.app.UserService.AttachImage(ctx, 1, 10, "missing")
	require.NoError(t, err)

	bot.handleMessage(ctx, text("hello"))
	texts := api.texts()
	require.Equal(t, msgImageLost, texts[len(texts)-1])

	user, err := bot.app.UserService.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestFormatSummary(t *testing.T) {
	empty := formatSummary(&entity.AnalysisRecord{})
	require.True(t, strings.HasPrefix(empty, msgNoObjects))

	dets := make([]entity.Detection, 200)
	for i := range dets {
		dets[i] = entity.NewDetection("traffic light", 0.5, 0, 0, 1, 1)
	}
	long := formatSummary(&entity.AnalysisRecord{Detections: dets})
	require.LessOrEqual(t, len([]rune(long)), maxCaptionLength)
}
