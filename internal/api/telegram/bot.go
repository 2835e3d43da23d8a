package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vision-chat/internal/container"
	"vision-chat/internal/domain/entity"
	"vision-chat/internal/logger"
)

// botAPI часть клиента Telegram, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api     botAPI
	updates func() tgbotapi.UpdatesChannel
	stop    func()
	app     *container.Container
	http    *http.Client
	log     *logger.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, app *container.Container, log *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("Authorized on account %s", api.Self.UserName)

	bot := newBot(api, app, log)
	bot.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	bot.stop = api.StopReceivingUpdates
	return bot, nil
}

func newBot(api botAPI, app *container.Container, log *logger.Logger) *Bot {
	return &Bot{
		api:  api,
		app:  app,
		http: http.DefaultClient,
		log:  log,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	updates := b.updates()
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	user, err := b.app.UserService.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("Error getting user: %v", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	b.handleText(ctx, msg, user)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	var err error
	switch msg.Command() {
	case "start":
		_, err = b.app.UserService.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgStart)

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		_, err = b.app.UserService.BeginCheck(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "cancel":
		_, err = b.app.UserService.Cancel(ctx, user.ID, user.ChatID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
	if err != nil {
		b.log.Error("Error saving user %d: %v", user.ID, err)
	}
}

// handlePhoto анализирует фото и отправляет размеченную копию
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if user.State == entity.StateProcessing {
		b.sendMessage(msg.Chat.ID, msgStillProcessing)
		return
	}
	if _, err := b.app.UserService.SetState(ctx, user.ID, user.ChatID, entity.StateProcessing); err != nil {
		b.log.Error("Error saving user %d: %v", user.ID, err)
	}

	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.Error("Error downloading photo: %v", err)
		b.fail(ctx, user, msgProcessingError)
		return
	}

	record, err := b.app.AnalysisService.Analyze(ctx, imageData)
	if err != nil {
		b.log.Error("Error analyzing photo from user %d: %v", user.ID, err)
		if errors.Is(err, entity.ErrInvalidInput) {
			b.fail(ctx, user, msgInvalidImage)
		} else {
			b.fail(ctx, user, msgProcessingError)
		}
		return
	}

	reply := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FilePath(record.AnnotatedImage))
	reply.Caption = formatSummary(record)
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("Error sending photo: %v", err)
	}

	if _, err := b.app.UserService.AttachImage(ctx, user.ID, user.ChatID, record.ID); err != nil {
		b.log.Error("Error saving user %d: %v", user.ID, err)
	}
}

// handleText отвечает на вопрос о последнем фото
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	if user.State != entity.StateChatting || user.ImageID == "" || strings.TrimSpace(msg.Text) == "" {
		b.sendMessage(msg.Chat.ID, msgSendPhoto)
		return
	}

	if _, err := b.api.Send(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		b.log.Warning("Error sending chat action: %v", err)
	}

	answer, err := b.app.ChatService.Chat(ctx, user.ImageID, msg.Text)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		b.fail(ctx, user, msgImageLost)
	case err != nil:
		b.log.Error("Error answering user %d: %v", user.ID, err)
		b.sendMessage(msg.Chat.ID, msgChatError)
	default:
		b.sendMessage(msg.Chat.ID, answer)
	}
}

// fail сообщает об ошибке и возвращает пользователя в главное меню
func (b *Bot) fail(ctx context.Context, user *entity.User, text string) {
	b.sendMessage(user.ChatID, text)
	if _, err := b.app.UserService.Cancel(ctx, user.ID, user.ChatID); err != nil {
		b.log.Error("Error saving user %d: %v", user.ID, err)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("Error sending message: %v", err)
	}
}
