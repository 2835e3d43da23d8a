package container

import (
	"time"

	app "vision-chat/internal/application"
	"vision-chat/internal/domain/port"
	"vision-chat/internal/logger"
)

// Deps внешние зависимости сервисов приложения.
type Deps struct {
	Users       port.UserRepository
	Records     port.RecordRepository
	Detector    port.Detector
	Generator   port.Generator
	Models      app.ChatModels
	ChatTimeout time.Duration
	Logger      *logger.Logger
}

type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	ChatService     *app.ChatService
}

func New(deps Deps) *Container {
	userService := app.NewUserService(deps.Users)
	analysisService := app.NewAnalysisService(deps.Records, deps.Detector, deps.Logger)
	chatService := app.NewChatService(deps.Records, deps.Generator, deps.Models, deps.ChatTimeout, deps.Logger)

	return &Container{
		UserService:     userService,
		AnalysisService: analysisService,
		ChatService:     chatService,
	}
}
