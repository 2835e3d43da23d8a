package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото
	StateProcessing    UserState = "processing"     // Идёт детекция
	StateChatting      UserState = "chatting"       // Вопросы по последнему фото
)

// User представляет пользователя бота
type User struct {
	ID      int64     // Telegram User ID
	ChatID  int64     // Telegram Chat ID
	State   UserState // Текущее состояние пользователя
	ImageID string    // ID записи анализа, о которой идёт разговор
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// AttachImage привязывает запись анализа и переводит пользователя в режим вопросов.
func (u *User) AttachImage(imageID string) {
	u.ImageID = imageID
	u.State = StateChatting
}

// Reset возвращает пользователя в главное меню и забывает изображение.
func (u *User) Reset() {
	u.ImageID = ""
	u.State = StateMainMenu
}
