package domain

// Contact identifies the sender of an inbound message.
type Contact struct {
	UserID   int64
	Username string
}

type UserRepository interface {
	SaveUser(chatID int64) error
	ListChatIDs() ([]int64, error)
}

// Abstraction for sending messages (implemented by Telegram adapter)
type MessageSender interface {
	SendText(chatID int64, text string) error
	SendPhoto(chatID int64, fileID string, caption string) error
}
