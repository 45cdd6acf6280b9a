package tdapi

// Chat types.
const (
	ChatTypePrivate    = "private"
	ChatTypeBasicGroup = "basicGroup"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

// User is an account profile.
type User struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username,omitempty"`
	PhoneNumber string `json:"phone_number"`
	IsPremium   bool   `json:"is_premium"`
	// Minithumbnail is a tiny JPEG of the profile photo, if any.
	Minithumbnail []byte `json:"minithumbnail,omitempty"`
}

func (*User) Type() string { return "user" }

// Chat is a dialog visible to the account.
type Chat struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	ChatType      string `json:"type"`
	UnreadCount   int    `json:"unread_count"`
	Minithumbnail []byte `json:"minithumbnail,omitempty"`
}

func (*Chat) Type() string { return "chat" }

// Chats is an ordered list of chat identifiers.
type Chats struct {
	TotalCount int     `json:"total_count"`
	ChatIDs    []int64 `json:"chat_ids"`
}

func (*Chats) Type() string { return "chats" }

type GetMe struct{}

type LoadChats struct {
	Limit int `json:"limit"`
}

type GetChats struct {
	Limit int `json:"limit"`
}

type SearchChatsOnServer struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type GetChat struct {
	ChatID int64 `json:"chat_id"`
}

func (*GetMe) Type() string               { return "getMe" }
func (*LoadChats) Type() string           { return "loadChats" }
func (*GetChats) Type() string            { return "getChats" }
func (*SearchChatsOnServer) Type() string { return "searchChatsOnServer" }
func (*GetChat) Type() string             { return "getChat" }

func (*GetMe) function()               {}
func (*LoadChats) function()           {}
func (*GetChats) function()            {}
func (*SearchChatsOnServer) function() {}
func (*GetChat) function()             {}
