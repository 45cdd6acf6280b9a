package tdapi

// SearchMessagesFilter narrows message search to a content kind.
type SearchMessagesFilter string

const (
	FilterEmpty         SearchMessagesFilter = "searchMessagesFilterEmpty"
	FilterPhotoAndVideo SearchMessagesFilter = "searchMessagesFilterPhotoAndVideo"
	FilterPhoto         SearchMessagesFilter = "searchMessagesFilterPhoto"
	FilterVideo         SearchMessagesFilter = "searchMessagesFilterVideo"
	FilterAudio         SearchMessagesFilter = "searchMessagesFilterAudio"
	FilterDocument      SearchMessagesFilter = "searchMessagesFilterDocument"
)

// Message is a chat message. Content is one of the Message* content types.
type Message struct {
	ID      int64          `json:"id"`
	ChatID  int64          `json:"chat_id"`
	Date    int32          `json:"date"`
	Content MessageContent `json:"-"`
}

func (*Message) Type() string { return "message" }

// FoundChatMessages is a page of search results.
type FoundChatMessages struct {
	TotalCount        int        `json:"total_count"`
	Messages          []*Message `json:"messages"`
	NextFromMessageID int64      `json:"next_from_message_id"`
}

func (*FoundChatMessages) Type() string { return "foundChatMessages" }

// MessageContent is the tagged union of message payloads.
type MessageContent interface {
	Object
	messageContent()
}

type MessagePhoto struct {
	Photo      *Photo `json:"photo"`
	Caption    string `json:"caption"`
	HasSpoiler bool   `json:"has_spoiler"`
}

type MessageVideo struct {
	Video      *Video `json:"video"`
	Caption    string `json:"caption"`
	HasSpoiler bool   `json:"has_spoiler"`
}

type MessageAudio struct {
	Audio   *Audio `json:"audio"`
	Caption string `json:"caption"`
}

type MessageDocument struct {
	Document *Document `json:"document"`
	Caption  string    `json:"caption"`
}

type MessageText struct {
	Text string `json:"text"`
}

// MessageUnsupported is any content the backend cannot describe.
type MessageUnsupported struct{}

func (*MessagePhoto) Type() string       { return "messagePhoto" }
func (*MessageVideo) Type() string       { return "messageVideo" }
func (*MessageAudio) Type() string       { return "messageAudio" }
func (*MessageDocument) Type() string    { return "messageDocument" }
func (*MessageText) Type() string        { return "messageText" }
func (*MessageUnsupported) Type() string { return "messageUnsupported" }

func (*MessagePhoto) messageContent()       {}
func (*MessageVideo) messageContent()       {}
func (*MessageAudio) messageContent()       {}
func (*MessageDocument) messageContent()    {}
func (*MessageText) messageContent()        {}
func (*MessageUnsupported) messageContent() {}

type GetMessage struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

type SearchChatMessages struct {
	ChatID        int64                `json:"chat_id"`
	Query         string               `json:"query"`
	FromMessageID int64                `json:"from_message_id"`
	Offset        int                  `json:"offset"`
	Limit         int                  `json:"limit"`
	Filter        SearchMessagesFilter `json:"filter"`
}

type GetChatMessageCount struct {
	ChatID int64                `json:"chat_id"`
	Filter SearchMessagesFilter `json:"filter"`
}

func (*GetMessage) Type() string          { return "getMessage" }
func (*SearchChatMessages) Type() string  { return "searchChatMessages" }
func (*GetChatMessageCount) Type() string { return "getChatMessageCount" }

func (*GetMessage) function()          {}
func (*SearchChatMessages) function()  {}
func (*GetChatMessageCount) function() {}
