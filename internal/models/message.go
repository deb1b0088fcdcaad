package models

import "time"

// Message kind tags as persisted in a MessageRecord's "type" field.
const (
	KindText        = "text"
	KindPhoto       = "photo"
	KindVideo       = "video"
	KindLocation    = "location"
	KindAudio       = "audio"
	KindEmoji       = "emoji"
	KindContact     = "contact"
	KindLinkPreview = "link_preview"
	KindCustom      = "custom"
)

// MessageContent is the typed payload of a message. Exactly one concrete
// variant exists per kind tag.
type MessageContent interface {
	Kind() string
}

// TextContent is a plain text message body.
type TextContent struct {
	Text string
}

func (TextContent) Kind() string { return KindText }

// PhotoContent references an uploaded image by its absolute URL.
type PhotoContent struct {
	URL string
}

func (PhotoContent) Kind() string { return KindPhoto }

// VideoContent references an uploaded video by its absolute URL.
type VideoContent struct {
	URL string
}

func (VideoContent) Kind() string { return KindVideo }

// LocationContent is a shared map coordinate.
type LocationContent struct {
	Longitude float64
	Latitude  float64
}

func (LocationContent) Kind() string { return KindLocation }

// UnsupportedContent stands in for kinds the app never persists (audio,
// emoji, contact, link previews, custom payloads). Their content is dropped
// on encode.
type UnsupportedContent struct {
	KindTag string
}

func (u UnsupportedContent) Kind() string { return u.KindTag }

// Message is the in-memory representation of a chat message before it is
// flattened into a MessageRecord.
type Message struct {
	ID          string
	SenderEmail string
	SenderName  string
	SentAt      time.Time
	Content     MessageContent
}

// MessageRecord is the flat per-message document persisted in a
// conversation's log. Content is the kind-dependent single-string encoding
// of the payload.
type MessageRecord struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Date        string `json:"date"`
	SenderEmail string `json:"sender_email"`
	IsRead      bool   `json:"is_read"`
	Name        string `json:"name"`
}
