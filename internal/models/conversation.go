package models

// LatestMessage is the preview of the most recent message in a conversation.
// Date carries the formatted send timestamp, not a machine timestamp; it is
// advisory only, the message log is authoritative.
type LatestMessage struct {
	Date    string `json:"date"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

// ConversationSummary is one entry of a user's conversation index. Each of
// the two participants holds an independent copy keyed by the same ID; the
// peer fields point at the other party.
type ConversationSummary struct {
	ID             string        `json:"id"`
	OtherUserEmail string        `json:"other_user_email"`
	Name           string        `json:"name"`
	LatestMessage  LatestMessage `json:"latest_message"`
}
