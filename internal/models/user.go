package models

// User is the per-user document stored at /{normalizedEmail}. It embeds the
// owner's conversation index; the index is always read and written as a whole.
type User struct {
	FirstName     string                `json:"firstName"`
	LastName      string                `json:"lastName"`
	Conversations []ConversationSummary `json:"conversations,omitempty"`
}

// DisplayName is the name shown to peers.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// UserListing is one entry of the global /users search index.
type UserListing struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials holds a user's login secret, stored outside the user node.
type Credentials struct {
	PasswordHash string `json:"password_hash"`
}
