package identity

import "strings"

// unsafeChars are the characters the document store rejects in path segments.
const unsafeChars = "@.#$[]"

// Normalize returns a form of an email address safe for use as a storage
// path segment. Every occurrence of @ . # $ [ ] is replaced with "-".
// The function is pure and idempotent.
func Normalize(email string) string {
	safe := email
	for _, c := range unsafeChars {
		safe = strings.ReplaceAll(safe, string(c), "-")
	}
	return safe
}

// ProfilePictureFileName returns the blob-store file name for a user's
// profile picture, e.g. "b2banalytica-gmail-com_profile_picture.png".
func ProfilePictureFileName(email string) string {
	return Normalize(email) + "_profile_picture.png"
}
