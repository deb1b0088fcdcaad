// Package codec maps typed message payloads to and from the flat
// single-string content persisted per message record.
package codec

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"messenger-service/internal/models"
)

// FormatError reports content that could not be decoded per its declared type.
type FormatError struct {
	Type    string
	Content string
	Reason  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed %s content %q: %s", e.Type, e.Content, e.Reason)
}

// Encode flattens a message payload into its persisted type tag and content
// string. Text encodes as the literal text, photo and video as the media's
// absolute URL, location as "longitude,latitude". Unsupported kinds encode
// with empty content; they are never produced by this app's senders.
func Encode(content models.MessageContent) (typeTag string, flat string) {
	switch c := content.(type) {
	case models.TextContent:
		return models.KindText, c.Text
	case models.PhotoContent:
		return models.KindPhoto, c.URL
	case models.VideoContent:
		return models.KindVideo, c.URL
	case models.LocationContent:
		return models.KindLocation, fmt.Sprintf("%v,%v", c.Longitude, c.Latitude)
	default:
		return content.Kind(), ""
	}
}

// Decode reconstructs a typed payload from a record's type tag and flat
// content. Unknown tags, including "text", decode as literal text.
func Decode(typeTag string, flat string) (models.MessageContent, error) {
	switch typeTag {
	case models.KindPhoto:
		if err := validateMediaURL(typeTag, flat); err != nil {
			return nil, err
		}
		return models.PhotoContent{URL: flat}, nil
	case models.KindVideo:
		if err := validateMediaURL(typeTag, flat); err != nil {
			return nil, err
		}
		return models.VideoContent{URL: flat}, nil
	case models.KindLocation:
		return decodeLocation(flat)
	default:
		return models.TextContent{Text: flat}, nil
	}
}

// EncodeRecord flattens a full message into its persisted record form.
func EncodeRecord(m models.Message, date string) models.MessageRecord {
	typeTag, flat := Encode(m.Content)
	return models.MessageRecord{
		ID:          m.ID,
		Type:        typeTag,
		Content:     flat,
		Date:        date,
		SenderEmail: m.SenderEmail,
		IsRead:      false,
		Name:        m.SenderName,
	}
}

// validateMediaURL distinguishes stored media references from inline text:
// media content must parse as an absolute URL with an http scheme.
func validateMediaURL(typeTag, content string) error {
	u, err := url.Parse(content)
	if err != nil {
		return &FormatError{Type: typeTag, Content: content, Reason: "not a URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &FormatError{Type: typeTag, Content: content, Reason: "URL scheme is not http"}
	}
	return nil
}

func decodeLocation(content string) (models.MessageContent, error) {
	parts := strings.Split(content, ",")
	if len(parts) < 2 {
		return nil, &FormatError{Type: models.KindLocation, Content: content, Reason: "expected longitude,latitude"}
	}
	// Fixed order: longitude first, then latitude.
	longitude, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, &FormatError{Type: models.KindLocation, Content: content, Reason: "longitude is not a number"}
	}
	latitude, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, &FormatError{Type: models.KindLocation, Content: content, Reason: "latitude is not a number"}
	}
	return models.LocationContent{Longitude: longitude, Latitude: latitude}, nil
}
