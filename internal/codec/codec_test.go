package codec

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content models.MessageContent
	}{
		{"text", models.TextContent{Text: "hello there"}},
		{"photo", models.PhotoContent{URL: "https://cdn.example.com/p/abc.png"}},
		{"video", models.VideoContent{URL: "http://cdn.example.com/v/abc.mov"}},
		{"location", models.LocationContent{Longitude: 35.5, Latitude: 31.8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typeTag, flat := Encode(tt.content)
			require.Equal(t, tt.content.Kind(), typeTag)

			decoded, err := Decode(typeTag, flat)
			require.NoError(t, err)
			assert.Equal(t, tt.content, decoded)
		})
	}
}

func TestEncodeLocationOrder(t *testing.T) {
	_, flat := Encode(models.LocationContent{Longitude: 35.5, Latitude: 31.8})
	assert.Equal(t, "35.5,31.8", flat, "longitude must come before latitude")
}

func TestDecodeLocation(t *testing.T) {
	content, err := Decode(models.KindLocation, "35.5,31.8")
	require.NoError(t, err)
	loc, ok := content.(models.LocationContent)
	require.True(t, ok)
	assert.Equal(t, 35.5, loc.Longitude)
	assert.Equal(t, 31.8, loc.Latitude)
}

func TestDecodeLocationMalformed(t *testing.T) {
	for _, flat := range []string{"", "35.5", "abc,31.8", "35.5,def"} {
		_, err := Decode(models.KindLocation, flat)
		require.Error(t, err, "content %q", flat)
		var fe *FormatError
		assert.True(t, errors.As(err, &fe))
	}
}

func TestDecodeMediaRejectsNonHTTPURL(t *testing.T) {
	for _, typeTag := range []string{models.KindPhoto, models.KindVideo} {
		_, err := Decode(typeTag, "ftp://cdn.example.com/abc.png")
		require.Error(t, err)
		var fe *FormatError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, typeTag, fe.Type)
	}
}

func TestDecodeUnknownTagFallsBackToText(t *testing.T) {
	content, err := Decode("emoji", "🙂")
	require.NoError(t, err)
	assert.Equal(t, models.TextContent{Text: "🙂"}, content)
}

func TestEncodeUnsupportedKindEmptyContent(t *testing.T) {
	typeTag, flat := Encode(models.UnsupportedContent{KindTag: models.KindAudio})
	assert.Equal(t, models.KindAudio, typeTag)
	assert.Empty(t, flat)
}

func TestEncodeRecord(t *testing.T) {
	m := models.Message{
		ID:          "bob-x-com_alice-x-com_Sep 28, 2023 at 3:30:45 PM UTC",
		SenderEmail: "alice@x.com",
		SenderName:  "Alice Smith",
		SentAt:      time.Date(2023, 9, 28, 15, 30, 45, 0, time.UTC),
		Content:     models.TextContent{Text: "hi"},
	}
	rec := EncodeRecord(m, "Sep 28, 2023 at 3:30:45 PM UTC")
	assert.Equal(t, m.ID, rec.ID)
	assert.Equal(t, models.KindText, rec.Type)
	assert.Equal(t, "hi", rec.Content)
	assert.Equal(t, "Sep 28, 2023 at 3:30:45 PM UTC", rec.Date)
	assert.Equal(t, "alice@x.com", rec.SenderEmail)
	assert.Equal(t, "Alice Smith", rec.Name)
	assert.False(t, rec.IsRead)
}
