package ingest

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func plainMessage(id, from, to, date, body string) *gmail.Message {
	return &gmail.Message{
		Id: id,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "To", Value: to},
				{Name: "Subject", Value: "Hello"},
				{Name: "Date", Value: date},
			},
			Body: &gmail.MessagePartBody{Data: b64(body)},
		},
	}
}

func TestParseMessage(t *testing.T) {
	msg := plainMessage("m1",
		"Alice Chen <alice@example.com>",
		"bob@example.com",
		"Mon, 01 May 2023 10:30:00 -0700",
		"See you friday.")

	env, err := ParseMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "m1", env.MessageID)
	assert.Equal(t, "Hello", env.Subject)
	assert.Equal(t, "Alice Chen <alice@example.com>", env.From)
	assert.Equal(t, "See you friday.", env.Content)
	assert.Equal(t, time.Date(2023, time.May, 1, 10, 30, 0, 0, env.Date.Location()), env.Date)
}

func TestParseMessageNestedParts(t *testing.T) {
	msg := &gmail.Message{
		Id: "m2",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
				{Name: "To", Value: "bob@example.com"},
				{Name: "Date", Value: "Mon, 01 May 2023 10:30:00 -0700"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "multipart/mixed",
					Parts: []*gmail.MessagePart{
						{
							MimeType: "text/plain",
							Body:     &gmail.MessagePartBody{Data: b64("nested text")},
						},
						{
							MimeType: "text/html",
							Body:     &gmail.MessagePartBody{Data: b64("<p>ignored</p>")},
						},
					},
				},
				{
					MimeType: "text/plain",
					Body:     &gmail.MessagePartBody{Data: b64("top-level text")},
				},
			},
		},
	}

	env, err := ParseMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "nested text\n\ntop-level text", env.Content)
}

func TestParseMessageMissingDate(t *testing.T) {
	msg := &gmail.Message{
		Id: "m3",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "From", Value: "alice@example.com"},
			},
		},
	}
	_, err := ParseMessage(msg)
	assert.Error(t, err)

	msg.Payload.Headers = append(msg.Payload.Headers,
		&gmail.MessagePartHeader{Name: "Date", Value: "not a date"})
	_, err = ParseMessage(msg)
	assert.Error(t, err)
}

func TestParseMessageRedundantCc(t *testing.T) {
	msg := plainMessage("m4",
		"Alice <alice@example.com>",
		"Bob <bob@example.com>",
		"Mon, 01 May 2023 10:30:00 -0700",
		"body")
	msg.Payload.Headers = append(msg.Payload.Headers,
		&gmail.MessagePartHeader{Name: "Cc", Value: "Bob Again <bob@example.com>"})

	env, err := ParseMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "", env.Cc)

	// A distinct Cc survives.
	msg = plainMessage("m5",
		"Alice <alice@example.com>",
		"Bob <bob@example.com>",
		"Mon, 01 May 2023 10:30:00 -0700",
		"body")
	msg.Payload.Headers = append(msg.Payload.Headers,
		&gmail.MessagePartHeader{Name: "Cc", Value: "Carol <carol@example.com>"})

	env, err = ParseMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "Carol <carol@example.com>", env.Cc)
}

func TestTrimQuoted(t *testing.T) {
	// No quoted lines: content passes through.
	assert.Equal(t, "line one\nline two", trimQuoted("line one\nline two"))

	// Quoted lines are dropped along with the trailing attribution block.
	content := "my reply\n" +
		"more of my reply\n" +
		"trailer one\n" +
		"trailer two\n" +
		"On Mon, Alice wrote:\n" +
		"> original message\n" +
		"> second quoted line"
	assert.Equal(t, "my reply\nmore of my reply", trimQuoted(content))

	// Everything quoted collapses to nothing.
	assert.Equal(t, "", trimQuoted("> a\n> b"))
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "alice@example.com", ExtractAddress("Alice Chen <alice@example.com>"))
	assert.Equal(t, "alice@example.com", ExtractAddress("alice@example.com"))
	assert.Equal(t, "alice@example.com", ExtractAddress("  alice@example.com  "))
}

func TestEnvelopeAddresses(t *testing.T) {
	env := &Envelope{
		From: "Alice <alice@example.com>",
		To:   "Bob <bob@example.com>, carol@example.com",
		Cc:   "Dan <dan@example.com>",
	}
	assert.Equal(t,
		[]string{"alice@example.com", "bob@example.com", "carol@example.com", "dan@example.com"},
		env.Addresses())
}

func TestEnvelopeString(t *testing.T) {
	env := &Envelope{
		From:    "Alice <alice@example.com>",
		To:      "bob@example.com",
		Subject: "Hello",
		Date:    time.Date(2023, time.May, 1, 10, 30, 0, 0, time.UTC),
		Content: "body text",
	}
	s := env.String()
	assert.Contains(t, s, "To: bob@example.com")
	assert.Contains(t, s, "Subject: Hello")
	assert.Contains(t, s, "body text")
	assert.NotContains(t, s, "Cc:")
}
