package ingest

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

// Envelope is one parsed Gmail message, headers flattened and the plain-text
// body extracted.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	To        string
	Cc        string
	Date      time.Time
	Content   string
}

// String renders the envelope the way it is fed to the summarizer.
func (e *Envelope) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Date: %s\n", e.Date.Format(time.RFC1123Z))
	fmt.Fprintf(&sb, "To: %s\n", e.To)
	if e.Cc != "" {
		fmt.Fprintf(&sb, "Cc: %s\n", e.Cc)
	}
	fmt.Fprintf(&sb, "From: %s\nSubject: %s\n\n%s", e.From, e.Subject, e.Content)
	return sb.String()
}

// Addresses returns the bare addresses of every participant: sender first,
// then To and Cc recipients.
func (e *Envelope) Addresses() []string {
	out := make([]string, 0, 4)
	if addr := ExtractAddress(e.From); addr != "" {
		out = append(out, addr)
	}
	for _, field := range []string{e.To, e.Cc} {
		for _, part := range strings.Split(field, ",") {
			if addr := ExtractAddress(part); addr != "" {
				out = append(out, addr)
			}
		}
	}
	return out
}

var angleBracket = regexp.MustCompile(`<(.*?)>`)

// ExtractAddress pulls the address out of a "Name <addr>" header value,
// returning the trimmed input when no angle brackets are present.
func ExtractAddress(value string) string {
	if m := angleBracket.FindStringSubmatch(value); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(value)
}

// extractSubstrings rewrites a comma-separated header value so each entry is
// its bare address. Used for the Cc redundancy check.
func extractSubstrings(value string) string {
	parts := strings.Split(value, ", ")
	for i, p := range parts {
		if m := angleBracket.FindStringSubmatch(p); m != nil {
			parts[i] = m[1]
		}
	}
	return strings.Join(parts, ", ")
}

// ParseMessage flattens a full-format Gmail message into an Envelope. It
// returns an error when the Date header is missing or unparsable; callers
// skip such messages.
func ParseMessage(msg *gmail.Message) (*Envelope, error) {
	if msg.Payload == nil {
		return nil, fmt.Errorf("message %s has no payload", msg.Id)
	}

	env := &Envelope{MessageID: msg.Id}
	var dateHeader string
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			env.From = h.Value
		case "to":
			env.To = h.Value
		case "cc":
			env.Cc = h.Value
		case "subject":
			env.Subject = h.Value
		case "date":
			dateHeader = h.Value
		}
	}

	if dateHeader == "" {
		return nil, fmt.Errorf("message %s has no date header", msg.Id)
	}
	date, err := mail.ParseDate(dateHeader)
	if err != nil {
		return nil, fmt.Errorf("message %s: parsing date %q: %w", msg.Id, dateHeader, err)
	}
	env.Date = date

	// A Cc that duplicates the To or From line carries no information.
	if env.Cc != "" {
		cc := extractSubstrings(env.Cc)
		if strings.Contains(extractSubstrings(env.To), cc) ||
			strings.Contains(extractSubstrings(env.From), cc) {
			env.Cc = ""
		}
	}

	var chunks []string
	collectPlainText(msg.Payload, &chunks)
	env.Content = trimQuoted(strings.Join(chunks, "\n\n"))

	return env, nil
}

// collectPlainText walks the MIME tree depth-first, decoding every text/plain
// leaf it finds.
func collectPlainText(part *gmail.MessagePart, chunks *[]string) {
	if part == nil {
		return
	}
	for _, child := range part.Parts {
		collectPlainText(child, chunks)
	}
	if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			data, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		}
		if err == nil {
			*chunks = append(*chunks, string(data))
		}
	}
}

// trimQuoted drops reply-quoted lines (those starting with ">"). When any
// were removed, the final three lines go too: they are the "On <date>, X
// wrote:" attribution left dangling above the quote.
func trimQuoted(content string) string {
	lines := strings.Split(content, "\n")
	filtered := lines[:0:0]
	for _, line := range lines {
		if !strings.HasPrefix(line, ">") {
			filtered = append(filtered, line)
		}
	}
	if len(filtered) < len(lines) {
		if len(filtered) >= 3 {
			filtered = filtered[:len(filtered)-3]
		} else {
			filtered = nil
		}
	}
	return strings.TrimRight(strings.Join(filtered, "\n"), " \t\r\n")
}
