package mailbox

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

const (
	// DefaultSubject is used when a message has no subject
	DefaultSubject = "(No Subject)"
	// DefaultSender is used when a message has no From header
	DefaultSender = "(Unknown Sender)"
)

// ParsedMessage is the readable content of a raw RFC 5322 message
type ParsedMessage struct {
	MessageID string
	Subject   string
	Sender    string
	Date      time.Time
	Body      string
}

// ParseMessage parses a raw message, collecting every inline text/plain and
// text/html part in order. HTML parts are reduced to their text. Parts are
// joined with a blank line. Input that is not a MIME message is returned as
// the body unchanged.
func ParseMessage(raw []byte) ParsedMessage {
	parsed := ParsedMessage{Subject: DefaultSubject, Sender: DefaultSender}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && mr == nil {
		parsed.Body = string(raw)
		return parsed
	}
	defer mr.Close()

	readHeader(&mr.Header, &parsed)

	var texts []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil || len(body) == 0 {
			continue
		}

		switch {
		case contentType == "" || strings.HasPrefix(contentType, "text/plain"):
			texts = append(texts, string(body))
		case strings.HasPrefix(contentType, "text/html"):
			if text := HTMLToText(string(body)); text != "" {
				texts = append(texts, text)
			}
		}
	}

	parsed.Body = strings.Join(texts, "\n\n")
	return parsed
}

func readHeader(h *mail.Header, parsed *ParsedMessage) {
	if subject, err := h.Subject(); err == nil && strings.TrimSpace(subject) != "" {
		parsed.Subject = subject
	}
	if from, err := h.Text("From"); err == nil && strings.TrimSpace(from) != "" {
		parsed.Sender = from
	}
	if id, err := h.MessageID(); err == nil {
		parsed.MessageID = id
	}
	if date, err := h.Date(); err == nil {
		parsed.Date = date
	}
}
