// Package eml parses raw RFC 822 message sources downloaded from the
// mail service and saves them to disk as .eml files.
package eml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Attachment holds metadata about a single attachment part.
type Attachment struct {
	Filename string
	MIMEType string
	Size     int64
}

// Parsed is the decoded form of a raw message source.
type Parsed struct {
	Subject     string
	From        string
	To          string
	Date        time.Time
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Parse decodes a raw RFC 822 message and extracts the header fields,
// the text/plain and text/html bodies, and attachment metadata.
func Parse(raw []byte) (*Parsed, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message source: %w", err)
	}
	defer mr.Close()

	parsed := &Parsed{}

	header := mr.Header
	parsed.Subject, _ = header.Subject()
	if date, err := header.Date(); err == nil {
		parsed.Date = date
	}
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		parsed.From = from[0].String()
	}
	if to, err := header.AddressList("To"); err == nil && len(to) > 0 {
		addrs := make([]string, len(to))
		for i, a := range to {
			addrs[i] = a.String()
		}
		parsed.To = strings.Join(addrs, ", ")
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				parsed.TextBody = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				parsed.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			parsed.Attachments = append(parsed.Attachments, Attachment{
				Filename: filename,
				MIMEType: contentType,
				Size:     int64(len(body)),
			})
		}
	}

	return parsed, nil
}

// Save writes a raw message source to path as-is, creating parent
// directories if needed.
func Save(path string, raw []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SuggestFilename builds a safe .eml filename from a message subject
// and id.
func SuggestFilename(subject, id string) string {
	name := strings.TrimSpace(subject)
	if name == "" {
		name = id
	}

	var b strings.Builder
	lastDash := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ', r == '-', r == '_':
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}

	safe := strings.Trim(b.String(), "-")
	if safe == "" {
		safe = id
	}
	if len(safe) > 60 {
		safe = safe[:60]
	}
	return safe + ".eml"
}
