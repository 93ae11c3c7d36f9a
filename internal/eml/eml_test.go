package eml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func TestParsePlainText(t *testing.T) {
	raw := crlf(
		"From: Alice <alice@example.test>",
		"To: Bob <bob@example.test>",
		"Subject: Greetings",
		"Date: Mon, 02 Mar 2026 10:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Hello Bob.",
	)

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if parsed.Subject != "Greetings" {
		t.Errorf("unexpected subject %q", parsed.Subject)
	}
	if !strings.Contains(parsed.From, "alice@example.test") {
		t.Errorf("unexpected from %q", parsed.From)
	}
	if !strings.Contains(parsed.To, "bob@example.test") {
		t.Errorf("unexpected to %q", parsed.To)
	}
	if parsed.Date.IsZero() {
		t.Error("expected parsed date")
	}
	if !strings.Contains(parsed.TextBody, "Hello Bob.") {
		t.Errorf("unexpected text body %q", parsed.TextBody)
	}
	if len(parsed.Attachments) != 0 {
		t.Errorf("expected no attachments, got %d", len(parsed.Attachments))
	}
}

func TestParseMultipartWithAttachment(t *testing.T) {
	raw := crlf(
		"From: Alice <alice@example.test>",
		"To: Bob <bob@example.test>",
		"Subject: Report attached",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="BOUNDARY"`,
		"",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"See attachment.",
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>See attachment.</p>",
		"--BOUNDARY",
		"Content-Type: application/pdf",
		`Content-Disposition: attachment; filename="report.pdf"`,
		"",
		"%PDF-not-really",
		"--BOUNDARY--",
	)

	parsed, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if !strings.Contains(parsed.TextBody, "See attachment.") {
		t.Errorf("unexpected text body %q", parsed.TextBody)
	}
	if !strings.Contains(parsed.HTMLBody, "<p>") {
		t.Errorf("unexpected html body %q", parsed.HTMLBody)
	}
	if len(parsed.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(parsed.Attachments))
	}

	att := parsed.Attachments[0]
	if att.Filename != "report.pdf" {
		t.Errorf("unexpected filename %q", att.Filename)
	}
	if att.MIMEType != "application/pdf" {
		t.Errorf("unexpected mime type %q", att.MIMEType)
	}
	if att.Size == 0 {
		t.Error("expected non-zero attachment size")
	}
}

func TestSaveWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "message.eml")
	raw := []byte("From: a@example.test\r\n\r\nbody\r\n")

	if err := Save(path, raw); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(got) != string(raw) {
		t.Error("saved content must match the raw source byte for byte")
	}
}

func TestSuggestFilename(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		id      string
		want    string
	}{
		{"plain subject", "Hello World", "m1", "Hello-World.eml"},
		{"special characters", "Invoice #42: due / overdue?", "m2", "Invoice-42-due-overdue.eml"},
		{"empty subject", "", "m3", "m3.eml"},
		{"only symbols", "!!!", "m4", "m4.eml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestFilename(tt.subject, tt.id); got != tt.want {
				t.Errorf("SuggestFilename(%q, %q) = %q, want %q", tt.subject, tt.id, got, tt.want)
			}
		})
	}
}

func TestSuggestFilenameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := SuggestFilename(long, "m1")
	if len(got) != 60+len(".eml") {
		t.Errorf("expected capped filename, got %d chars", len(got))
	}
}
