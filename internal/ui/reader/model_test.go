package reader

import (
	"strings"
	"testing"

	"github.com/nhle/tempmail/internal/eml"
	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
)

func detailWithAttachments() *model.MessageDetail {
	return &model.MessageDetail{
		Message: model.Message{
			ID:             "m1",
			From:           model.Address{Name: "Sender", Address: "sender@example.test"},
			To:             []model.Address{{Address: "me@example.test"}},
			Subject:        "Report",
			HasAttachments: true,
		},
		Text: "See attached.",
	}
}

func TestViewShowsAttachmentInventory(t *testing.T) {
	m := New(keys.DefaultKeyMap())
	m.SetSize(80, 24)
	m.SetDetail(detailWithAttachments())

	if view := m.View(); !strings.Contains(view, "Listing attachments") {
		t.Error("expected a placeholder while the inventory loads")
	}

	m.SetAttachments([]eml.Attachment{
		{Filename: "report.pdf", MIMEType: "application/pdf", Size: 2048},
	})

	view := m.View()
	if !strings.Contains(view, "report.pdf") {
		t.Error("expected the attachment filename in the rendered view")
	}
	if !strings.Contains(view, "application/pdf") {
		t.Error("expected the attachment mime type in the rendered view")
	}
	if !strings.Contains(view, "2.0 KiB") {
		t.Error("expected the formatted attachment size in the rendered view")
	}
}

func TestSetDetailDropsPreviousAttachments(t *testing.T) {
	m := New(keys.DefaultKeyMap())
	m.SetSize(80, 24)
	m.SetDetail(detailWithAttachments())
	m.SetAttachments([]eml.Attachment{
		{Filename: "report.pdf", MIMEType: "application/pdf", Size: 2048},
	})

	next := detailWithAttachments()
	next.ID = "m2"
	m.SetDetail(next)

	if view := m.View(); strings.Contains(view, "report.pdf") {
		t.Error("attachment inventory must not leak into the next message")
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
	}

	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
