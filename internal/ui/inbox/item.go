package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string { return i.Message.Subject }

// MessageDelegate implements list.ItemDelegate for inbox rows.
type MessageDelegate struct{}

// Height returns the number of lines each item takes.
func (d MessageDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d MessageDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d MessageDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single inbox row.
func (d MessageDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	msg := mi.Message
	isSelected := index == m.Index()

	marker := "  "
	if !msg.Seen {
		marker = theme.UnseenStyle.Render("● ")
	}

	from := msg.From.Name
	if from == "" {
		from = msg.From.Address
	}
	if len(from) > 24 {
		from = from[:23] + "…"
	}

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	clip := ""
	if msg.HasAttachments {
		clip = theme.AttachmentStyle.Render(" 📎")
	}

	timeStr := theme.SeenStyle.Render(relativeTime(msg.CreatedAt))

	line := fmt.Sprintf("%s%-24s  %s%s  %s", marker, from, subject, clip, timeStr)

	if msg.Seen && !isSelected {
		line = theme.SeenStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}
