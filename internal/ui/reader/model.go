// Package reader renders a single message with its headers and body in
// a scrollable viewport.
package reader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tempmail/internal/eml"
	"github.com/nhle/tempmail/internal/keys"
	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/theme"
)

var (
	tagPattern    = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>`)
	markupPattern = regexp.MustCompile(`<[^>]+>`)
	blankPattern  = regexp.MustCompile(`\n{3,}`)
)

// Model is the message reader view.
type Model struct {
	viewport    viewport.Model
	keys        *keys.KeyMap
	detail      *model.MessageDetail
	attachments []eml.Attachment

	width  int
	height int
	ready  bool
}

// New creates an empty reader.
func New(keyMap *keys.KeyMap) Model {
	return Model{keys: keyMap}
}

// SetDetail loads a message into the reader and resets scrolling. Any
// attachment inventory from the previous message is dropped; it is
// parsed from the raw source and arrives separately.
func (m *Model) SetDetail(detail *model.MessageDetail) {
	m.detail = detail
	m.attachments = nil
	if m.ready {
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
	}
}

// SetAttachments fills in the attachment inventory for the message
// currently shown.
func (m *Model) SetAttachments(attachments []eml.Attachment) {
	m.attachments = attachments
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// Detail returns the message currently shown, if any.
func (m Model) Detail() *model.MessageDetail {
	return m.detail
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}

	if m.detail != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

// Update handles scrolling.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the reader.
func (m Model) View() string {
	if m.detail == nil {
		return theme.HelpStyle.Render("  No message selected.")
	}
	if !m.ready {
		return ""
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	d := m.detail
	if d == nil {
		return ""
	}

	from := d.From.Name
	if from != "" && d.From.Address != "" {
		from = fmt.Sprintf("%s <%s>", d.From.Name, d.From.Address)
	} else if from == "" {
		from = d.From.Address
	}

	to := make([]string, len(d.To))
	for i, addr := range d.To {
		if addr.Name != "" {
			to[i] = fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
		} else {
			to[i] = addr.Address
		}
	}

	headerLabel := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)

	var b strings.Builder
	b.WriteString(headerLabel.Render("From:    ") + from + "\n")
	b.WriteString(headerLabel.Render("To:      ") + strings.Join(to, ", ") + "\n")
	b.WriteString(headerLabel.Render("Subject: ") + d.Subject + "\n")
	if !d.CreatedAt.IsZero() {
		b.WriteString(headerLabel.Render("Date:    ") + d.CreatedAt.Local().Format("Mon, 02 Jan 2006 15:04") + "\n")
	}
	if len(m.attachments) > 0 {
		for _, att := range m.attachments {
			line := fmt.Sprintf("📎 %s (%s, %s)", att.Filename, att.MIMEType, humanSize(att.Size))
			b.WriteString(theme.AttachmentStyle.Render(line) + "\n")
		}
		b.WriteString(theme.HelpStyle.Render("Press s to save the raw source with its attachments.") + "\n")
	} else if d.HasAttachments {
		b.WriteString(theme.AttachmentStyle.Render("Listing attachments…") + "\n")
	}
	b.WriteString(strings.Repeat("─", min(m.width, 72)) + "\n\n")
	b.WriteString(bodyText(d))

	return lipgloss.NewStyle().Width(m.width).Render(b.String())
}

// bodyText picks the plain-text body when present and otherwise strips
// the HTML body down to readable text.
func bodyText(d *model.MessageDetail) string {
	if strings.TrimSpace(d.Text) != "" {
		return d.Text
	}
	if len(d.HTML) > 0 {
		return stripHTML(strings.Join(d.HTML, "\n"))
	}
	return theme.HelpStyle.Render("(empty message body)")
}

func stripHTML(html string) string {
	text := tagPattern.ReplaceAllString(html, "")
	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = markupPattern.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")

	text = blankPattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// humanSize formats a byte count for the attachment list.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
