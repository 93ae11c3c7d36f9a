package model

import "time"

// Address is a name/address pair as it appears in message headers.
type Address struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Message is the summary form of a mailbox message as returned by the
// paginated listing endpoint.
type Message struct {
	// ID is the server-assigned message identifier, unique per account.
	ID string `json:"id"`

	// From is the sender.
	From Address `json:"from"`

	// To lists the recipients.
	To []Address `json:"to"`

	// Subject is the message subject line.
	Subject string `json:"subject"`

	// Intro is a short server-generated preview of the body.
	Intro string `json:"intro"`

	// Seen reports whether the message has been marked read.
	Seen bool `json:"seen"`

	// HasAttachments reports whether the full message carries attachments.
	HasAttachments bool `json:"hasAttachments"`

	// Size is the message size in bytes.
	Size int `json:"size"`

	// CreatedAt is when the service received the message.
	CreatedAt time.Time `json:"createdAt"`
}

// MessageDetail is the full form of a message, fetched per id.
type MessageDetail struct {
	Message

	// HTML is the ordered sequence of HTML body fragments, if any.
	HTML []string `json:"html,omitempty"`

	// Text is the plain-text body, if any.
	Text string `json:"text,omitempty"`
}

// PageCursor tracks the most recent successful message listing.
// Page is 1-based; Page and Total are authoritative only immediately
// after a successful fetch.
type PageCursor struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// TotalPages returns the number of pages implied by the cursor, at
// least 1.
func (c PageCursor) TotalPages() int {
	if c.PageSize <= 0 || c.Total <= 0 {
		return 1
	}
	pages := (c.Total + c.PageSize - 1) / c.PageSize
	if pages < 1 {
		return 1
	}
	return pages
}
