package mailtm

import "github.com/nhle/tempmail/internal/model"

// The service wraps collection responses in a JSON-LD hydra envelope;
// only the member list and total count are used.

// domainCollection is the response from GET /domains.
type domainCollection struct {
	Members    []model.Domain `json:"hydra:member"`
	TotalItems int            `json:"hydra:totalItems"`
}

// messageCollection is the response from GET /messages.
type messageCollection struct {
	Members    []model.Message `json:"hydra:member"`
	TotalItems int             `json:"hydra:totalItems"`
}

// MessagePage is one page of message summaries with the
// server-reported total item count.
type MessagePage struct {
	Items []model.Message
	Total int
}

// TokenResponse is the response from POST /token.
type TokenResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// accountRequest is the body for POST /accounts and POST /token.
type accountRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

// seenPatch is the body for PATCH /messages/{id}.
type seenPatch struct {
	Seen bool `json:"seen"`
}

// sourceResponse is the response from GET /sources/{id}; Data holds
// the raw RFC 822 message.
type sourceResponse struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}
