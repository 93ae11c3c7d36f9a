package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/tempmail/internal/model"
)

// Client is a thin HTTP client for the disposable-email REST API.
// It handles Bearer token authentication and JSON (de)serialization.
// No retries are performed; every failure surfaces once to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client. The baseURL should be the root
// URL of the service (e.g., https://api.mail.tm).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code   int
	Method string
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.Code, e.Method, e.Path, e.Body,
	)
}

// StatusCode extracts the HTTP status code from err, or 0 if err does
// not carry one (transport failure).
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Domains fetches the selectable address suffixes. No authentication
// is required.
func (c *Client) Domains(ctx context.Context) ([]model.Domain, error) {
	var coll domainCollection
	if _, err := c.do(ctx, http.MethodGet, "/domains", "", nil, &coll); err != nil {
		return nil, err
	}
	return coll.Members, nil
}

// CreateAccount registers a new mailbox account for the given address.
func (c *Client) CreateAccount(
	ctx context.Context,
	address, password string,
) (*model.Account, error) {
	var account model.Account
	body := accountRequest{Address: address, Password: password}
	if _, err := c.do(ctx, http.MethodPost, "/accounts", "", body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Token exchanges address/password for a bearer token.
func (c *Client) Token(
	ctx context.Context,
	address, password string,
) (*TokenResponse, error) {
	var resp TokenResponse
	body := accountRequest{Address: address, Password: password}
	if _, err := c.do(ctx, http.MethodPost, "/token", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Messages fetches one page of message summaries.
func (c *Client) Messages(
	ctx context.Context,
	token string,
	page, perPage int,
) (*MessagePage, error) {
	path := fmt.Sprintf("/messages?page=%d&itemsPerPage=%d", page, perPage)
	var coll messageCollection
	if _, err := c.do(ctx, http.MethodGet, path, token, nil, &coll); err != nil {
		return nil, err
	}
	return &MessagePage{Items: coll.Members, Total: coll.TotalItems}, nil
}

// Message fetches the full content of a single message.
func (c *Client) Message(
	ctx context.Context,
	token, id string,
) (*model.MessageDetail, error) {
	var detail model.MessageDetail
	if _, err := c.do(ctx, http.MethodGet, "/messages/"+id, token, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// MessageSource downloads the raw RFC 822 source of a message.
func (c *Client) MessageSource(
	ctx context.Context,
	token, id string,
) ([]byte, error) {
	var src sourceResponse
	if _, err := c.do(ctx, http.MethodGet, "/sources/"+id, token, nil, &src); err != nil {
		return nil, err
	}
	return []byte(src.Data), nil
}

// MarkSeen flags a message as read on the server.
func (c *Client) MarkSeen(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodPatch, "/messages/"+id, token, seenPatch{Seen: true}, nil)
	return err
}

// DeleteMessage removes a single message from the mailbox.
func (c *Client) DeleteMessage(ctx context.Context, token, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/messages/"+id, token, nil, nil)
	return err
}

// Me validates the token by fetching the authenticated account. The
// response body is ignored; only success or failure matters.
func (c *Client) Me(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodGet, "/me", token, nil, nil)
	return err
}

// DeleteAccount deletes the account. It returns the HTTP status code
// when a response was received; err is non-nil only for transport or
// request-building failures.
func (c *Client) DeleteAccount(
	ctx context.Context,
	token, id string,
) (int, error) {
	status, err := c.do(ctx, http.MethodDelete, "/accounts/"+id, token, nil, nil)
	if err != nil && status == 0 {
		return 0, err
	}
	return status, nil
}

// do builds the request, applies auth headers, executes it once, and
// decodes the JSON response. It returns the HTTP status code when a
// response was received (even for non-2xx, alongside a StatusError).
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	token string,
	body interface{},
	result interface{},
) (int, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		if method == http.MethodPatch {
			// The service requires merge-patch for partial updates.
			req.Header.Set("Content-Type", "application/merge-patch+json")
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return resp.StatusCode, fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, &StatusError{
			Code:   resp.StatusCode,
			Method: method,
			Path:   path,
			Body:   strings.TrimSpace(string(respBody)),
		}
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return resp.StatusCode, fmt.Errorf(
			"unmarshaling response from %s %s: %w", method, path, err,
		)
	}

	return resp.StatusCode, nil
}
