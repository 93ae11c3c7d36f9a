package mailtm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDomains(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/domains" {
			t.Errorf("expected /domains, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("domains must not send auth, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hydra:member": [
				{"id": "d1", "domain": "example.test"},
				{"id": "d2", "domain": "mail.test"}
			],
			"hydra:totalItems": 2
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	domains, err := client.Domains(context.Background())
	if err != nil {
		t.Fatalf("Domains() error: %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(domains))
	}
	if domains[0].Domain != "example.test" {
		t.Errorf("expected example.test, got %s", domains[0].Domain)
	}
}

func TestCreateAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/accounts" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["address"] != "alice@example.test" {
			t.Errorf("unexpected address %q", req["address"])
		}
		if req["password"] != "secret" {
			t.Errorf("unexpected password %q", req["password"])
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": "acc-1", "address": "alice@example.test"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	account, err := client.CreateAccount(context.Background(), "alice@example.test", "secret")
	if err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}
	if account.ID != "acc-1" {
		t.Errorf("expected acc-1, got %s", account.ID)
	}
}

func TestCreateAccountConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": "address: This value is already used."}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateAccount(context.Background(), "taken@example.test", "pw")
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if code := StatusCode(err); code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", code)
	}
}

func TestToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/token" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id": "acc-1", "token": "jwt-token"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Token(context.Background(), "alice@example.test", "secret")
	if err != nil {
		t.Fatalf("Token() error: %v", err)
	}
	if resp.Token != "jwt-token" {
		t.Errorf("expected jwt-token, got %s", resp.Token)
	}
}

func TestMessagesPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("expected /messages, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2, got %s", got)
		}
		if got := r.URL.Query().Get("itemsPerPage"); got != "10" {
			t.Errorf("expected itemsPerPage=10, got %s", got)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("expected bearer auth, got %q", auth)
		}
		_, _ = w.Write([]byte(`{
			"hydra:member": [
				{"id": "m1", "subject": "hello", "seen": false},
				{"id": "m2", "subject": "world", "seen": true}
			],
			"hydra:totalItems": 42
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	page, err := client.Messages(context.Background(), "tok", 2, 10)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if page.Total != 42 {
		t.Errorf("expected total 42, got %d", page.Total)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.Items[0].ID != "m1" || page.Items[1].Seen != true {
		t.Errorf("unexpected items: %+v", page.Items)
	}
}

func TestMarkSeenUsesMergePatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/merge-patch+json" {
			t.Errorf("expected merge-patch content type, got %s", ct)
		}

		var patch map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			t.Fatalf("decoding patch: %v", err)
		}
		if !patch["seen"] {
			t.Error("expected seen=true in patch body")
		}

		_, _ = w.Write([]byte(`{"seen": true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.MarkSeen(context.Background(), "tok", "m1"); err != nil {
		t.Fatalf("MarkSeen() error: %v", err)
	}
}

func TestMessageSource(t *testing.T) {
	raw := "From: a@example.test\r\nSubject: hi\r\n\r\nbody\r\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sources/m1" {
			t.Errorf("expected /sources/m1, got %s", r.URL.Path)
		}
		resp := map[string]string{"id": "m1", "data": raw}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	src, err := client.MessageSource(context.Background(), "tok", "m1")
	if err != nil {
		t.Fatalf("MessageSource() error: %v", err)
	}
	if string(src) != raw {
		t.Errorf("source mismatch: %q", src)
	}
}

func TestDeleteAccountReturnsStatus(t *testing.T) {
	tests := []struct {
		name       string
		respStatus int
	}{
		{"no content", http.StatusNoContent},
		{"not found", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete || r.URL.Path != "/accounts/acc-1" {
					t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tt.respStatus)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			status, err := client.DeleteAccount(context.Background(), "tok", "acc-1")
			if err != nil {
				t.Fatalf("DeleteAccount() error: %v", err)
			}
			if status != tt.respStatus {
				t.Errorf("expected status %d, got %d", tt.respStatus, status)
			}
		})
	}
}

func TestDeleteAccountTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL)
	status, err := client.DeleteAccount(context.Background(), "tok", "acc-1")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if status != 0 {
		t.Errorf("expected status 0 on transport failure, got %d", status)
	}
}

func TestMeValidatesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("expected /me, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer expired" {
			t.Errorf("unexpected auth header %q", auth)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.Me(context.Background(), "expired")
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if code := StatusCode(err); code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}
