package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/tests/testutil"
)

func sampleDetail(id string, createdAt time.Time) model.MessageDetail {
	return model.MessageDetail{
		Message: model.Message{
			ID:        id,
			From:      model.Address{Name: "Sender", Address: "sender@example.test"},
			To:        []model.Address{{Address: "me@example.test"}},
			Subject:   "subject of " + id,
			Seen:      false,
			CreatedAt: createdAt,
		},
		Text: "body of " + id,
		HTML: []string{"<p>body of " + id + "</p>"},
	}
}

func TestSaveAndLoadDetails(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := sampleDetail("m1", base)
	newer := sampleDetail("m2", base.Add(time.Hour))

	for _, d := range []model.MessageDetail{older, newer} {
		if err := s.SaveDetail(ctx, "acc-1", d); err != nil {
			t.Fatalf("SaveDetail(%s) error: %v", d.ID, err)
		}
	}

	details, err := s.LoadDetails(ctx, "acc-1")
	if err != nil {
		t.Fatalf("LoadDetails() error: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(details))
	}
	if details[0].ID != "m2" {
		t.Errorf("expected newest first, got %s", details[0].ID)
	}
	if details[1].Text != "body of m1" {
		t.Errorf("payload round trip lost the body: %q", details[1].Text)
	}
	if len(details[1].HTML) != 1 {
		t.Errorf("payload round trip lost the html body: %+v", details[1].HTML)
	}
}

func TestSaveDetailReplacesExisting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	detail := sampleDetail("m1", time.Now().UTC())
	if err := s.SaveDetail(ctx, "acc-1", detail); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}

	detail.Seen = true
	if err := s.SaveDetail(ctx, "acc-1", detail); err != nil {
		t.Fatalf("SaveDetail() replace error: %v", err)
	}

	details, err := s.LoadDetails(ctx, "acc-1")
	if err != nil {
		t.Fatalf("LoadDetails() error: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected 1 detail after replace, got %d", len(details))
	}
	if !details[0].Seen {
		t.Error("replace must persist the updated seen flag")
	}
}

func TestDetailsAreScopedPerAccount(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveDetail(ctx, "acc-1", sampleDetail("m1", time.Now().UTC())); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}
	if err := s.SaveDetail(ctx, "acc-2", sampleDetail("m1", time.Now().UTC())); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}

	if err := s.DeleteAccountData(ctx, "acc-1"); err != nil {
		t.Fatalf("DeleteAccountData() error: %v", err)
	}

	gone, err := s.LoadDetails(ctx, "acc-1")
	if err != nil {
		t.Fatalf("LoadDetails() error: %v", err)
	}
	if len(gone) != 0 {
		t.Errorf("expected acc-1 archive to be empty, got %d", len(gone))
	}

	kept, err := s.LoadDetails(ctx, "acc-2")
	if err != nil {
		t.Fatalf("LoadDetails() error: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("acc-2 archive must survive, got %d", len(kept))
	}
}

func TestDeleteDetail(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveDetail(ctx, "acc-1", sampleDetail("m1", time.Now().UTC())); err != nil {
		t.Fatalf("SaveDetail() error: %v", err)
	}
	if err := s.DeleteDetail(ctx, "acc-1", "m1"); err != nil {
		t.Fatalf("DeleteDetail() error: %v", err)
	}

	details, err := s.LoadDetails(ctx, "acc-1")
	if err != nil {
		t.Fatalf("LoadDetails() error: %v", err)
	}
	if len(details) != 0 {
		t.Errorf("expected empty archive, got %d", len(details))
	}
}

func TestLoadDetailsEmptyAccount(t *testing.T) {
	s := testutil.NewTestStore(t)

	details, err := s.LoadDetails(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadDetails() error: %v", err)
	}
	if len(details) != 0 {
		t.Errorf("expected no details, got %d", len(details))
	}
}
