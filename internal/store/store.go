package store

import (
	"context"

	"github.com/nhle/tempmail/internal/model"
)

// Store defines the persistence interface for the local message
// archive. Fetched message details are written through per account so
// a restart can warm the in-memory cache without refetching bodies.
type Store interface {
	SaveDetail(ctx context.Context, accountID string, detail model.MessageDetail) error
	LoadDetails(ctx context.Context, accountID string) ([]model.MessageDetail, error)
	DeleteDetail(ctx context.Context, accountID, messageID string) error
	DeleteAccountData(ctx context.Context, accountID string) error
	Close() error
}
