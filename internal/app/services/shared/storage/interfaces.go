package storage

import "context"

type ArchiveWebhookInput struct {
	Provider  string
	PaymentID string
	EventID   string
	RawBody   []byte
}

// WebhookArchive keeps a copy of verified webhook bodies for dispute handling.
type WebhookArchive interface {
	ArchiveWebhook(ctx context.Context, in *ArchiveWebhookInput) (string, error)
}
