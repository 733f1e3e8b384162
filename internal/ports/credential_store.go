package ports

import "context"

// CredentialStore is a durable string key-value store. Get returns an error
// wrapping domain.ErrCredentialNotFound when the key is absent.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
