package contract

import "context"

// CredentialStore is a durable key -> opaque-value map for secrets. OAuth
// token keys use constant.CredentialKeyOAuthToken plus the workspace id.
type CredentialStore interface {
	// Get returns ("", nil) when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}
