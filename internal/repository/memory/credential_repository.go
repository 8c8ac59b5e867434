package memory

import (
	"context"
	"strings"

	"github.com/patrickmn/go-cache"
)

// CredentialRepository keeps secrets in process memory. Entries never expire;
// tokens are replaced in place on refresh, not evicted.
type CredentialRepository struct {
	cache *cache.Cache
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *CredentialRepository) Get(_ context.Context, key string) (string, error) {
	if x, found := r.cache.Get(key); found {
		return x.(string), nil
	}
	return "", nil
}

func (r *CredentialRepository) Put(_ context.Context, key, value string) error {
	r.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (r *CredentialRepository) Delete(_ context.Context, key string) error {
	r.cache.Delete(key)
	return nil
}

func (r *CredentialRepository) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range r.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
