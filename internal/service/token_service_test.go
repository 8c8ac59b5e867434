package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"issue-agent-be/internal/constant"
	"issue-agent-be/internal/entity"
	"issue-agent-be/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type tokenTestHarness struct {
	svc          ITokenService
	creds        *memory.CredentialRepository
	refreshCalls *int64
	server       *httptest.Server
}

func newTokenHarness(t *testing.T) *tokenTestHarness {
	t.Helper()

	var refreshCalls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "refresh_token":
			atomic.AddInt64(&refreshCalls, 1)
			if r.Form.Get("refresh_token") == "dead-refresh" {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant"}`)
				return
			}
			fmt.Fprint(w, `{"access_token":"refreshed-access","token_type":"Bearer","expires_in":3600}`)
		case "authorization_code":
			fmt.Fprint(w, `{"access_token":"exchanged-access","token_type":"Bearer","expires_in":3600,"refresh_token":"fresh-refresh"}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/api/workspace", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer exchanged-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "ws-42", "name": "Acme"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	conf := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  server.URL + "/oauth/authorize",
			TokenURL: server.URL + "/oauth/token",
		},
		RedirectURL: "http://localhost/api/oauth/callback",
	}

	creds := memory.NewCredentialRepository()
	svc := NewTokenService(creds, conf, server.URL+"/api/workspace", nil, "", newNopLogger())

	return &tokenTestHarness{
		svc:          svc,
		creds:        creds,
		refreshCalls: &refreshCalls,
		server:       server,
	}
}

func seedToken(t *testing.T, h *tokenTestHarness, workspaceID string, tok entity.StoredToken) {
	t.Helper()
	raw, err := tok.Marshal()
	require.NoError(t, err)
	require.NoError(t, h.creds.Put(context.Background(), constant.CredentialKeyOAuthToken+workspaceID, raw))
}

func TestGetTokenRequiresWorkspaceID(t *testing.T) {
	h := newTokenHarness(t)

	_, err := h.svc.GetToken(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidWorkspace)
}

func TestGetTokenMissingMeansReauthorize(t *testing.T) {
	h := newTokenHarness(t)

	token, err := h.svc.GetToken(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestGetTokenValidPassesThrough(t *testing.T) {
	h := newTokenHarness(t)
	seedToken(t, h, "ws-1", entity.StoredToken{
		AccessToken:  "live-access",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
		RefreshToken: "good-refresh",
	})

	token, err := h.svc.GetToken(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "live-access", token)
	assert.Zero(t, atomic.LoadInt64(h.refreshCalls))
}

func TestGetTokenExpiredRefreshesOnce(t *testing.T) {
	h := newTokenHarness(t)
	seedToken(t, h, "ws-1", entity.StoredToken{
		AccessToken:  "stale-access",
		ExpiresAt:    time.Now().Add(-time.Minute).UnixMilli(),
		RefreshToken: "good-refresh",
	})

	token, err := h.svc.GetToken(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", token)
	assert.EqualValues(t, 1, atomic.LoadInt64(h.refreshCalls))

	// The refreshed token is persisted in place; the provider omitted a new
	// refresh token so the prior one survives.
	raw, err := h.creds.Get(context.Background(), constant.CredentialKeyOAuthToken+"ws-1")
	require.NoError(t, err)
	stored, err := entity.UnmarshalStoredToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", stored.AccessToken)
	assert.Equal(t, "good-refresh", stored.RefreshToken)
	assert.False(t, stored.Expired(time.Now()))
}

func TestGetTokenExpiredWithoutRefreshTokenIsUnrecoverable(t *testing.T) {
	h := newTokenHarness(t)
	seedToken(t, h, "ws-1", entity.StoredToken{
		AccessToken: "stale-access",
		ExpiresAt:   time.Now().Add(-time.Minute).UnixMilli(),
	})

	token, err := h.svc.GetToken(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Zero(t, atomic.LoadInt64(h.refreshCalls), "no refresh attempt without a refresh token")
}

func TestGetTokenRefreshFailureIsFatal(t *testing.T) {
	h := newTokenHarness(t)
	seedToken(t, h, "ws-1", entity.StoredToken{
		AccessToken:  "stale-access",
		ExpiresAt:    time.Now().Add(-time.Minute).UnixMilli(),
		RefreshToken: "dead-refresh",
	})

	_, err := h.svc.GetToken(context.Background(), "ws-1")
	assert.ErrorIs(t, err, ErrRefreshFailed)
}

func TestGetTokenCorruptRecordMeansReauthorize(t *testing.T) {
	h := newTokenHarness(t)
	require.NoError(t, h.creds.Put(context.Background(), constant.CredentialKeyOAuthToken+"ws-1", "{not json"))

	token, err := h.svc.GetToken(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestExchangeCodeStoresTokenUnderWorkspace(t *testing.T) {
	h := newTokenHarness(t)

	stored, workspaceID, err := h.svc.ExchangeCode(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "ws-42", workspaceID)
	assert.Equal(t, "exchanged-access", stored.AccessToken)
	assert.Equal(t, "fresh-refresh", stored.RefreshToken)

	raw, err := h.creds.Get(context.Background(), constant.CredentialKeyOAuthToken+"ws-42")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	roundTrip, err := entity.UnmarshalStoredToken(raw)
	require.NoError(t, err)
	assert.Equal(t, stored.AccessToken, roundTrip.AccessToken)
}

func TestExchangeCodeBadCodeFails(t *testing.T) {
	h := newTokenHarness(t)

	// The token endpoint rejects unknown grant types; simulate a bad code by
	// pointing the config at a closed server.
	conf := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint: oauth2.Endpoint{
			TokenURL: "http://127.0.0.1:1/oauth/token",
		},
	}
	svc := NewTokenService(memory.NewCredentialRepository(), conf, h.server.URL+"/api/workspace", nil, "", newNopLogger())

	_, _, err := svc.ExchangeCode(context.Background(), "whatever")
	assert.ErrorIs(t, err, ErrTokenExchangeFailed)
}
