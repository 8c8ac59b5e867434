package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"issue-agent-be/internal/constant"
	"issue-agent-be/internal/entity"
	"issue-agent-be/internal/pkg/logger"
	"issue-agent-be/internal/pkg/mailer"
	"issue-agent-be/internal/repository/contract"

	"golang.org/x/oauth2"
)

var (
	// ErrInvalidWorkspace means GetToken was called without a workspace id.
	ErrInvalidWorkspace = errors.New("workspace id is required")

	// ErrRefreshFailed is fatal to the calling turn: no token can be
	// recovered silently and the workspace must re-authorize.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrTokenExchangeFailed covers both the code grant and the workspace
	// identity fetch that keys the stored token.
	ErrTokenExchangeFailed = errors.New("token exchange failed")
)

type ITokenService interface {
	// GetToken returns the workspace's access token, transparently refreshing
	// an expired one. ("", nil) means no usable token exists and the
	// workspace must re-authorize.
	GetToken(ctx context.Context, workspaceID string) (string, error)

	// ExchangeCode runs the authorization-code grant, keys the token by the
	// workspace identity behind it, and persists it.
	ExchangeCode(ctx context.Context, code string) (*entity.StoredToken, string, error)

	// AuthCodeURL builds the provider redirect for the authorize endpoint.
	AuthCodeURL(state string) string
}

type tokenService struct {
	creds            contract.CredentialStore
	conf             *oauth2.Config
	workspaceInfoURL string
	emailService     mailer.IEmailService // optional
	operatorEmail    string
	log              logger.ILogger
	client           *http.Client
}

func NewTokenService(
	creds contract.CredentialStore,
	conf *oauth2.Config,
	workspaceInfoURL string,
	emailService mailer.IEmailService,
	operatorEmail string,
	log logger.ILogger,
) ITokenService {
	return &tokenService{
		creds:            creds,
		conf:             conf,
		workspaceInfoURL: workspaceInfoURL,
		emailService:     emailService,
		operatorEmail:    operatorEmail,
		log:              log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *tokenService) AuthCodeURL(state string) string {
	return s.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *tokenService) GetToken(ctx context.Context, workspaceID string) (string, error) {
	if workspaceID == "" {
		return "", ErrInvalidWorkspace
	}

	key := constant.CredentialKeyOAuthToken + workspaceID
	raw, err := s.creds.Get(ctx, key)
	if err != nil {
		s.log.Warn("TokenService", "Credential read failed", map[string]interface{}{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
		return "", nil
	}
	if raw == "" {
		return "", nil
	}

	stored, err := entity.UnmarshalStoredToken(raw)
	if err != nil {
		s.log.Warn("TokenService", "Stored token is unparseable", map[string]interface{}{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
		return "", nil
	}

	if !stored.Expired(time.Now()) {
		return stored.AccessToken, nil
	}

	if stored.RefreshToken == "" {
		// Unrecoverable without re-authorization.
		return "", nil
	}

	refreshed, err := s.refresh(ctx, stored)
	if err != nil {
		s.notifyReauthorization(workspaceID)
		return "", err
	}

	if err := s.persist(ctx, key, refreshed); err != nil {
		// The refreshed token is still usable this turn.
		s.log.Warn("TokenService", "Failed to persist refreshed token", map[string]interface{}{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
	}

	return refreshed.AccessToken, nil
}

// refresh performs the refresh-token grant. The provider may omit a new
// refresh token; the prior one is reused in that case.
func (s *tokenService) refresh(ctx context.Context, stored *entity.StoredToken) (*entity.StoredToken, error) {
	src := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = stored.RefreshToken
	}

	return &entity.StoredToken{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    expiryMillis(tok.Expiry),
		RefreshToken: refreshToken,
	}, nil
}

func (s *tokenService) ExchangeCode(ctx context.Context, code string) (*entity.StoredToken, string, error) {
	tok, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("%w: code grant: %v", ErrTokenExchangeFailed, err)
	}

	workspaceID, err := s.fetchWorkspaceID(ctx, tok.AccessToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: workspace identity: %v", ErrTokenExchangeFailed, err)
	}

	stored := &entity.StoredToken{
		AccessToken:  tok.AccessToken,
		ExpiresAt:    expiryMillis(tok.Expiry),
		RefreshToken: tok.RefreshToken,
	}

	key := constant.CredentialKeyOAuthToken + workspaceID
	if err := s.persist(ctx, key, stored); err != nil {
		return nil, "", fmt.Errorf("%w: store: %v", ErrTokenExchangeFailed, err)
	}

	s.log.Info("TokenService", "Workspace authorized", map[string]interface{}{
		"workspace_id": workspaceID,
	})

	return stored, workspaceID, nil
}

func (s *tokenService) fetchWorkspaceID(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.workspaceInfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	var info struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", err
	}
	if info.ID == "" {
		return "", fmt.Errorf("workspace info has no id")
	}
	return info.ID, nil
}

func (s *tokenService) persist(ctx context.Context, key string, tok *entity.StoredToken) error {
	raw, err := tok.Marshal()
	if err != nil {
		return err
	}
	return s.creds.Put(ctx, key, raw)
}

func (s *tokenService) notifyReauthorization(workspaceID string) {
	if s.emailService == nil || s.operatorEmail == "" {
		return
	}
	if err := s.emailService.SendReauthorizationNotice(s.operatorEmail, workspaceID); err != nil {
		s.log.Warn("TokenService", "Failed to send re-auth notice", map[string]interface{}{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
	}
}

func expiryMillis(expiry time.Time) int64 {
	if expiry.IsZero() {
		// Providers that omit expiry get a conservative one hour.
		return time.Now().Add(time.Hour).UnixMilli()
	}
	return expiry.UnixMilli()
}
