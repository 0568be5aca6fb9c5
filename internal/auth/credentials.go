package auth

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"

	"github.com/verso-press/verso-backend/internal/session"
)

// FirebaseVerifier checks Firebase ID tokens and extracts the principal.
type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (session.Principal, error) {
	decoded, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return session.Principal{}, err
	}

	p := session.Principal{UID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		p.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		p.DisplayName = name
	}
	return p, nil
}

// FirebaseCookieMinter exchanges an ID token for a session cookie with its
// own fixed TTL, independent of the underlying token's expiry.
type FirebaseCookieMinter struct {
	client *auth.Client
	ttl    time.Duration
}

func NewFirebaseCookieMinter(client *auth.Client, ttl time.Duration) *FirebaseCookieMinter {
	return &FirebaseCookieMinter{client: client, ttl: ttl}
}

func (m *FirebaseCookieMinter) Mint(ctx context.Context, idToken string) (string, time.Time, error) {
	cookie, err := m.client.SessionCookie(ctx, idToken, m.ttl)
	if err != nil {
		return "", time.Time{}, err
	}
	return cookie, time.Now().Add(m.ttl), nil
}

var (
	_ session.TokenVerifier    = (*FirebaseVerifier)(nil)
	_ session.CredentialMinter = (*FirebaseCookieMinter)(nil)
)
