package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"billing-tracker/internal/domain"
	"billing-tracker/internal/oauth"
)

// TrustedIssuers es la allow-list de issuers aceptados en el ID token.
var TrustedIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// IdentityProvider abstrae el intercambio de codigo y la verificacion del token.
type IdentityProvider interface {
	AuthCodeURL() string
	Exchange(ctx context.Context, code string) (string, error)
	Verify(ctx context.Context, rawIDToken string) (domain.Identity, error)
}

// IdentityBroker completa el flujo OAuth y emite sesiones ligadas al subject.
type IdentityBroker struct {
	logger   *zap.Logger
	provider IdentityProvider
	sessions *SessionTokenService
	timeout  time.Duration
}

func NewIdentityBroker(logger *zap.Logger, provider IdentityProvider, sessions *SessionTokenService, timeout time.Duration) *IdentityBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &IdentityBroker{
		logger:   logger,
		provider: provider,
		sessions: sessions,
		timeout:  timeout,
	}
}

// BeginLogin devuelve la URL de autorizacion del proveedor.
func (b *IdentityBroker) BeginLogin() string {
	return b.provider.AuthCodeURL()
}

// CompleteLogin cambia el codigo, verifica el ID token y crea la sesion.
// Devuelve la sesion y el valor firmado para la cookie. No reintenta.
func (b *IdentityBroker) CompleteLogin(ctx context.Context, code string) (domain.Session, string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Session{}, "", ErrMissingCode
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	rawIDToken, err := b.provider.Exchange(ctx, code)
	if err != nil {
		b.logger.Warn("token exchange failed", zap.Error(err))
		if errors.Is(err, oauth.ErrProviderUnreachable) {
			return domain.Session{}, "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return domain.Session{}, "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	identity, err := b.provider.Verify(ctx, rawIDToken)
	if err != nil {
		b.logger.Warn("id token verification failed", zap.Error(err))
		return domain.Session{}, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !isTrustedIssuer(identity.Issuer) {
		b.logger.Warn("untrusted issuer", zap.String("issuer", identity.Issuer))
		return domain.Session{}, "", ErrUntrustedIssuer
	}
	if strings.TrimSpace(identity.Subject) == "" {
		return domain.Session{}, "", fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}

	sess, token, err := b.sessions.Issue(ctx, identity.Subject)
	if err != nil {
		return domain.Session{}, "", err
	}

	b.logger.Info("login completed",
		zap.String("session_id", sess.ID),
		zap.String("issuer", identity.Issuer),
		zap.Bool("email_verified", identity.EmailVerified),
	)
	return sess, token, nil
}

// Authenticate resuelve la sesion a partir del valor de la cookie.
func (b *IdentityBroker) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	return b.sessions.Parse(ctx, token)
}

// Logout revoca la sesion; es idempotente.
func (b *IdentityBroker) Logout(ctx context.Context, token string) error {
	return b.sessions.Revoke(ctx, token)
}

func isTrustedIssuer(issuer string) bool {
	for _, trusted := range TrustedIssuers {
		if issuer == trusted {
			return true
		}
	}
	return false
}
