package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"billing-tracker/internal/domain"
)

const sessionIssuer = "billing-tracker"

// SessionTokenService firma la cookie de sesion (HS256) y consulta el
// SessionStore para que un logout la invalide antes de expirar.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	store  SessionStore
	now    func() time.Time
}

func NewSessionTokenService(secret string, ttl time.Duration, store SessionStore) *SessionTokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &SessionTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: sessionIssuer,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Issue crea una sesion nueva para el subject y devuelve el token firmado.
func (s *SessionTokenService) Issue(ctx context.Context, subject string) (domain.Session, string, error) {
	if len(s.secret) == 0 {
		return domain.Session{}, "", errors.New("session secret not configured")
	}
	if strings.TrimSpace(subject) == "" {
		return domain.Session{}, "", ErrInvalidToken
	}

	// JWT usa segundos; se trunca para que Parse devuelva el mismo valor.
	now := s.now().Truncate(time.Second)
	sess := domain.Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Issuer:    s.issuer,
		Subject:   sess.Subject,
		IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return domain.Session{}, "", fmt.Errorf("sign session: %w", err)
	}
	if err := s.store.Store(ctx, sess.ID, sess.Subject, s.ttl); err != nil {
		return domain.Session{}, "", fmt.Errorf("store session: %w", err)
	}
	return sess, signed, nil
}

// Parse valida el token de la cookie y que la sesion siga registrada.
func (s *SessionTokenService) Parse(ctx context.Context, token string) (domain.Session, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return domain.Session{}, err
	}
	sess := domain.Session{
		ID:        claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if sess.Expired(s.now()) {
		return domain.Session{}, ErrUnauthenticated
	}
	ok, err := s.store.Exists(ctx, claims.ID)
	if err != nil || !ok {
		return domain.Session{}, ErrUnauthenticated
	}
	return sess, nil
}

// Revoke elimina la sesion del store. Un token invalido no es un error.
func (s *SessionTokenService) Revoke(ctx context.Context, token string) error {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil
	}
	return s.store.Revoke(ctx, claims.ID)
}

func (s *SessionTokenService) parseToken(token string) (jwt.RegisteredClaims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(token) == "" {
		return jwt.RegisteredClaims{}, ErrUnauthenticated
	}
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return jwt.RegisteredClaims{}, ErrUnauthenticated
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.ID) == "" || claims.IssuedAt == nil {
		return jwt.RegisteredClaims{}, ErrUnauthenticated
	}
	return claims, nil
}
