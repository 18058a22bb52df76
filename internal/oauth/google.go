package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"billing-tracker/internal/domain"
)

var (
	ErrExchangeRejected    = errors.New("token endpoint rejected the code")
	ErrProviderUnreachable = errors.New("token endpoint unreachable")
	ErrMissingIDToken      = errors.New("token response missing id_token")
	ErrVerification        = errors.New("id_token verification failed")
)

// Scopes que se piden al proveedor.
var GoogleScopes = []string{"email", "profile"}

// GoogleConfig agrupa las credenciales del cliente OAuth.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string
	Timeout      time.Duration
}

// GoogleProvider hace el intercambio de codigo y la verificacion del ID token.
// No decide nada sobre sesiones ni sobre issuers aceptados.
type GoogleProvider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
}

// NewGoogle inicializa el proveedor usando discovery de OIDC.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	if cfg.IssuerURL == "" {
		cfg.IssuerURL = "https://accounts.google.com"
	}
	client := newHTTPClient(cfg.Timeout)

	oidcProvider, err := oidc.NewProvider(oidc.ClientContext(ctx, client), cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
		// El issuer se valida contra la allow-list del broker.
		SkipIssuerCheck: true,
	})
	return newGoogleProvider(cfg, oidcProvider.Endpoint(), verifier, client), nil
}

// NewGoogleWithKeySet arma el proveedor sin discovery, con endpoint y llaves fijos.
func NewGoogleWithKeySet(cfg GoogleConfig, endpoint oauth2.Endpoint, keySet oidc.KeySet) *GoogleProvider {
	verifier := oidc.NewVerifier(cfg.IssuerURL, keySet, &oidc.Config{
		ClientID:        cfg.ClientID,
		SkipIssuerCheck: true,
	})
	return newGoogleProvider(cfg, endpoint, verifier, newHTTPClient(cfg.Timeout))
}

func newGoogleProvider(cfg GoogleConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier, client *http.Client) *GoogleProvider {
	return &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       GoogleScopes,
		},
		verifier:   verifier,
		httpClient: client,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// AuthCodeURL arma la URL de autorizacion con response_type=code.
func (p *GoogleProvider) AuthCodeURL() string {
	return p.oauthConfig.AuthCodeURL("")
}

// Exchange cambia el codigo por tokens y devuelve el id_token crudo.
// Los errores de transporte se distinguen de los rechazos del endpoint.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		if isTransportError(err) {
			return "", fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
		}
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return "", fmt.Errorf("%w: status %d", ErrExchangeRejected, rErr.Response.StatusCode)
		}
		return "", fmt.Errorf("%w: %v", ErrExchangeRejected, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", ErrMissingIDToken
	}
	return rawIDToken, nil
}

// Verify valida firma, audiencia y expiracion del ID token.
func (p *GoogleProvider) Verify(ctx context.Context, rawIDToken string) (domain.Identity, error) {
	idToken, err := p.verifier.Verify(oidc.ClientContext(ctx, p.httpClient), rawIDToken)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: claims: %v", ErrVerification, err)
	}

	return domain.Identity{
		Issuer:        idToken.Issuer,
		Subject:       idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var uErr *url.Error
	return errors.As(err, &uErr)
}
