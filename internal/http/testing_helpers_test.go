package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billing-tracker/internal/domain"
	"billing-tracker/internal/repository"
	"billing-tracker/internal/service"
)

const testAuthURL = "https://accounts.google.com/o/oauth2/v2/auth?client_id=test"

type stubProvider struct {
	identities  map[string]domain.Identity
	exchangeErr error
	verifyErr   error
}

func (p *stubProvider) AuthCodeURL() string {
	return testAuthURL
}

// Exchange devuelve el propio codigo como ID token para que Verify lo resuelva.
func (p *stubProvider) Exchange(_ context.Context, code string) (string, error) {
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}
	return code, nil
}

func (p *stubProvider) Verify(_ context.Context, raw string) (domain.Identity, error) {
	if p.verifyErr != nil {
		return domain.Identity{}, p.verifyErr
	}
	id, ok := p.identities[raw]
	if !ok {
		return domain.Identity{Issuer: "https://accounts.google.com", Subject: "sub-" + raw}, nil
	}
	return id, nil
}

type testServer struct {
	router   *gin.Engine
	provider *stubProvider
	broker   *service.IdentityBroker
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := &stubProvider{identities: map[string]domain.Identity{}}
	sessions := service.NewSessionTokenService(strings.Repeat("k", 32), time.Hour, service.NewMemorySessionStore())
	broker := service.NewIdentityBroker(zap.NewNop(), provider, sessions, time.Second)
	items := service.NewItemService(zap.NewNop(), repository.NewMemoryItemRepository())

	if opts.LoginLimiter == nil {
		opts.LoginLimiter = service.NewLoginRateLimiter(time.Minute, 100)
	}
	router := NewRouter(
		zap.NewNop(),
		broker,
		NewAuthHandler(zap.NewNop(), broker, CookieOptions{Secure: true}),
		NewItemHandler(zap.NewNop(), items),
		opts,
	)
	return &testServer{router: router, provider: provider, broker: broker}
}

// login completa el callback con el codigo dado y devuelve la cookie de sesion.
func (s *testServer) login(t *testing.T, code string) *http.Cookie {
	t.Helper()
	rec := s.do(http.MethodGet, "/google/callback?code="+code, "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("login %q: expected 302, got %d (%s)", code, rec.Code, rec.Body.String())
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookieName {
			return ck
		}
	}
	t.Fatalf("login %q: session cookie not set", code)
	return nil
}

func (s *testServer) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}
