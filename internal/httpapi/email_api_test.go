package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeMailConnector struct {
	configured bool
	err        error
	lastOwner  string
	lastCode   string
}

func (f *fakeMailConnector) Configured() bool { return f.configured }

func (f *fakeMailConnector) Connect(_ context.Context, ownerID, code string) error {
	f.lastOwner = ownerID
	f.lastCode = code
	return f.err
}

func TestEmailConnect(t *testing.T) {
	svc, middleware := testAuth(t)
	mail := &fakeMailConnector{configured: true}
	server := New(&fakeRunner{}, nil, nil, mail, middleware, "", testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/connect", strings.NewReader(`{"code":"auth-code-123"}`))
	req.Header.Set("Authorization", bearerFor(t, svc, "user-1"))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
	if mail.lastOwner != "user-1" || mail.lastCode != "auth-code-123" {
		t.Errorf("connect called with (%q, %q)", mail.lastOwner, mail.lastCode)
	}
}

func TestEmailConnectMissingCode(t *testing.T) {
	svc, middleware := testAuth(t)
	mail := &fakeMailConnector{configured: true}
	server := New(&fakeRunner{}, nil, nil, mail, middleware, "", testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/connect", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearerFor(t, svc, "user-1"))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEmailConnectNotConfigured(t *testing.T) {
	svc, middleware := testAuth(t)
	mail := &fakeMailConnector{configured: false}
	server := New(&fakeRunner{}, nil, nil, mail, middleware, "", testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/connect", strings.NewReader(`{"code":"x"}`))
	req.Header.Set("Authorization", bearerFor(t, svc, "user-1"))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestEmailConnectRequiresAuth(t *testing.T) {
	_, middleware := testAuth(t)
	mail := &fakeMailConnector{configured: true}
	server := New(&fakeRunner{}, nil, nil, mail, middleware, "", testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/email/connect", strings.NewReader(`{"code":"x"}`))
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
