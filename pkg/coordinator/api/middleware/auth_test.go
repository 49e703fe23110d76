package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func callGuarded(t *testing.T, secret string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reached bool
	guarded := TokenAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/work/request", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && !reached {
		t.Error("handler reported OK without being reached")
	}
	if rec.Code != http.StatusOK && reached {
		t.Error("handler was reached despite rejection")
	}
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %q", rec.Body.String())
	}
	return body.Error
}

func TestTokenAuth(t *testing.T) {
	const secret = "s3cret"

	t.Run("unconfigured secret rejects everything", func(t *testing.T) {
		rec := callGuarded(t, "", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer anything")
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if got := errorMessage(t, rec); got != "token required but not configured" {
			t.Errorf("unexpected error message %q", got)
		}
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		rec := callGuarded(t, secret, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("wrong token is forbidden", func(t *testing.T) {
		rec := callGuarded(t, secret, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer wrong")
		})
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
		if got := errorMessage(t, rec); got != "invalid token" {
			t.Errorf("unexpected error message %q", got)
		}
	})

	t.Run("bearer token is accepted", func(t *testing.T) {
		rec := callGuarded(t, secret, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+secret)
		})
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("bearer scheme is case insensitive", func(t *testing.T) {
		rec := callGuarded(t, secret, func(r *http.Request) {
			r.Header.Set("Authorization", "bearer "+secret)
		})
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("dedicated header is accepted", func(t *testing.T) {
		rec := callGuarded(t, secret, func(r *http.Request) {
			r.Header.Set(TokenHeader, secret)
		})
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("malformed authorization header falls through", func(t *testing.T) {
		rec := callGuarded(t, secret, func(r *http.Request) {
			r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}
