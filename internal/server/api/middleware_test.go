package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func callGuarded(t *testing.T, secretHash, header string) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/internal/cleanup", nil)
	if header != "" {
		req.Header.Set("X-Cleanup-Secret", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}
	if err := CleanupAuth(secretHash)(next)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec.Code
}

func TestCleanupAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash secret: %v", err)
	}

	t.Run("correct secret passes", func(t *testing.T) {
		if code := callGuarded(t, string(hash), "s3cret"); code != http.StatusOK {
			t.Errorf("status = %d, want 200", code)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		if code := callGuarded(t, string(hash), "guess"); code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})

	t.Run("missing secret is rejected", func(t *testing.T) {
		if code := callGuarded(t, string(hash), ""); code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})

	t.Run("unconfigured hash fails closed", func(t *testing.T) {
		if code := callGuarded(t, "", "s3cret"); code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", code)
		}
	})
}
