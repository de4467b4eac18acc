package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-carpool/internal/utils"
)

func TestJWTAuth(t *testing.T) {
    const secret = "mw-secret"
    e := echo.New()
    e.GET("/v1/me", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"participant_id": c.Get("participant_id")})
    }, JWTAuth(secret))

    t.Run("missing header", func(t *testing.T) {
        req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        if rec.Code != http.StatusUnauthorized {
            t.Fatalf("status = %d, want 401", rec.Code)
        }
    })

    t.Run("garbage token", func(t *testing.T) {
        req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
        req.Header.Set("Authorization", "Bearer not-a-jwt")
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        if rec.Code != http.StatusUnauthorized {
            t.Fatalf("status = %d, want 401", rec.Code)
        }
    })

    t.Run("wrong secret", func(t *testing.T) {
        at, err := utils.NewAccessToken("other-secret", 5, 5)
        if err != nil {
            t.Fatalf("NewAccessToken: %v", err)
        }
        req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
        req.Header.Set("Authorization", "Bearer "+at.Token)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        if rec.Code != http.StatusUnauthorized {
            t.Fatalf("status = %d, want 401", rec.Code)
        }
    })

    t.Run("valid token", func(t *testing.T) {
        at, err := utils.NewAccessToken(secret, 5, 5)
        if err != nil {
            t.Fatalf("NewAccessToken: %v", err)
        }
        req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
        req.Header.Set("Authorization", "Bearer "+at.Token)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        if rec.Code != http.StatusOK {
            t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
        }
    })
}
