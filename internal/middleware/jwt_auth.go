package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/anonto42/yatube/backend/internal/models"
	"github.com/anonto42/yatube/backend/internal/services"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	// TokenCookie carries the JWT for browser clients.
	TokenCookie = "token"
	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/auth/login/"

	principalKey = "principal"
)

// Authenticate resolves the request principal from an "Authorization: Bearer" header
// or the token cookie. Requests without a valid token continue as anonymous.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(principalKey, services.Anonymous)

			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				if cookie, err := c.Cookie(TokenCookie); err == nil {
					raw = cookie.Value
				}
			}
			if raw == "" {
				return next(c)
			}

			claims, err := ParseToken(secret, raw)
			if err != nil {
				c.Logger().Debugf("ignoring token: %v", err)
				return next(c)
			}
			c.Set(principalKey, services.Principal{UserID: claims.UserID, Username: claims.Username})
			return next(c)
		}
	}
}

// RequireLogin redirects anonymous requests to the login entry point, remembering
// the page they asked for.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !PrincipalFrom(c).IsAuthenticated() {
				return RedirectToLogin(c)
			}
			return next(c)
		}
	}
}

// RedirectToLogin sends the client to LoginPath with next set to the current URL.
func RedirectToLogin(c echo.Context) error {
	next := strings.ReplaceAll(url.QueryEscape(c.Request().URL.RequestURI()), "%2F", "/")
	return c.Redirect(http.StatusFound, LoginPath+"?next="+next)
}

// PrincipalFrom returns the principal Authenticate stored on the context.
func PrincipalFrom(c echo.Context) services.Principal {
	if p, ok := c.Get(principalKey).(services.Principal); ok {
		return p
	}
	return services.Anonymous
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret, raw string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// bearerToken expects "Bearer <token>".
func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
