package httpserver

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

const subjectContextKey = "auth.subject"

// BearerToken returns the token carried in the Authorization header, if the
// header is present and uses the Bearer scheme. Only the format is checked
// here; signature and expiry verification are delegated to the identity
// provider.
// TODO: verify token signatures against the identity provider JWKS endpoint.
func BearerToken(ctx echo.Context) (string, bool) {
	h := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return "", false
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth rejects requests that do not carry a well-formed bearer token.
// When the token parses as a JWT, its subject claim is stashed on the context
// for access logging.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, ok := BearerToken(ctx)
		if !ok {
			return ctx.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
		}

		claims := jwt.MapClaims{}
		if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err == nil {
			if sub, ok := claims["sub"].(string); ok {
				ctx.Set(subjectContextKey, sub)
			}
		}

		return next(ctx)
	}
}

// Subject returns the token subject extracted by RequireAuth, or empty.
func Subject(ctx echo.Context) string {
	sub, _ := ctx.Get(subjectContextKey).(string)
	return sub
}
