package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const claimsKey = "auth.claims"

// Authenticator establishes the caller identity of incoming requests.
type Authenticator struct {
	tokens     *Tokens
	revoker    Revoker
	cookieName string
	logger     *logrus.Logger
}

func NewAuthenticator(tokens *Tokens, revoker Revoker, cookieName string, logger *logrus.Logger) *Authenticator {
	if revoker == nil {
		revoker = NoopRevoker{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Authenticator{
		tokens:     tokens,
		revoker:    revoker,
		cookieName: cookieName,
		logger:     logger,
	}
}

func (a *Authenticator) Tokens() *Tokens { return a.tokens }

func (a *Authenticator) Revoker() Revoker { return a.revoker }

func (a *Authenticator) CookieName() string { return a.cookieName }

// Identify attaches claims for a valid bearer token or session cookie.
// Requests without a usable token pass through anonymously.
func (a *Authenticator) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := a.TokenFromRequest(c.Request)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			a.logger.WithError(err).Debug("rejecting session token")
			c.Next()
			return
		}

		revoked, err := a.revoker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			// fail open while the blocklist is unreachable
			a.logger.WithError(err).Warn("token revocation check failed")
		}
		if revoked {
			c.Next()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func (a *Authenticator) TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if a.cookieName != "" {
		if cookie, err := r.Cookie(a.cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}

// RequireCaller aborts with 401 when Identify attached no claims.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CallerID(c); !ok {
			c.String(http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims of the authenticated caller.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok && claims != nil
}

// CallerID returns the account id of the authenticated caller.
func CallerID(c *gin.Context) (string, bool) {
	claims, ok := ClaimsFrom(c)
	if !ok || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
