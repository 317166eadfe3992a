package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/space-reservation/internal/application"
)

// ManagerRole is the role claim value that grants manager privileges.
const ManagerRole = "manager"

// Claims is the JWT payload accepted by the server. Subject identifies the
// member; Role "manager" marks a manager.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and turns them into principals.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator for the shared secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// IssueToken signs a token for subject. It is used by operators and tests;
// the server itself never logs anyone in.
func (a *Authenticator) IssueToken(subject string, manager bool, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if manager {
		claims.Role = ManagerRole
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Principal parses and verifies tokenString.
func (a *Authenticator) Principal(tokenString string) (application.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return application.Principal{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return application.Principal{}, errors.New("invalid token claims")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return application.Principal{}, errors.New("token has no subject")
	}
	return application.Principal{
		UserID:    claims.Subject,
		IsManager: claims.Role == ManagerRole,
	}, nil
}

// Authenticate attaches the caller's principal to the request context. A
// request without an Authorization header proceeds as a guest; a present but
// invalid token is rejected with 401.
func Authenticate(auth *Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" || auth == nil {
				next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), application.Principal{})))
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, "INVALID_TOKEN", errInvalidToken)
				return
			}

			principal, err := auth.Principal(token)
			if err != nil {
				responder.loggerFor(r.Context()).WarnContext(r.Context(), "bearer token rejected", "error", err)
				responder.writeError(r.Context(), w, http.StatusUnauthorized, "INVALID_TOKEN", errInvalidToken)
				return
			}

			if logger := LoggerFromContext(r.Context()); logger != nil {
				r = r.WithContext(ContextWithLogger(r.Context(), logger.With("principal_id", principal.UserID)))
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
