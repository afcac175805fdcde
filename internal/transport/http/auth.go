package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"brainbuzz/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

type actorKey struct{}

// Claims is the token payload: the subject is the user id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// IssueToken signs a token for userID with the given role.
func (a *Authenticator) IssueToken(userID string, role domain.Role, ttl time.Duration) (string, error) {
	if userID == "" || !role.Valid() {
		return "", fmt.Errorf("issue token: invalid user %q or role %q", userID, role)
	}
	now := a.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a signed token into an actor.
func (a *Authenticator) Verify(tokenString string) (domain.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return domain.Actor{}, domain.ErrUnauthenticated
	}
	return domain.Actor{UserID: claims.Subject, Role: claims.Role}, nil
}

// Middleware resolves the actor from the Authorization header, or from the
// token query parameter for websocket clients that cannot set headers.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if header := r.Header.Get("Authorization"); header != "" {
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}
			tokenString = strings.TrimPrefix(header, "Bearer ")
		}
		if tokenString == "" {
			writeError(w, http.StatusUnauthorized, "not authorized, no token")
			return
		}

		actor, err := a.Verify(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// WithActor stores actor on ctx.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor stored by Middleware.
func ActorFrom(ctx context.Context) (domain.Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	if !ok {
		return domain.Actor{}, errors.New("no actor in context")
	}
	return actor, nil
}
