package permkit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AuthCookieName is the cookie consulted when no Authorization header is present.
const AuthCookieName = "auth_token"

// Claims are the session claims issued by the auth provider.
// The user ID travels in the standard "sub" claim.
type Claims struct {
	Role           string  `json:"role"`
	OrganizationID *int64  `json:"organizationId,omitempty"`
	RegionIDs      []int64 `json:"regionIds,omitempty"`
	jwt.RegisteredClaims
}

// CurrentUser converts the claims into a CurrentUser.
// The role is passed through raw; unknown or malformed roles fail closed at evaluation.
func (c *Claims) CurrentUser() *CurrentUser {
	u := &CurrentUser{
		ID:   c.Subject,
		Role: c.Role,
	}
	if c.OrganizationID != nil {
		id := *c.OrganizationID
		u.OrganizationID = &id
	}
	if len(c.RegionIDs) > 0 {
		u.RegionIDs = append([]int64(nil), c.RegionIDs...)
	}
	return u
}

// UserExtractor resolves the current user of a request.
// It returns ErrUnauthenticated (or ErrInvalidToken) when there is no usable session.
type UserExtractor func(*http.Request) (*CurrentUser, error)

// HMACKeyFunc returns a jwt.Keyfunc for HS256/384/512 tokens signed with secret.
func HMACKeyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}
}

// JWTUserExtractor creates a UserExtractor that reads a bearer token (or the auth cookie)
// and verifies it with keyFunc.
//
// Example:
//
//	extractor := permkit.JWTUserExtractor(permkit.HMACKeyFunc(secret),
//	    jwt.WithIssuer("workforce"),
//	)
func JWTUserExtractor(keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) UserExtractor {
	return func(r *http.Request) (*CurrentUser, error) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			return nil, NewError(ErrUnauthenticated, "missing token")
		}
		token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, keyFunc, opts...)
		if err != nil || !token.Valid {
			msg := "token not valid"
			if err != nil {
				msg = err.Error()
			}
			return nil, NewError(ErrInvalidToken, msg)
		}
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return nil, NewError(ErrInvalidToken, "invalid claims")
		}
		user := claims.CurrentUser()
		if err := user.Validate(); err != nil {
			return nil, err
		}
		return user, nil
	}
}

// SignToken signs claims with HS256. Intended for auth providers and tests.
func SignToken(secret []byte, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func extractToken(r *http.Request) string {
	// Authorization: Bearer <token>
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	// Cookie for browser flows
	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
