// internal/httpserver/tokens.go
//
// Round tokens: HS256 JWTs whose subject is the round ID.
// Issued by POST /round/new, accepted as a Bearer header or the
// recycle_round cookie.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const roundCookieName = "recycle_round"

var errInvalidToken = errors.New("invalid round token")

// signRoundToken creates an HS256 JWT whose subject is the round ID.
func (s *Server) signRoundToken(roundID string) (string, time.Time, error) {
	now := s.opts.Now()
	exp := now.Add(s.opts.RoundTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   roundID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.opts.Secret))
	return ss, exp, err
}

// checkRoundToken verifies that the request carries a valid token for roundID.
func (s *Server) checkRoundToken(r *http.Request, roundID string) error {
	tok := bearerOrCookie(r)
	if tok == "" {
		return errInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if err != nil || !parsed.Valid || claims.Subject != roundID {
		return errInvalidToken
	}
	return nil
}

// setRoundCookie writes the round token cookie.
func (s *Server) setRoundCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.CookieSecure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     roundCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or the round cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(roundCookieName); err == nil {
		return c.Value
	}
	return ""
}
