package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// expirySkew is how early a token counts as about to expire.
const expirySkew = 5 * time.Minute

// Session summarizes the stored credentials.
type Session struct {
	Authenticated   bool
	HasRefreshToken bool
	Subject         string
	Email           string
	ExpiresAt       time.Time // zero when the token carries no expiry
	Expired         bool
	ExpiresSoon     bool
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// InspectToken reads the claims of an access token without verifying its
// signature; only the server can do that. Tokens that are not JWTs are
// treated as opaque and reported as authenticated with no expiry.
func InspectToken(accessToken, refreshToken string, now time.Time) Session {
	s := Session{
		Authenticated:   accessToken != "",
		HasRefreshToken: refreshToken != "",
	}
	if accessToken == "" {
		return s
	}

	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		log.Debug().Err(err).Msg("Access token is not a readable JWT, treating as opaque")
		return s
	}

	s.Subject = claims.Subject
	s.Email = claims.Email
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
		s.Expired = !now.Before(s.ExpiresAt)
		s.ExpiresSoon = !s.Expired && !now.Add(expirySkew).Before(s.ExpiresAt)
	}
	return s
}
