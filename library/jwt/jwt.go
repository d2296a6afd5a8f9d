// Package jwt signs and parses the bearer tokens issued to drive users.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	jwtLib "github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 7 * 24 * time.Hour

var secret []byte

func Initialize(s []byte) error {
	if len(s) == 0 {
		return errors.New("jwt secret is empty")
	}

	secret = s
	return nil
}

// Sign issues a signed HS256 token for the given claims,
// filling issue and expiry timestamps.
func Sign(uc *UserClaims) (string, error) {
	now := time.Now().UTC()
	uc.IssuedAt = jwtLib.NewNumericDate(now)
	uc.ExpiresAt = jwtLib.NewNumericDate(now.Add(tokenTTL))

	token, err := jwtLib.NewWithClaims(jwtLib.SigningMethodHS256, uc).
		SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	return token, nil
}

// ParseClaims validates a token and decodes its claims.
func ParseClaims(token string, uc *UserClaims) error {
	_, err := jwtLib.ParseWithClaims(token, uc,
		func(t *jwtLib.Token) (any, error) {
			if _, ok := t.Method.(*jwtLib.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method `%v`", t.Header["alg"])
			}

			return secret, nil
		},
		jwtLib.WithExpirationRequired(),
		jwtLib.WithIssuedAt(),
	)
	if err != nil {
		return errors.Wrap(err, "parse token")
	}

	return nil
}
