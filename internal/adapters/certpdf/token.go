package certpdf

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"meetdesk/internal/domain/certificate"
)

const issuer = "meetdesk"

// Claims identify one issued certificate.
type Claims struct {
	Serial string `json:"sn"`
	jwt.RegisteredClaims
}

// Signer issues and checks HMAC-signed verification tokens. Tokens do not
// expire; revoking a certificate deletes the row they point to.
type Signer struct {
	secret    []byte
	publicURL string
}

// NewSigner creates a signer. publicURL is the externally reachable base URL.
// PRE: len(secret) >= 32
func NewSigner(secret []byte, publicURL string) *Signer {
	return &Signer{secret: secret, publicURL: strings.TrimRight(publicURL, "/")}
}

// Token signs the certificate's ID and serial.
func (s *Signer) Token(c certificate.Certificate, now time.Time) (string, error) {
	claims := Claims{
		Serial: c.Serial,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  c.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign certificate token: %w", err)
	}
	return signed, nil
}

// VerifyURL is the public link printed on the certificate.
func (s *Signer) VerifyURL(token string) string {
	return s.publicURL + "/api/certificates/verify?token=" + url.QueryEscape(token)
}

// Parse checks the signature and returns the claims.
// POST: certificate.ErrInvalidToken for anything but a token this signer issued
func (s *Signer) Parse(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, certificate.ErrInvalidToken
	}
	if claims.Issuer != issuer || claims.Subject == "" || claims.Serial == "" {
		return Claims{}, certificate.ErrInvalidToken
	}
	return claims, nil
}
