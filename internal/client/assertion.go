package client

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	JWTBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	AssertionLifetime  = time.Hour
)

// AssertionClaims is the claim set of a service-account assertion.
// Field order is the serialized order.
type AssertionClaims struct {
	Issuer    string `json:"iss"`
	Scope     string `json:"scope"`
	Audience  string `json:"aud"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (c AssertionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}

func (c AssertionClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}

func (c AssertionClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

func (c AssertionClaims) GetIssuer() (string, error) { return c.Issuer, nil }

func (c AssertionClaims) GetSubject() (string, error) { return "", nil }

func (c AssertionClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}

var pemMarkers = regexp.MustCompile(`-----(BEGIN|END) PRIVATE KEY-----`)

// ParsePrivateKey reads a PKCS#8 RSA key. Literal "\n" sequences, as they
// usually arrive from env vars, are treated as newlines.
func ParsePrivateKey(privateKeyPEM string) (*rsa.PrivateKey, error) {
	body := strings.ReplaceAll(privateKeyPEM, `\n`, "\n")
	body = pemMarkers.ReplaceAllString(body, "")
	body = strings.Join(strings.Fields(body), "")
	if body == "" {
		return nil, fmt.Errorf("%w: empty private key", ErrCredential)
	}

	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode private key: %w", ErrCredential, err)
	}

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: parse pkcs8 key: %w", ErrCredential, err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: private key is %T, want RSA", ErrCredential, key)
	}
	return rsaKey, nil
}

// BuildAssertion returns a signed RS256 JWT valid for AssertionLifetime from now.
func BuildAssertion(issuer, scope, audience, privateKeyPEM string, now time.Time) (string, error) {
	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	iat := now.Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, AssertionClaims{
		Issuer:    issuer,
		Scope:     scope,
		Audience:  audience,
		IssuedAt:  iat,
		ExpiresAt: iat + int64(AssertionLifetime/time.Second),
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("%w: sign assertion: %w", ErrCredential, err)
	}
	return signed, nil
}
