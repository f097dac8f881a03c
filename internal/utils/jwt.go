package utils // package utils provides token issuing, verification and hashing helpers

import (
	"crypto/sha256" // SHA-256 hashing for stored refresh credentials
	"encoding/hex"  // hex encoding of digests
	"errors"        // sentinel error definitions
	"time"          // expiry arithmetic

	"github.com/golang-jwt/jwt/v5" // JWT library for signed bearer credentials
	"github.com/google/uuid"       // account ids carried in the subject claim
)

// TokenKind tags what a bearer credential may be used for.  Every
// consumption site checks the kind with an explicit equality test; a
// cryptographically valid token of the wrong kind is rejected.
type TokenKind string

const (
	TokenAccess        TokenKind = "access"
	TokenRefresh       TokenKind = "refresh"
	TokenEmailVerify   TokenKind = "email_verify"
	TokenPasswordReset TokenKind = "password_reset"
)

// Verification failures.  ErrTokenExpired means the signature was fine
// but the expiry passed; ErrTokenMalformed covers bad encoding or a bad
// signature; ErrTokenClaims means the payload decoded but is missing a
// required field; ErrWrongKind is returned by CheckKind at consumption
// sites.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed or tampered")
	ErrTokenClaims    = errors.New("token claims invalid")
	ErrWrongKind      = errors.New("wrong token kind")
)

// Token is a signed credential together with its expiry, returned to
// clients so they know when to refresh.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires"`
}

// TokenClaims is the decoded payload of a verified credential.  Role is
// only present on access tokens; single-purpose tokens carry subject,
// kind and expiry alone.
type TokenClaims struct {
	Subject   uuid.UUID
	Kind      TokenKind
	Role      string
	ExpiresAt time.Time
}

// CheckKind enforces the kind claim at a consumption site.
func (c TokenClaims) CheckKind(want TokenKind) error {
	if c.Kind != want {
		return ErrWrongKind
	}
	return nil
}

// IssueToken builds and signs an HS256 JWT for the given subject.  The
// claims are sub, kind, jti, exp and iat; role is added only when
// non-empty so that email-verify and password-reset tokens never carry
// one.  The jti makes every issuance unique: iat/exp have only second
// granularity, and refresh rotation relies on the new credential never
// hashing to the same value as the one it replaces.
func IssueToken(secret string, subject uuid.UUID, kind TokenKind, ttl time.Duration, role string) (Token, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  subject.String(),
		"kind": string(kind),
		"jti":  uuid.NewString(),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// VerifyToken checks signature and expiry and decodes the claims.  It
// performs no authorization: callers must still check the kind.  An
// expired token reports ErrTokenExpired, any other parse failure
// (garbage input, wrong secret, unexpected algorithm) reports
// ErrTokenMalformed, and a structurally valid token without a usable
// subject reports ErrTokenClaims.
func VerifyToken(secret, raw string) (TokenClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenMalformed
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, ErrTokenClaims
	}
	sub, _ := mc["sub"].(string)
	subject, err := uuid.Parse(sub)
	if err != nil {
		return TokenClaims{}, ErrTokenClaims
	}
	out := TokenClaims{Subject: subject}
	if k, ok := mc["kind"].(string); ok {
		out.Kind = TokenKind(k)
	}
	if r, ok := mc["role"].(string); ok {
		out.Role = r
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// HashToken returns the SHA-256 hex digest of a raw credential.  The
// session store keeps only this digest, so a leaked store snapshot
// cannot be replayed as a refresh credential.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
