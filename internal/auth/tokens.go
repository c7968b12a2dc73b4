package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/listenupapp/pagebound-server/internal/id"
)

const (
	tokenIssuer   = "pagebound-server"
	tokenAudience = "pagebound-client"
)

// ErrInvalidToken is returned for any token that fails to decrypt or
// validate.
var ErrInvalidToken = errors.New("invalid token")

// TokenService mints and verifies reader tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
}

// NewTokenService creates a token service from a raw 32-byte key.
func NewTokenService(key []byte, ttl time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	symmetric, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &TokenService{symmetricKey: symmetric, ttl: ttl}, nil
}

// Mint issues a token identifying readerID, valid for the configured TTL.
func (s *TokenService) Mint(readerID string) (string, error) {
	if readerID == "" {
		return "", errors.New("reader id required")
	}
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(readerID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.ttl))

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on unmarshalable values
	_ = token.Set("reader_id", readerID)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts and validates a token. Every failure wraps ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", ErrInvalidToken, err)
	}
	if claims.ReaderID == "" {
		claims.ReaderID = claims.Subject
	}
	if claims.ReaderID == "" {
		return nil, fmt.Errorf("%w: missing reader id", ErrInvalidToken)
	}
	return &claims, nil
}

// TTL returns the lifetime of minted tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
