package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/primedraws/primedraws-backend/internal/config"
)

// ticketCodeAlphabet deliberately omits 0/O/1/I so codes survive being read
// aloud or typed from a printout.
const ticketCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateJWT generates a signed JWT token for the given user
func GenerateJWT(userID string, role string, cfg *config.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Second * time.Duration(cfg.JWT.ExpiresIn)).Unix(),
	})

	tokenString, err := token.SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns its claims
func ValidateJWT(tokenString string, cfg *config.Config) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateTicketCode generates a fixed-length ticket code from the
// non-ambiguous alphabet using a cryptographically strong source, so codes
// carry no sequential pattern a buyer could extrapolate from.
func GenerateTicketCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid ticket code length %d", length)
	}
	code := make([]byte, length)
	max := big.NewInt(int64(len(ticketCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw ticket code character: %w", err)
		}
		code[i] = ticketCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// SecureShuffle performs an unbiased Fisher-Yates shuffle over n elements,
// drawing each index from crypto/rand. Mirrors the rand.Shuffle signature.
func SecureShuffle(n int, swap func(i, j int)) error {
	for i := n - 1; i > 0; i-- {
		j, err := SecureIntn(i + 1)
		if err != nil {
			return err
		}
		swap(i, j)
	}
	return nil
}

// SecureIntn returns a uniform random int in [0, n) from crypto/rand
func SecureIntn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid upper bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
