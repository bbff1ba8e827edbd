package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-cqrs-users/internal/domain/entity"
)

// BcryptHasher salts each password with a random per-user value, pre-hashes it with SHA-256 so bcrypt's
// 72-byte input limit never truncates, and stores the bcrypt hash.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (entity.Credentials, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return entity.Credentials{}, fmt.Errorf("generate salt: %w", err)
	}
	salt := base64.RawStdEncoding.EncodeToString(raw)
	b, err := bcrypt.GenerateFromPassword(prehash(salt, plain), h.Cost)
	if err != nil {
		return entity.Credentials{}, fmt.Errorf("hash password: %w", err)
	}
	return entity.NewCredentials(salt, string(b))
}

func (h *BcryptHasher) Verify(plain string, creds entity.Credentials) bool {
	if creds.IsZero() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(creds.Hash()), prehash(creds.Salt(), plain)) == nil
}

func prehash(salt, plain string) []byte {
	sum := sha256.Sum256([]byte(salt + plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

var _ entity.PasswordHasher = (*BcryptHasher)(nil)
