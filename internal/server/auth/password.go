package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zia/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt. Salts are generated per
// call and embedded in the digest. A Hasher is immutable and safe for
// concurrent use.
type Hasher struct {
	cost  int
	decoy []byte
}

// NewHasher returns a Hasher using the given bcrypt work factor.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	// The decoy digest lets Burn spend the same time as a real Verify.
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("decoy seed: %w", err)
	}
	decoy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(seed)), cost)
	if err != nil {
		return nil, fmt.Errorf("decoy digest: %w", err)
	}

	return &Hasher{cost: cost, decoy: decoy}, nil
}

// Hash returns a salted bcrypt digest of plaintext, safe to store as is.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", common.ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A mismatch is (false, nil);
// an error means the digest itself is unusable.
func (h *Hasher) Verify(plaintext, digest string) (bool, error) {
	// Digests are never produced for longer inputs.
	if len(plaintext) > maxPasswordBytes {
		h.Burn(plaintext[:maxPasswordBytes])
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("malformed password digest: %w", err)
	}
}

// Burn runs a verification against a throwaway digest. Callers use it when
// there is no account to check, so that response time does not reveal
// whether an email is registered.
func (h *Hasher) Burn(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(h.decoy, []byte(plaintext))
}
