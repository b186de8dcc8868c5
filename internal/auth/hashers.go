package auth

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes; we cut explicitly so long
// passwords hash instead of erroring.
const bcryptMaxBytes = 72

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func truncateForBcrypt(password string) []byte {
	raw := []byte(password)
	if len(raw) > bcryptMaxBytes {
		raw = raw[:bcryptMaxBytes]
	}
	return raw
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncateForBcrypt(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncateForBcrypt(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type Argon2idHasher struct {
	params *argon2id.Params
}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: argon2id.DefaultParams}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

func (h *Argon2idHasher) Compare(hash, password string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, hash)
}

// MigratingHasher hashes new passwords with primary and verifies stored
// hashes with whichever algorithm produced them.
type MigratingHasher struct {
	primary PasswordHasher
	bcrypt  PasswordHasher
	argon   PasswordHasher
}

// NewHasher returns a hasher that writes with the named algorithm
// ("bcrypt" or "argon2id") and reads both.
func NewHasher(algorithm string, bcryptCost int) *MigratingHasher {
	bc := NewBcryptHasher(bcryptCost)
	ar := NewArgon2idHasher()
	var primary PasswordHasher = bc
	if strings.EqualFold(algorithm, "argon2id") {
		primary = ar
	}
	return &MigratingHasher{primary: primary, bcrypt: bc, argon: ar}
}

func (h *MigratingHasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

func (h *MigratingHasher) Compare(hash, password string) (bool, error) {
	if strings.HasPrefix(hash, "$argon2id$") {
		return h.argon.Compare(hash, password)
	}
	return h.bcrypt.Compare(hash, password)
}
