package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidPasswordHash is returned by Verify when the stored hash is not
	// a well-formed argon2id PHC string.
	ErrInvalidPasswordHash = errors.New("invalid password hash format")
	// ErrIncompatiblePasswordVersion is returned by Verify when the stored hash
	// was made with an argon2 version other than the linked one.
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
)

// PasswordHasher hashes and verifies guest reservation passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// Argon2idParams tunes argon2id key derivation. Memory is in KiB and the
// lengths are in bytes.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams is used by NewArgon2idHasher when no params are given.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2idHasher stores guest passwords in the PHC string format
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>.
type Argon2idHasher struct {
	Params Argon2idParams
}

// NewArgon2idHasher returns a hasher using params, or the defaults when params is zero.
func NewArgon2idHasher(params Argon2idParams) Argon2idHasher {
	if params == (Argon2idParams{}) {
		params = DefaultArgon2idParams
	}
	return Argon2idHasher{Params: params}
}

// Hash derives a key from password with a fresh random salt and returns it
// encoded together with the salt and h.Params.
func (h Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	encoded := argon2Hash{
		params: h.Params,
		salt:   salt,
		key:    argon2.IDKey([]byte(password), salt, h.Params.Iterations, h.Params.Memory, h.Params.Parallelism, h.Params.KeyLength),
	}
	return encoded.String(), nil
}

// Verify returns ErrInvalidPassword when password does not match hash. The
// parameters stored in hash are used, so hashes made with older settings keep
// verifying.
func (h Argon2idHasher) Verify(hash, password string) error {
	stored, err := parseArgon2Hash(hash)
	if err != nil {
		return err
	}
	candidate := argon2.IDKey([]byte(password), stored.salt, stored.params.Iterations, stored.params.Memory, stored.params.Parallelism, stored.params.KeyLength)
	if subtle.ConstantTimeCompare(stored.key, candidate) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

type argon2Hash struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (a argon2Hash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.Memory, a.params.Iterations, a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(a.salt),
		base64.RawStdEncoding.EncodeToString(a.key),
	)
}

func parseArgon2Hash(encoded string) (argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argon2Hash{}, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}
	if version != argon2.Version {
		return argon2Hash{}, ErrIncompatiblePasswordVersion
	}

	var out argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Iterations, &out.params.Parallelism); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: %v", ErrInvalidPasswordHash, err)
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: salt: %v", ErrInvalidPasswordHash, err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return argon2Hash{}, fmt.Errorf("%w: key: %v", ErrInvalidPasswordHash, err)
	}
	if len(out.key) == 0 {
		return argon2Hash{}, ErrInvalidPasswordHash
	}
	out.params.SaltLength = uint32(len(out.salt))
	out.params.KeyLength = uint32(len(out.key))
	return out, nil
}
