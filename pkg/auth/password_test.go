package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastArgon2 keeps tests quick; production uses DefaultArgon2Params.
func fastArgon2() *Argon2Hasher {
	return NewArgon2Hasher(Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
}

func TestArgon2Hasher(t *testing.T) {
	h := fastArgon2()

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong horse", encoded)
	require.NoError(t, err)
	assert.False(t, ok)

	again, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again, "salt must differ per hash")
}

func TestArgon2Hasher_InvalidHash(t *testing.T) {
	h := fastArgon2()

	tests := []struct {
		name    string
		encoded string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"wrong algorithm", "$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5", ErrInvalidHash},
		{"wrong version", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$a2V5", ErrIncompatibleVersion},
		{"bad params", "$argon2id$v=19$garbage$c2FsdA$a2V5", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5", ErrInvalidHash},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify("x", tt.encoded)
			assert.False(t, ok)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	encoded, err := h.Hash("correct horse")
	require.NoError(t, err)

	ok, err := h.Verify("correct horse", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewHasher(t *testing.T) {
	_, err := NewHasher("md5")
	assert.Error(t, err)

	h, err := NewHasher(AlgorithmBcrypt)
	require.NoError(t, err)

	// Hashes from the other algorithm still verify after a switch.
	argonHash, err := fastArgon2().Hash("secret-pass")
	require.NoError(t, err)
	ok, err := h.Verify("secret-pass", argonHash)
	require.NoError(t, err)
	assert.True(t, ok)

	bcryptHash, err := NewBcryptHasher(4).Hash("secret-pass")
	require.NoError(t, err)
	ok, err = h.Verify("secret-pass", bcryptHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = h.Verify("secret-pass", "plaintext")
	assert.ErrorIs(t, err, ErrInvalidHash)
}
