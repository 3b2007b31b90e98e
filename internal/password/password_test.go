package password_test

import (
	"strings"
	"testing"

	"github.com/edufam/edufam-backend/internal/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newHasher(t *testing.T) *password.Hasher {
	t.Helper()
	h, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewHasher_RejectsBadCost(t *testing.T) {
	_, err := password.NewHasher(2)
	assert.Error(t, err)

	_, err = password.NewHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := newHasher(t)

	digest, err := h.Hash("elimu2024!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(digest, "$2a$04$"))
	assert.NotEqual(t, "elimu2024!", digest)

	tests := []struct {
		name   string
		plain  string
		digest string
		want   bool
	}{
		{name: "match", plain: "elimu2024!", digest: digest, want: true},
		{name: "wrong password", plain: "elimu2025!", digest: digest, want: false},
		{name: "empty password", plain: "", digest: digest, want: false},
		{name: "empty digest", plain: "elimu2024!", digest: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := h.Verify(tt.plain, tt.digest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestHasher_VerifyMalformedDigest(t *testing.T) {
	h := newHasher(t)

	ok, err := h.Verify("anything", "not-a-bcrypt-digest")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestHasher_HashTooLong(t *testing.T) {
	h := newHasher(t)

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, password.ErrTooLong)
}

func TestHasher_DigestsAreSalted(t *testing.T) {
	h := newHasher(t)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestValidatePlain(t *testing.T) {
	tests := []struct {
		name  string
		plain string
		want  error
	}{
		{name: "empty", plain: "", want: password.ErrTooShort},
		{name: "seven chars", plain: "abcdefg", want: password.ErrTooShort},
		{name: "eight chars", plain: "abcdefgh"},
		{name: "seventy two chars", plain: strings.Repeat("a", 72)},
		{name: "seventy three chars", plain: strings.Repeat("a", 73), want: password.ErrTooLong},
		{name: "multibyte counted as characters", plain: "ñandú-01"},
		{name: "multibyte over bcrypt byte limit", plain: strings.Repeat("é", 40), want: password.ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.ValidatePlain(tt.plain)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
