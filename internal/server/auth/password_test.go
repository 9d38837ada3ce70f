package auth

import (
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/zia/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestNewHasher_CostBounds(t *testing.T) {
	_, err := NewHasher(bcrypt.MinCost - 1)
	require.Error(t, err)
	_, err = NewHasher(bcrypt.MaxCost + 1)
	require.Error(t, err)
}

func TestHasher_RoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, pw := range []string{"secret1", "correct horse battery staple", "пароль123", strings.Repeat("x", 72)} {
		digest, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotContains(t, digest, pw)

		ok, err := h.Verify(pw, digest)
		require.NoError(t, err)
		assert.True(t, ok, "password %q must verify", pw)
	}
}

func TestHasher_DifferentPasswordsDoNotVerify(t *testing.T) {
	h := newTestHasher(t)

	digest, err := h.Hash("secret1")
	require.NoError(t, err)

	for _, other := range []string{"secret2", "Secret1", "secret1 ", ""} {
		ok, err := h.Verify(other, digest)
		require.NoError(t, err)
		assert.False(t, ok, "password %q must not verify", other)
	}
}

func TestHasher_SaltedOutput(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two hashes of the same password must differ")
	for _, d := range []string{a, b} {
		ok, err := h.Verify("secret1", d)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestHasher_TooLong(t *testing.T) {
	h := newTestHasher(t)

	_, err := h.Hash(strings.Repeat("x", 73))
	require.ErrorIs(t, err, common.ErrPasswordTooLong)
}

func TestHasher_MalformedDigest(t *testing.T) {
	h := newTestHasher(t)

	ok, err := h.Verify("secret1", "not-a-bcrypt-digest")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestHasher_Concurrent(t *testing.T) {
	h := newTestHasher(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := h.Hash("secret1")
			if err != nil {
				errs <- err
				return
			}
			if ok, err := h.Verify("secret1", d); err != nil || !ok {
				errs <- assert.AnError
			}
			h.Burn("secret1")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestHasher_VerifyTooLongNeverMatches(t *testing.T) {
	h := newTestHasher(t)

	pw := strings.Repeat("x", 72)
	digest, err := h.Hash(pw)
	require.NoError(t, err)

	ok, err := h.Verify(pw+"y", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}
