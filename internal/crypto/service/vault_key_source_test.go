package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"

	cryptoDomain "github.com/allisson/viewvault/internal/crypto/domain"
)

// generateLocalSecretsURI returns a base64key:// keeper URI with a random key.
func generateLocalSecretsURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func TestOpenSecretsKeeper(t *testing.T) {
	ctx := context.Background()

	t.Run("local keeper wraps a vault key", func(t *testing.T) {
		opened, err := OpenSecretsKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, opened.Close())
		}()

		keeper, ok := opened.(*secrets.Keeper)
		require.True(t, ok)

		material := randomKey(t)
		wrapped, err := keeper.Encrypt(ctx, material)
		require.NoError(t, err)
		assert.NotEqual(t, material, wrapped)

		unwrapped, err := opened.Decrypt(ctx, wrapped)
		require.NoError(t, err)
		assert.Equal(t, material, unwrapped)

		_, err = opened.Decrypt(ctx, []byte("not a wrapped key"))
		assert.Error(t, err)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		keeper, err := OpenSecretsKeeper(ctx, "rot13://vault")
		assert.ErrorContains(t, err, "failed to open KMS keeper")
		assert.Nil(t, keeper)
	})

	t.Run("empty uri", func(t *testing.T) {
		_, err := OpenSecretsKeeper(ctx, "")
		assert.Error(t, err)
	})
}

func TestEnvVaultKeySource(t *testing.T) {
	ctx := context.Background()
	source := NewEnvVaultKeySource(testVaultEnv)

	t.Run("missing", func(t *testing.T) {
		t.Setenv(testVaultEnv, "")
		_, err := source.Load(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrVaultKeyNotSet)
	})

	t.Run("fresh handle per load", func(t *testing.T) {
		t.Setenv(testVaultEnv, hex.EncodeToString(randomKey(t)))

		first, err := source.Load(ctx)
		require.NoError(t, err)
		second, err := source.Load(ctx)
		require.NoError(t, err)
		defer second.Destroy()

		first.Destroy()
		assert.True(t, first.Destroyed())
		assert.False(t, second.Destroyed())
		assert.Equal(t, cryptoDomain.PurposeVault, second.Purpose())
	})
}

func TestKMSVaultKeySource_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing wrapped key", func(t *testing.T) {
		t.Setenv(testVaultEnv, "")
		source := NewKMSVaultKeySource(OpenSecretsKeeper, generateLocalSecretsURI(t), testVaultEnv)
		_, err := source.Load(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrVaultKeyNotSet)
	})

	t.Run("keeper unavailable", func(t *testing.T) {
		t.Setenv(testVaultEnv, base64.StdEncoding.EncodeToString([]byte("wrapped")))
		outage := errors.New("kms unreachable")
		source := NewKMSVaultKeySource(
			func(context.Context, string) (cryptoDomain.KMSKeeper, error) { return nil, outage },
			"awskms://alias/vault",
			testVaultEnv,
		)
		_, err := source.Load(ctx)
		assert.ErrorIs(t, err, outage)
	})

	t.Run("wrapped under another key", func(t *testing.T) {
		other, err := OpenSecretsKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, other.Close())
		}()
		wrapped, err := other.(*secrets.Keeper).Encrypt(ctx, randomKey(t))
		require.NoError(t, err)
		t.Setenv(testVaultEnv, base64.StdEncoding.EncodeToString(wrapped))

		source := NewKMSVaultKeySource(OpenSecretsKeeper, generateLocalSecretsURI(t), testVaultEnv)
		_, err = source.Load(ctx)
		assert.ErrorContains(t, err, "failed to unwrap vault key")
	})
}
