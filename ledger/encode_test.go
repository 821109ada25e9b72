package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vesting-engine/ledger"
)

// =============================================================================
// DISCRIMINATORS
// =============================================================================

func TestDiscriminators(t *testing.T) {
	t.Run("account names produce stable distinct tags", func(t *testing.T) {
		a := ledger.AccountDiscriminator("Organization")
		b := ledger.AccountDiscriminator("Employee")
		assert.NotEqual(t, a, b)
		assert.Equal(t, a, ledger.AccountDiscriminator("Organization"))
	})

	t.Run("account and instruction namespaces are separate", func(t *testing.T) {
		assert.NotEqual(t,
			ledger.AccountDiscriminator("claim_tokens"),
			ledger.InstructionDiscriminator("claim_tokens"))
	})
}

// =============================================================================
// ENCODER / DECODER
// =============================================================================

func TestCodec_FieldRoundtrip(t *testing.T) {
	disc := ledger.AccountDiscriminator("Probe")
	revoke := int64(-42)
	kp, err := ledger.NewKeypair()
	require.NoError(t, err)

	data := ledger.NewEncoder().
		Discriminator(disc).
		Bool(true).
		Uint8(7).
		Uint64(18446744073709551615).
		Int64(-1).
		String("hello, vesting").
		PublicKey(kp.PublicKey()).
		OptionInt64(&revoke).
		OptionInt64(nil).
		Bytes()

	d := ledger.NewDecoder(data)
	d.Discriminator(disc)
	assert.True(t, d.Bool())
	assert.Equal(t, uint8(7), d.Uint8())
	assert.Equal(t, uint64(18446744073709551615), d.Uint64())
	assert.Equal(t, int64(-1), d.Int64())
	assert.Equal(t, "hello, vesting", d.String())
	assert.Equal(t, kp.PublicKey(), d.PublicKey())
	got := d.OptionInt64()
	require.NotNil(t, got)
	assert.Equal(t, revoke, *got)
	assert.Nil(t, d.OptionInt64())

	require.NoError(t, d.Err())
	assert.Equal(t, 0, d.Remaining())
}

func TestDecoder_TruncatedPayloadFails(t *testing.T) {
	disc := ledger.AccountDiscriminator("Probe")
	data := ledger.NewEncoder().Discriminator(disc).Uint64(5).Bytes()

	// Drop the last byte of the u64.
	d := ledger.NewDecoder(data[:len(data)-1])
	d.Discriminator(disc)
	_ = d.Uint64()
	assert.Error(t, d.Err())
}

func TestDecoder_ErrorIsSticky(t *testing.T) {
	// After the first failure every later read is a no-op and Err() keeps
	// reporting the original failure.
	d := ledger.NewDecoder([]byte{1, 2})
	_ = d.Uint64()
	first := d.Err()
	require.Error(t, first)

	_ = d.String()
	_ = d.PublicKey()
	assert.Equal(t, first, d.Err())
}

func TestDecoder_WrongDiscriminatorFails(t *testing.T) {
	data := ledger.NewEncoder().
		Discriminator(ledger.AccountDiscriminator("Organization")).
		Uint64(1).
		Bytes()

	d := ledger.NewDecoder(data)
	d.Discriminator(ledger.AccountDiscriminator("Employee"))
	assert.Error(t, d.Err())
}

func TestCodec_EmptyString(t *testing.T) {
	data := ledger.NewEncoder().String("").Bytes()
	assert.Len(t, data, 4)

	d := ledger.NewDecoder(data)
	assert.Equal(t, "", d.String())
	require.NoError(t, d.Err())
}
