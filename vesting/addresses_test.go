package vesting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/vesting"
)

func testAddresses() vesting.Addresses {
	return vesting.Addresses{ProgramID: vesting.DefaultProgramID}
}

func newIdentity(t *testing.T) ledger.PublicKey {
	t.Helper()
	kp, err := ledger.NewKeypair()
	require.NoError(t, err)
	return kp.PublicKey()
}

// =============================================================================
// NAMESPACE SEPARATION
// =============================================================================

func TestAddresses_NamespacesNeverCollide(t *testing.T) {
	a := testAddresses()
	identity := newIdentity(t)
	mint := newIdentity(t)

	state, err := a.ProgramState()
	require.NoError(t, err)
	org, err := a.Organization(1)
	require.NoError(t, err)
	emp, err := a.Employee(identity, 1)
	require.NoError(t, err)
	sched, err := a.Schedule(1, identity, mint, 1)
	require.NoError(t, err)

	all := []ledger.PublicKey{state, org, emp, sched}
	for i := range all {
		for j := i + 1; j < len(all); j++ {
			assert.NotEqual(t, all[i], all[j], "namespaces %d and %d collided", i, j)
		}
	}
}

func TestAddresses_Deterministic(t *testing.T) {
	a := testAddresses()
	identity := newIdentity(t)

	e1, err := a.Employee(identity, 3)
	require.NoError(t, err)
	e2, err := a.Employee(identity, 3)
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
}

func TestAddresses_MembershipKeyIsPairwise(t *testing.T) {
	// Same identity in two orgs, and two identities in one org, all get
	// distinct employee addresses.
	a := testAddresses()
	alice := newIdentity(t)
	bob := newIdentity(t)

	aliceOrg1, err := a.Employee(alice, 1)
	require.NoError(t, err)
	aliceOrg2, err := a.Employee(alice, 2)
	require.NoError(t, err)
	bobOrg1, err := a.Employee(bob, 1)
	require.NoError(t, err)

	assert.NotEqual(t, aliceOrg1, aliceOrg2)
	assert.NotEqual(t, aliceOrg1, bobOrg1)
}

func TestAddresses_ScheduleCompositeKey(t *testing.T) {
	// Varying any one component of the composite key moves the address.
	a := testAddresses()
	identity := newIdentity(t)
	mintA := newIdentity(t)
	mintB := newIdentity(t)

	base, err := a.Schedule(1, identity, mintA, 1)
	require.NoError(t, err)

	otherOrg, err := a.Schedule(2, identity, mintA, 1)
	require.NoError(t, err)
	otherMint, err := a.Schedule(1, identity, mintB, 1)
	require.NoError(t, err)
	otherID, err := a.Schedule(1, identity, mintA, 2)
	require.NoError(t, err)

	assert.NotEqual(t, base, otherOrg)
	assert.NotEqual(t, base, otherMint)
	assert.NotEqual(t, base, otherID)
}

// =============================================================================
// VAULT DERIVATION
// =============================================================================

func TestAddresses_VaultOwnerIsTheSchedule(t *testing.T) {
	// The vault derivation must accept the schedule address as owner even
	// though it is off-curve; wallets stay restricted to on-curve.
	a := testAddresses()
	identity := newIdentity(t)
	mint := newIdentity(t)

	sched, err := a.Schedule(1, identity, mint, 1)
	require.NoError(t, err)
	require.False(t, ledger.OnCurve(sched))

	vault, err := a.Vault(sched, mint)
	require.NoError(t, err)
	assert.NotEqual(t, sched, vault)

	_, err = a.WalletTokenAccount(sched, mint)
	assert.Error(t, err, "wallet derivation must reject off-curve owners")

	wallet, err := a.WalletTokenAccount(identity, mint)
	require.NoError(t, err)
	assert.NotEqual(t, vault, wallet)
}
