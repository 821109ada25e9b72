package vesting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/ledger/ledgertest"
	"github.com/warp/vesting-engine/vesting"
	"github.com/warp/vesting-engine/vesting/vestingtest"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*vesting.Service, *ledgertest.Ledger, *vestingtest.Program) {
	t.Helper()
	l := ledgertest.New()
	prog := vestingtest.New(vesting.DefaultProgramID)
	prog.Install(l)

	svc := vesting.NewService(l, vesting.DefaultProgramID, zap.NewNop())
	svc.Submitter.PollInterval = time.Millisecond
	return svc, l, prog
}

// initializedService sets up a service with the program state created.
func initializedService(t *testing.T) (*vesting.Service, *ledgertest.Ledger, *vestingtest.Program, *ledger.Keypair) {
	t.Helper()
	svc, l, prog := newTestService(t)
	admin := newKeypair(t)
	_, err := svc.InitializeProgram(context.Background(), admin)
	require.NoError(t, err)
	return svc, l, prog, admin
}

func newKeypair(t *testing.T) *ledger.Keypair {
	t.Helper()
	kp, err := ledger.NewKeypair()
	require.NoError(t, err)
	return kp
}

// fundWallet seeds a wallet's token account with base units.
func fundWallet(t *testing.T, svc *vesting.Service, l *ledgertest.Ledger, wallet ledger.PublicKey, mint ledger.PublicKey, amount uint64) ledger.PublicKey {
	t.Helper()
	addr, err := svc.Addresses.WalletTokenAccount(wallet, mint)
	require.NoError(t, err)
	l.SetTokenAccount(addr, ledgertest.TokenAccount{
		Mint:     mint,
		Owner:    wallet,
		Amount:   amount,
		Decimals: 9,
	})
	return addr
}
