package vesting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// JOINING
// =============================================================================

func TestJoinOrganization(t *testing.T) {
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, owner, "Warp Industries")
	require.NoError(t, err)

	sig, err := svc.JoinOrganization(ctx, employee, orgID, "Ada Lovelace", "Engineer")
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	emp, err := svc.FetchEmployee(ctx, employee.PublicKey(), orgID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", emp.Name)
	assert.Equal(t, "Engineer", emp.Position)
	assert.True(t, emp.Active)
	assert.Equal(t, orgID, emp.OrgID)

	org, err := svc.FetchOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), org.TotalEmployees)
}

func TestJoinOrganization_DuplicateMembership(t *testing.T) {
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, owner, "Warp Industries")
	require.NoError(t, err)

	_, err = svc.JoinOrganization(ctx, employee, orgID, "Ada Lovelace", "Engineer")
	require.NoError(t, err)

	_, err = svc.JoinOrganization(ctx, employee, orgID, "Ada Again", "Manager")
	assert.ErrorIs(t, err, vesting.ErrAlreadyMember)
}

func TestJoinOrganization_SameIdentityAcrossOrgs(t *testing.T) {
	// The membership key is the (identity, org) pair: one person can work
	// for two organizations.
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	ctx := context.Background()

	org1, _, err := svc.CreateOrganization(ctx, owner, "Alpha")
	require.NoError(t, err)
	org2, _, err := svc.CreateOrganization(ctx, owner, "Beta")
	require.NoError(t, err)

	_, err = svc.JoinOrganization(ctx, employee, org1, "Ada", "Engineer")
	require.NoError(t, err)
	_, err = svc.JoinOrganization(ctx, employee, org2, "Ada", "Advisor")
	require.NoError(t, err)

	memberships, err := svc.FetchEmployeeMemberships(ctx, employee.PublicKey())
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
}

func TestJoinOrganization_Validation(t *testing.T) {
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, owner, "Warp Industries")
	require.NoError(t, err)

	_, err = svc.JoinOrganization(ctx, employee, orgID, "", "Engineer")
	assert.ErrorIs(t, err, vesting.ErrEmptyName)

	_, err = svc.JoinOrganization(ctx, employee, 99, "Ada", "Engineer")
	assert.ErrorIs(t, err, vesting.ErrOrganizationNotFound)
}

// =============================================================================
// REMOVAL
// =============================================================================

func TestRemoveEmployee(t *testing.T) {
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, owner, "Warp Industries")
	require.NoError(t, err)
	_, err = svc.JoinOrganization(ctx, employee, orgID, "Ada", "Engineer")
	require.NoError(t, err)

	_, err = svc.RemoveEmployee(ctx, owner, orgID, employee.PublicKey())
	require.NoError(t, err)

	_, err = svc.FetchEmployee(ctx, employee.PublicKey(), orgID)
	assert.ErrorIs(t, err, vesting.ErrEmployeeNotFound)

	org, err := svc.FetchOrganization(ctx, orgID)
	require.NoError(t, err)
	assert.Zero(t, org.TotalEmployees)
}

func TestRemoveEmployee_OwnerOnly(t *testing.T) {
	// The authorization check fails locally, before anything is signed.
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	impostor := newKeypair(t)
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, owner, "Warp Industries")
	require.NoError(t, err)
	_, err = svc.JoinOrganization(ctx, employee, orgID, "Ada", "Engineer")
	require.NoError(t, err)

	_, err = svc.RemoveEmployee(ctx, impostor, orgID, employee.PublicKey())
	assert.ErrorIs(t, err, vesting.ErrUnauthorized)

	// Still a member.
	_, err = svc.FetchEmployee(ctx, employee.PublicKey(), orgID)
	require.NoError(t, err)
}

// =============================================================================
// READS
// =============================================================================

func TestFetchOrganizationEmployees(t *testing.T) {
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	ctx := context.Background()

	org1, _, err := svc.CreateOrganization(ctx, owner, "Alpha")
	require.NoError(t, err)
	org2, _, err := svc.CreateOrganization(ctx, owner, "Beta")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.JoinOrganization(ctx, newKeypair(t), org1, "Member", "Engineer")
		require.NoError(t, err)
	}
	_, err = svc.JoinOrganization(ctx, newKeypair(t), org2, "Outsider", "Advisor")
	require.NoError(t, err)

	members, err := svc.FetchOrganizationEmployees(ctx, org1)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	all, err := svc.FetchAllEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestIsEmployeeOfOrganization(t *testing.T) {
	svc, _, _, _ := initializedService(t)
	owner := newKeypair(t)
	employee := newKeypair(t)
	stranger := newKeypair(t)
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, owner, "Warp Industries")
	require.NoError(t, err)
	_, err = svc.JoinOrganization(ctx, employee, orgID, "Ada", "Engineer")
	require.NoError(t, err)

	ok, err := svc.IsEmployeeOfOrganization(ctx, employee.PublicKey(), orgID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsEmployeeOfOrganization(ctx, stranger.PublicKey(), orgID)
	require.NoError(t, err)
	assert.False(t, ok)
}
