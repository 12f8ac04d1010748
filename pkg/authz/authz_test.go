package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicy_Enforce(t *testing.T) {
	policy := New().
		Grant("admin", "assign_custodian").
		Grant("property_custodian", "delegate_staff", "enqueue_job")

	require.NoError(t, policy.Enforce("admin", "assign_custodian"))
	require.NoError(t, policy.Enforce("property_custodian", "enqueue_job"))

	err := policy.Enforce("staff", "assign_custodian")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrForbidden))

	err = policy.Enforce("admin", "delegate_staff")
	require.True(t, errors.Is(err, ErrForbidden))
}
