package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-bliss/bakery/internal/workflow"
)

func TestParseStatus(t *testing.T) {
	t.Run("should accept every known status", func(t *testing.T) {
		for _, s := range workflow.Statuses() {
			got, err := workflow.ParseStatus(string(s))

			require.NoError(t, err)
			assert.Equal(t, s, got)
		}
	})

	t.Run("should normalise case and whitespace", func(t *testing.T) {
		got, err := workflow.ParseStatus("  Quality_Check ")

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusQualityCheck, got)
	})

	t.Run("should reject unknown values", func(t *testing.T) {
		for _, raw := range []string{"", "shipped", "qualitycheck"} {
			_, err := workflow.ParseStatus(raw)

			assert.ErrorIs(t, err, workflow.ErrUnknownStatus, raw)
		}
	})
}

func TestStatus_Flags(t *testing.T) {
	assert.Len(t, workflow.Statuses(), 6)
	for _, s := range workflow.Statuses() {
		wantTerminal := s == workflow.StatusDelivered || s == workflow.StatusCancelled
		assert.Equal(t, wantTerminal, s.IsTerminal(), s.String())
		assert.Equal(t, s == workflow.StatusDelivered, s.TriggersCommission(), s.String())
	}
}

func TestParseRole(t *testing.T) {
	got, err := workflow.ParseRole("Main_Baker")
	require.NoError(t, err)
	assert.Equal(t, workflow.RoleMainBaker, got)
	assert.True(t, got.IsBaker())

	_, err = workflow.ParseRole("system")
	assert.ErrorIs(t, err, workflow.ErrUnknownRole)
}

func TestAssignment_CanView(t *testing.T) {
	assert.True(t, fullyStaffed.CanView(owner))
	assert.True(t, fullyStaffed.CanView(mainBaker))
	assert.True(t, fullyStaffed.CanView(junior))
	assert.True(t, fullyStaffed.CanView(admin))
	assert.False(t, fullyStaffed.CanView(stranger))
	assert.False(t, fullyStaffed.CanView(otherMain))
	assert.False(t, fullyStaffed.CanView(otherJunior))
}
