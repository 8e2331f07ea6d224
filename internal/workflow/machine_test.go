package workflow_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-bliss/bakery/internal/workflow"
)

const (
	customerID = int64(10)
	mainID     = int64(20)
	juniorID   = int64(30)
	adminID    = int64(1)
)

var (
	owner        = workflow.Actor{UserID: customerID, Role: workflow.RoleCustomer}
	stranger     = workflow.Actor{UserID: 99, Role: workflow.RoleCustomer}
	mainBaker    = workflow.Actor{UserID: mainID, Role: workflow.RoleMainBaker}
	otherMain    = workflow.Actor{UserID: 21, Role: workflow.RoleMainBaker}
	junior       = workflow.Actor{UserID: juniorID, Role: workflow.RoleJuniorBaker}
	otherJunior  = workflow.Actor{UserID: 31, Role: workflow.RoleJuniorBaker}
	admin        = workflow.Actor{UserID: adminID, Role: workflow.RoleAdmin}
	fullyStaffed = workflow.Assignment{CustomerID: customerID, MainBakerID: mainID, JuniorBakerID: juniorID}
)

func allActors() []workflow.Actor {
	return []workflow.Actor{owner, stranger, mainBaker, otherMain, junior, otherJunior, admin, workflow.System()}
}

func TestTransition_HappyPath(t *testing.T) {
	steps := []struct {
		from     workflow.Status
		to       workflow.Status
		actor    workflow.Actor
		feedback string
	}{
		{workflow.StatusPending, workflow.StatusProcessing, junior, ""},
		{workflow.StatusProcessing, workflow.StatusQualityCheck, junior, ""},
		{workflow.StatusQualityCheck, workflow.StatusProcessing, mainBaker, "needs more frosting"},
		{workflow.StatusProcessing, workflow.StatusQualityCheck, junior, ""},
		{workflow.StatusQualityCheck, workflow.StatusReady, mainBaker, ""},
		{workflow.StatusReady, workflow.StatusDelivered, junior, ""},
	}

	current := workflow.StatusPending
	for _, step := range steps {
		require.Equal(t, step.from, current)

		next, err := workflow.Transition(current, fullyStaffed, workflow.Request{
			Actor:    step.actor,
			Target:   step.to,
			Feedback: step.feedback,
		})

		require.NoError(t, err, "%s -> %s", step.from, step.to)
		assert.Equal(t, step.to, next)
		current = next
	}
	assert.True(t, current.IsTerminal())
}

func TestTransition_PendingToProcessing(t *testing.T) {
	t.Run("should succeed for the assigned junior baker", func(t *testing.T) {
		next, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: junior, Target: workflow.StatusProcessing})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusProcessing, next)
	})

	t.Run("should reject a junior baker who is not assigned", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: otherJunior, Target: workflow.StatusProcessing})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should reject when no junior baker is assigned yet", func(t *testing.T) {
		asg := workflow.Assignment{CustomerID: customerID, MainBakerID: mainID}

		_, err := workflow.Transition(workflow.StatusPending, asg, workflow.Request{Actor: junior, Target: workflow.StatusProcessing})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should reject the main baker", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: mainBaker, Target: workflow.StatusProcessing})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})
}

func TestTransition_Cancel(t *testing.T) {
	t.Run("should allow the owning customer", func(t *testing.T) {
		next, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: owner, Target: workflow.StatusCancelled})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusCancelled, next)
	})

	t.Run("should allow an admin", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: admin, Target: workflow.StatusCancelled})

		require.NoError(t, err)
	})

	t.Run("should reject a customer who does not own the order", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: stranger, Target: workflow.StatusCancelled})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should only be reachable from pending", func(t *testing.T) {
		for _, from := range []workflow.Status{workflow.StatusProcessing, workflow.StatusQualityCheck, workflow.StatusReady} {
			_, err := workflow.Transition(from, fullyStaffed, workflow.Request{Actor: admin, Target: workflow.StatusCancelled})

			assert.ErrorIs(t, err, workflow.ErrInvalidTransition, "from %s", from)
		}
	})
}

func TestTransition_QualityCheck(t *testing.T) {
	t.Run("should require feedback when rejecting", func(t *testing.T) {
		for _, feedback := range []string{"", "   ", "\n\t"} {
			_, err := workflow.Transition(workflow.StatusQualityCheck, fullyStaffed, workflow.Request{
				Actor:    mainBaker,
				Target:   workflow.StatusProcessing,
				Feedback: feedback,
			})

			assert.ErrorIs(t, err, workflow.ErrMissingFeedback, "feedback %q", feedback)
		}
	})

	t.Run("should send the order back with feedback", func(t *testing.T) {
		next, err := workflow.Transition(workflow.StatusQualityCheck, fullyStaffed, workflow.Request{
			Actor:    mainBaker,
			Target:   workflow.StatusProcessing,
			Feedback: "needs more frosting",
		})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusProcessing, next)
	})

	t.Run("should check the actor before the feedback", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusQualityCheck, fullyStaffed, workflow.Request{Actor: otherMain, Target: workflow.StatusProcessing})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should let an admin approve", func(t *testing.T) {
		next, err := workflow.Transition(workflow.StatusQualityCheck, fullyStaffed, workflow.Request{Actor: admin, Target: workflow.StatusReady})

		require.NoError(t, err)
		assert.Equal(t, workflow.StatusReady, next)
	})

	t.Run("should not let the junior baker approve their own work", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusQualityCheck, fullyStaffed, workflow.Request{Actor: junior, Target: workflow.StatusReady})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})
}

func TestTransition_Delivery(t *testing.T) {
	for _, actor := range []workflow.Actor{junior, otherJunior, mainBaker, otherMain, admin, workflow.System()} {
		t.Run(fmt.Sprintf("should allow %s", actor.Role), func(t *testing.T) {
			next, err := workflow.Transition(workflow.StatusReady, fullyStaffed, workflow.Request{Actor: actor, Target: workflow.StatusDelivered})

			require.NoError(t, err)
			assert.Equal(t, workflow.StatusDelivered, next)
		})
	}

	t.Run("should reject customers", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusReady, fullyStaffed, workflow.Request{Actor: owner, Target: workflow.StatusDelivered})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	for _, from := range []workflow.Status{workflow.StatusDelivered, workflow.StatusCancelled} {
		for _, to := range workflow.Statuses() {
			for _, actor := range allActors() {
				_, err := workflow.Transition(from, fullyStaffed, workflow.Request{Actor: actor, Target: to, Feedback: "x"})

				assert.ErrorIs(t, err, workflow.ErrInvalidTransition, "%s -> %s by %s", from, to, actor.Role)
			}
		}
	}
}

func TestTransition_NeverProducesUnknownStatus(t *testing.T) {
	for _, from := range workflow.Statuses() {
		for _, to := range workflow.Statuses() {
			for _, actor := range allActors() {
				next, err := workflow.Transition(from, fullyStaffed, workflow.Request{Actor: actor, Target: to, Feedback: "fix it"})
				if err != nil {
					assert.Empty(t, next)
					continue
				}
				require.NoError(t, next.Validate())
				assert.Equal(t, to, next)
			}
		}
	}
}

func TestTransition_RejectsUnknownStatuses(t *testing.T) {
	t.Run("should reject unknown current status", func(t *testing.T) {
		_, err := workflow.Transition(workflow.Status("baking"), fullyStaffed, workflow.Request{Actor: admin, Target: workflow.StatusReady})

		assert.ErrorIs(t, err, workflow.ErrUnknownStatus)
	})

	t.Run("should reject unknown target status", func(t *testing.T) {
		_, err := workflow.Transition(workflow.StatusPending, fullyStaffed, workflow.Request{Actor: admin, Target: workflow.Status("eaten")})

		assert.ErrorIs(t, err, workflow.ErrUnknownStatus)
	})
}

func TestAvailable(t *testing.T) {
	assert.Equal(t, []workflow.Status{workflow.StatusProcessing}, workflow.Available(workflow.StatusPending, fullyStaffed, junior))
	assert.Equal(t, []workflow.Status{workflow.StatusCancelled}, workflow.Available(workflow.StatusPending, fullyStaffed, owner))
	assert.Equal(t,
		[]workflow.Status{workflow.StatusProcessing, workflow.StatusReady},
		workflow.Available(workflow.StatusQualityCheck, fullyStaffed, mainBaker),
	)
	assert.Empty(t, workflow.Available(workflow.StatusDelivered, fullyStaffed, admin))
	assert.True(t, workflow.RequiresFeedback(workflow.StatusQualityCheck, workflow.StatusProcessing))
	assert.False(t, workflow.RequiresFeedback(workflow.StatusQualityCheck, workflow.StatusReady))
}

func TestAssign(t *testing.T) {
	unstaffed := workflow.Assignment{CustomerID: customerID}

	t.Run("should claim the order for the acting main baker", func(t *testing.T) {
		got, err := workflow.Assign(workflow.StatusPending, unstaffed, workflow.AssignRequest{Actor: mainBaker, JuniorBakerID: juniorID, OnTeam: true})

		require.NoError(t, err)
		assert.Equal(t, mainID, got.MainBakerID)
		assert.Equal(t, juniorID, got.JuniorBakerID)
		assert.Equal(t, customerID, got.CustomerID)
	})

	t.Run("should reject a junior baker from another team", func(t *testing.T) {
		_, err := workflow.Assign(workflow.StatusPending, unstaffed, workflow.AssignRequest{Actor: mainBaker, JuniorBakerID: juniorID, OnTeam: false})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should reject a main baker who does not own the order", func(t *testing.T) {
		asg := workflow.Assignment{CustomerID: customerID, MainBakerID: mainID}

		_, err := workflow.Assign(workflow.StatusPending, asg, workflow.AssignRequest{Actor: otherMain, JuniorBakerID: juniorID, OnTeam: true})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should block reassignment", func(t *testing.T) {
		_, err := workflow.Assign(workflow.StatusPending, fullyStaffed, workflow.AssignRequest{Actor: mainBaker, JuniorBakerID: 31, OnTeam: true})

		assert.ErrorIs(t, err, workflow.ErrAlreadyAssigned)
	})

	t.Run("should only assign pending orders", func(t *testing.T) {
		_, err := workflow.Assign(workflow.StatusProcessing, unstaffed, workflow.AssignRequest{Actor: mainBaker, JuniorBakerID: juniorID, OnTeam: true})

		assert.ErrorIs(t, err, workflow.ErrInvalidTransition)
	})

	t.Run("should let an admin assign for the owning main baker", func(t *testing.T) {
		asg := workflow.Assignment{CustomerID: customerID, MainBakerID: mainID}

		got, err := workflow.Assign(workflow.StatusPending, asg, workflow.AssignRequest{Actor: admin, JuniorBakerID: juniorID, OnTeam: true})

		require.NoError(t, err)
		assert.Equal(t, mainID, got.MainBakerID)
		assert.Equal(t, juniorID, got.JuniorBakerID)
	})

	t.Run("should not let an admin assign an order without a main baker", func(t *testing.T) {
		_, err := workflow.Assign(workflow.StatusPending, unstaffed, workflow.AssignRequest{Actor: admin, JuniorBakerID: juniorID, OnTeam: true})

		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
	})

	t.Run("should not let juniors or customers assign", func(t *testing.T) {
		for _, actor := range []workflow.Actor{junior, owner} {
			_, err := workflow.Assign(workflow.StatusPending, unstaffed, workflow.AssignRequest{Actor: actor, JuniorBakerID: juniorID, OnTeam: true})

			assert.ErrorIs(t, err, workflow.ErrUnauthorized)
		}
	})
}
