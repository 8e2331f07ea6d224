package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-bliss/bakery/internal/entity"
	notificationrepo "github.com/bakery-bliss/bakery/internal/repository/notification"
	userrepo "github.com/bakery-bliss/bakery/internal/repository/user"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

type directory struct {
	users map[int64]*entity.User
	teams map[int64][]int64
}

func (d directory) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, userrepo.ErrNotFound
}

func (d directory) IsTeamMember(_ context.Context, mainID, juniorID int64) (bool, error) {
	for _, id := range d.teams[mainID] {
		if id == juniorID {
			return true, nil
		}
	}
	return false, nil
}

func (d directory) TeamMembers(_ context.Context, mainID int64) ([]*entity.User, error) {
	var out []*entity.User
	for _, id := range d.teams[mainID] {
		out = append(out, d.users[id])
	}
	return out, nil
}

type inbox struct {
	limit int
	err   error
}

func (i *inbox) ListByUser(_ context.Context, userID int64, limit int) ([]*entity.Notification, error) {
	i.limit = limit
	if i.err != nil {
		return nil, i.err
	}
	return []*entity.Notification{{UserID: userID, Kind: "order.status_changed"}}, nil
}

var dir = directory{
	users: map[int64]*entity.User{
		1:  {ID: 1, Name: "Ana", Role: "customer"},
		10: {ID: 10, Name: "Marie", Role: "main_baker"},
		20: {ID: 20, Name: "Jules", Role: "junior_baker"},
		21: {ID: 21, Name: "Lea", Role: "junior_baker"},
	},
	teams: map[int64][]int64{10: {20, 21}},
}

func TestService_TeamMembers(t *testing.T) {
	ctx := context.Background()
	svc := newService(dir, &inbox{}, nil)

	cases := []struct {
		name  string
		actor workflow.Actor
		team  int64
		kind  errorbank.Kind
	}{
		{"main baker sees own team", workflow.Actor{UserID: 10, Role: workflow.RoleMainBaker}, 10, ""},
		{"member sees team", workflow.Actor{UserID: 20, Role: workflow.RoleJuniorBaker}, 10, ""},
		{"admin sees any team", workflow.Actor{UserID: 99, Role: workflow.RoleAdmin}, 10, ""},
		{"other main baker", workflow.Actor{UserID: 11, Role: workflow.RoleMainBaker}, 10, errorbank.KindForbidden},
		{"outside junior", workflow.Actor{UserID: 22, Role: workflow.RoleJuniorBaker}, 10, errorbank.KindForbidden},
		{"customer", workflow.Actor{UserID: 1, Role: workflow.RoleCustomer}, 10, errorbank.KindForbidden},
		{"not a main baker", workflow.Actor{UserID: 99, Role: workflow.RoleAdmin}, 1, errorbank.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			members, err := svc.TeamMembers(ctx, tc.actor, tc.team)
			if tc.kind == "" {
				require.NoError(t, err)
				assert.Len(t, members, 2)
				return
			}
			assert.Equal(t, tc.kind, errorbank.From(err).Kind())
		})
	}
}

func TestService_Profile(t *testing.T) {
	svc := newService(dir, &inbox{}, nil)

	u, err := svc.Profile(context.Background(), workflow.Actor{UserID: 20, Role: workflow.RoleJuniorBaker})
	require.NoError(t, err)
	assert.Equal(t, "Jules", u.Name)

	_, err = svc.Profile(context.Background(), workflow.Actor{UserID: 404})
	assert.Equal(t, errorbank.KindNotFound, errorbank.From(err).Kind())
}

func TestService_Notifications(t *testing.T) {
	ctx := context.Background()
	box := &inbox{}
	svc := newService(dir, box, nil)

	notes, err := svc.Notifications(ctx, workflow.Actor{UserID: 1, Role: workflow.RoleCustomer}, 500)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, defaultNotificationLimit, box.limit)

	box.err = errors.New("db down")
	_, err = svc.Notifications(ctx, workflow.Actor{UserID: 1}, 5)
	assert.Equal(t, errorbank.KindInternal, errorbank.From(err).Kind())
}

var (
	_ Directory = (*userrepo.Repository)(nil)
	_ Inbox     = (*notificationrepo.Repository)(nil)
)
