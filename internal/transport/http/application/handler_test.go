package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bakery-bliss/bakery/internal/entity"
	service "github.com/bakery-bliss/bakery/internal/service/application"
	"github.com/bakery-bliss/bakery/internal/transport/http/identity"
	"github.com/bakery-bliss/bakery/internal/workflow"
	"github.com/bakery-bliss/bakery/pkg/errorbank"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Submit(_ context.Context, actor workflow.Actor, in service.SubmitInput) (*entity.BakerApplication, error) {
	args := m.Called(actor, in)
	app, _ := args.Get(0).(*entity.BakerApplication)
	return app, args.Error(1)
}

func (m *mockService) List(_ context.Context, actor workflow.Actor, status string) ([]*entity.BakerApplication, error) {
	args := m.Called(actor, status)
	apps, _ := args.Get(0).([]*entity.BakerApplication)
	return apps, args.Error(1)
}

func (m *mockService) Approve(_ context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error) {
	args := m.Called(actor, id, note)
	app, _ := args.Get(0).(*entity.BakerApplication)
	return app, args.Error(1)
}

func (m *mockService) Reject(_ context.Context, actor workflow.Actor, id int64, note string) (*entity.BakerApplication, error) {
	args := m.Called(actor, id, note)
	app, _ := args.Get(0).(*entity.BakerApplication)
	return app, args.Error(1)
}

type users map[int64]*entity.User

func (u users) GetByID(_ context.Context, id int64) (*entity.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errorbank.NotFound("no user")
}

var (
	customer = workflow.Actor{UserID: 1, Role: workflow.RoleCustomer}
	admin    = workflow.Actor{UserID: 99, Role: workflow.RoleAdmin}
)

func newServer(svc *mockService) *echo.Echo {
	e := echo.New()
	auth := identity.NewWithUsers(users{
		1:  {ID: 1, Role: "customer"},
		99: {ID: 99, Role: "admin"},
	}, "X-User-ID", nil)
	Register(e, &Handler{svc: svc}, auth)
	return e
}

func do(e *echo.Echo, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Submit(t *testing.T) {
	target := int64(10)
	svc := &mockService{}
	svc.On("Submit", customer, service.SubmitInput{RequestedRole: "junior_baker", TargetMainBakerID: &target, Reason: "I bake"}).
		Return(&entity.BakerApplication{ID: 4, Status: "pending"}, nil)

	rec := do(newServer(svc), http.MethodPost, "/applications", "1",
		`{"requested_role":"junior_baker","target_main_baker_id":10,"reason":"I bake"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestHandler_List(t *testing.T) {
	svc := &mockService{}
	svc.On("List", admin, "pending").Return([]*entity.BakerApplication{{ID: 1}, {ID: 2}}, nil)

	rec := do(newServer(svc), http.MethodGet, "/applications?status=pending", "99", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)
}

func TestHandler_Review(t *testing.T) {
	svc := &mockService{}
	svc.On("Approve", admin, int64(4), "welcome").Return(&entity.BakerApplication{ID: 4, Status: "approved"}, nil)
	svc.On("Reject", admin, int64(5), "").Return(nil,
		errorbank.Conflict("application has already been reviewed", errorbank.WithCode("already_reviewed")))
	e := newServer(svc)

	assert.Equal(t, http.StatusOK, do(e, http.MethodPatch, "/applications/4/approve", "99", `{"note":"welcome"}`).Code)
	assert.Equal(t, http.StatusConflict, do(e, http.MethodPatch, "/applications/5/reject", "99", ``).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPatch, "/applications/x/reject", "99", ``).Code)
	svc.AssertExpectations(t)
}

var _ Service = (*service.Service)(nil)
