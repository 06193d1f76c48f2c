package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateMe_SessionFee(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)
	ctx := context.Background()

	inst := &Profile{Name: "Ana", Role: RoleInstructor}
	cust := &Profile{Name: "Bo", Role: RoleCustomer}
	require.NoError(t, repo.CreateProfile(ctx, inst))
	require.NoError(t, repo.CreateProfile(ctx, cust))

	got, err := svc.UpdateMe(ctx, inst.ID, UpdateProfileRequest{SessionFee: strPtr("350.50")})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("350.5").Equal(got.SessionFee))

	_, err = svc.UpdateMe(ctx, inst.ID, UpdateProfileRequest{SessionFee: strPtr("-1")})
	assert.ErrorIs(t, err, ErrInvalidFee)

	_, err = svc.UpdateMe(ctx, cust.ID, UpdateProfileRequest{SessionFee: strPtr("100")})
	assert.ErrorIs(t, err, ErrNotInstructor)

	got, err = svc.UpdateMe(ctx, cust.ID, UpdateProfileRequest{Name: strPtr("  Bob  ")})
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	_, err = svc.UpdateMe(ctx, 999, UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCreateStudio_RequiresOwnerRole(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)
	ctx := context.Background()

	owner := &Profile{Name: "Owner", Role: RoleStudioOwner}
	cust := &Profile{Name: "Cust", Role: RoleCustomer}
	require.NoError(t, repo.CreateProfile(ctx, owner))
	require.NoError(t, repo.CreateProfile(ctx, cust))

	st, err := svc.CreateStudio(ctx, owner.ID, "Reform Lab")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, st.OwnerID)

	_, err = svc.CreateStudio(ctx, cust.ID, "Nope")
	assert.ErrorIs(t, err, ErrNotOwnerRole)

	list, err := svc.ListMyStudios(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Reform Lab", list[0].Name)
}

func TestAdminFlags(t *testing.T) {
	repo := setupTestRepo(t)
	svc := NewService(repo)
	ctx := context.Background()

	owner := &Profile{Name: "Owner", Role: RoleStudioOwner}
	require.NoError(t, repo.CreateProfile(ctx, owner))
	st := &Studio{OwnerID: owner.ID, Name: "Flow"}
	require.NoError(t, repo.CreateStudio(ctx, st))

	p, err := svc.SetProfilePayoutApproval(ctx, owner.ID, true)
	require.NoError(t, err)
	assert.True(t, p.PayoutApproved)

	got, err := svc.SetStudioPayoutApproval(ctx, st.ID, true)
	require.NoError(t, err)
	assert.True(t, got.PayoutApproved)

	_, err = repo.SuspendStudio(ctx, st.ID, svc.now())
	require.NoError(t, err)
	got, err = svc.ReinstateStudio(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, got.Suspended())

	_, err = svc.ReinstateStudio(ctx, 999)
	assert.ErrorIs(t, err, ErrStudioNotFound)
}

func TestHandler_ProfileRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := setupTestRepo(t)
	svc := NewService(repo)
	ctx := context.Background()

	inst := &Profile{Name: "Ana", Role: RoleInstructor}
	require.NoError(t, repo.CreateProfile(ctx, inst))

	r := gin.New()
	as := func(id int64, role Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("user_id", id)
			c.Set("role", string(role))
			c.Next()
		}
	}
	protected := r.Group("/api/v1", as(inst.ID, RoleInstructor))
	admin := r.Group("/api/v1/admin", as(1, RoleAdmin))
	RegisterRoutes(protected, admin, NewHandler(svc), NewAdminHandler(svc, nil))

	send := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(http.MethodPatch, "/api/v1/profile", `{"session_fee":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(http.MethodPatch, "/api/v1/profile", `{"session_fee":"275"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data struct {
			Profile Profile `json:"profile"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, decimal.NewFromInt(275).Equal(body.Data.Profile.SessionFee))

	// Instructors may not open studios.
	w = send(http.MethodPost, "/api/v1/studios", `{"name":"Mine"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(http.MethodPatch, "/api/v1/admin/profiles/"+strconv.FormatInt(inst.ID, 10)+"/payout-approval", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(http.MethodPatch, "/api/v1/admin/profiles/"+strconv.FormatInt(inst.ID, 10)+"/payout-approval", `{"approved":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p, err := repo.GetProfile(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, p.PayoutApproved)
}
