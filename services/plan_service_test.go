package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/repository"
)

func newPlanService(t *testing.T) (PlanService, repository.StoreRepository) {
	t.Helper()
	db := newTestDB(t)
	store := repository.NewSQLiteStoreRepo(db.Conn)
	svc, err := NewPlanService(store)
	require.NoError(t, err)
	return svc, store
}

func TestEmbeddedCatalog(t *testing.T) {
	svc, _ := newPlanService(t)

	plans := svc.Catalog()
	require.Len(t, plans, 3)
	assert.Equal(t, "Plan Básico", plans[0].Name)
	assert.Equal(t, 10, plans[0].Privileges.Posts)
	assert.False(t, plans[0].Privileges.CustomCover)
	assert.Equal(t, models.UnlimitedPosts, plans[2].Privileges.Posts)
}

func TestParseCatalogRejectsEmpty(t *testing.T) {
	_, err := ParseCatalog([]byte("plans: []"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("plans: [oops"))
	assert.Error(t, err)
}

func TestNoPlanGrantsNothing(t *testing.T) {
	svc, _ := newPlanService(t)
	ctx := context.Background()

	_, ok := svc.Current(ctx)
	assert.False(t, ok)
	assert.False(t, svc.HasPermission(ctx, models.PermComments))
	assert.False(t, svc.CanPublish(ctx, 0))
}

func TestSubscribe(t *testing.T) {
	svc, store := newPlanService(t)
	ctx := context.Background()

	_, _, err := svc.Subscribe(ctx, models.SubscribeRequest{Name: " ", Plan: "Plan Pro"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgPlanNameRequired, pkg.UserMessage(err))

	_, _, err = svc.Subscribe(ctx, models.SubscribeRequest{Name: "Ana", Plan: "Plan Oro"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	assert.Equal(t, MsgPlanUnknown, pkg.UserMessage(err))

	plan, res, err := svc.Subscribe(ctx, models.SubscribeRequest{Name: "Ana", Plan: "Plan Básico"})
	require.NoError(t, err)
	assert.Equal(t, "Plan Básico", plan.Name)
	assert.Equal(t, MsgSubscribed, res.Message)
	assert.Equal(t, map[string]string{"name": "Ana", "plan": "Plan Básico"}, res.Params)

	raw, ok, err := store.Get(ctx, models.PlanKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Plan Básico", raw, "stored as a bare string")

	current, ok := svc.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "Plan Básico", current.Name)

	assert.True(t, svc.HasPermission(ctx, models.PermComments))
	assert.False(t, svc.HasPermission(ctx, models.PermExtraTools))
	assert.False(t, svc.HasPermission(ctx, "unknown"))
	assert.True(t, svc.CanPublish(ctx, 9))
	assert.False(t, svc.CanPublish(ctx, 10))
}

func TestUnlimitedPlan(t *testing.T) {
	svc, _ := newPlanService(t)
	ctx := context.Background()

	_, _, err := svc.Subscribe(ctx, models.SubscribeRequest{Name: "Ana", Plan: "Plan Premium"})
	require.NoError(t, err)
	assert.True(t, svc.CanPublish(ctx, 100000))
}

func TestStoredNullPostLimitCanPublish(t *testing.T) {
	svc, store := newPlanService(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, models.PlanKey, "Plan Premium"))
	require.NoError(t, store.Set(ctx, models.PrivilegesKey,
		`{"publicaciones":null,"comentarios":true,"favoritos":true,"portada":true,"herramientas":true}`))

	assert.True(t, svc.CanPublish(ctx, 250))
	assert.True(t, svc.HasPermission(ctx, models.PermPosts))
}
