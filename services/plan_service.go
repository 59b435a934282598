package services

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/akinalp/blogme/models"
	"github.com/akinalp/blogme/pkg"
	"github.com/akinalp/blogme/repository"
)

//go:embed plans.yaml
var defaultCatalog []byte

// PlanService manages the device's subscription plan and the privileges
// it grants.
type PlanService interface {
	Catalog() []models.Plan
	Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.Plan, Result, error)
	// Current returns the active plan, if any.
	Current(ctx context.Context) (*models.Plan, bool)
	Privileges(ctx context.Context) models.Privileges
	HasPermission(ctx context.Context, key string) bool
	// CanPublish reports whether a user with count posts may publish
	// another one. Without a plan nothing is allowed.
	CanPublish(ctx context.Context, count int) bool
}

type planService struct {
	store   repository.StoreRepository
	catalog []models.Plan
}

// ParseCatalog decodes a plan catalog document.
func ParseCatalog(data []byte) ([]models.Plan, error) {
	var doc struct {
		Plans []models.Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}
	return doc.Plans, nil
}

// NewPlanService creates the plan service with the embedded catalog.
func NewPlanService(store repository.StoreRepository) (PlanService, error) {
	catalog, err := ParseCatalog(defaultCatalog)
	if err != nil {
		return nil, err
	}
	return &planService{store: store, catalog: catalog}, nil
}

func (s *planService) Catalog() []models.Plan {
	return append([]models.Plan(nil), s.catalog...)
}

func (s *planService) find(name string) (models.Plan, bool) {
	return lo.Find(s.catalog, func(p models.Plan) bool { return p.Name == name })
}

func (s *planService) Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.Plan, Result, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgPlanNameRequired)
	}
	plan, ok := s.find(req.Plan)
	if !ok {
		return nil, Result{}, fmt.Errorf("%w: %s", pkg.ErrBadRequest, MsgPlanUnknown)
	}

	// The plan name is stored as a bare string, the privileges as JSON.
	if err := s.store.Set(ctx, models.PlanKey, plan.Name); err != nil {
		return nil, Result{}, fmt.Errorf("failed to store plan: %w", err)
	}
	if err := repository.SaveJSON(ctx, s.store, models.PrivilegesKey, plan.Privileges); err != nil {
		return nil, Result{}, err
	}

	return &plan, Result{
		Message: MsgSubscribed,
		Params:  map[string]string{"name": name, "plan": plan.Name},
		Kind:    "success",
	}, nil
}

func (s *planService) Current(ctx context.Context) (*models.Plan, bool) {
	name, ok, err := s.store.Get(ctx, models.PlanKey)
	if err != nil || !ok || name == "" {
		return nil, false
	}
	if plan, found := s.find(name); found {
		return &plan, true
	}
	// a plan that left the catalog keeps its stored privileges
	return &models.Plan{Name: name, Privileges: s.Privileges(ctx)}, true
}

func (s *planService) Privileges(ctx context.Context) models.Privileges {
	return repository.LoadJSON(ctx, s.store, models.PrivilegesKey, models.Privileges{})
}

func (s *planService) HasPermission(ctx context.Context, key string) bool {
	return s.Privileges(ctx).Has(key)
}

func (s *planService) CanPublish(ctx context.Context, count int) bool {
	return s.Privileges(ctx).AllowsAnotherPost(count)
}
