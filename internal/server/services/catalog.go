package services

import (
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/repositories"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
)

var (
	catalogFilters = []FilterParam{
		{Param: "name", Field: models.FieldName, Op: store.OpContains},
		{Param: "isCustom", Field: models.FieldIsCustom, Op: store.OpEq, Type: ParamBool},
		{Param: "userId", Field: models.FieldUserID, Op: store.OpEq},
	}
	catalogSort    = []string{models.FieldName, models.FieldOrder, models.FieldCreatedAt, models.FieldUpdatedAt}
	catalogDefault = []store.SortField{{Field: models.FieldOrder, Dir: store.Asc}}
	newestFirst    = []store.SortField{{Field: models.FieldCreatedAt, Dir: store.Desc}}
	timestampsSort = []string{models.FieldCreatedAt, models.FieldUpdatedAt}
)

func withFilters(base []FilterParam, extra ...FilterParam) []FilterParam {
	out := make([]FilterParam, 0, len(base)+len(extra))
	return append(append(out, base...), extra...)
}

// Resources holds the service of every CRUD resource.
type Resources struct {
	Users          *ResourceService[*models.User]
	BodyParts      *ResourceService[*models.BodyPart]
	MuscleTypes    *ResourceService[*models.MuscleType]
	FitnessGoals   *ResourceService[*models.FitnessGoal]
	UsageScenarios *ResourceService[*models.UsageScenario]
	Equipment      *ResourceService[*models.FitnessEquipment]
	Payments       *ResourceService[*models.Payment]
	Memberships    *ResourceService[*models.Membership]
}

func NewResources(m *repositories.Manager) *Resources {
	return &Resources{
		Users: NewResourceService(m.Users, ResourceConfig[*models.User]{
			Name:   "user",
			Access: AccessAdmin,
			NewDoc: func() *models.User { return &models.User{} },
			Filters: []FilterParam{
				{Param: "username", Field: "username", Op: store.OpContains},
				{Param: "role", Field: "role", Op: store.OpEq},
				{Param: "status", Field: "status", Op: store.OpEq},
			},
			SortFields:  append([]string{"username"}, timestampsSort...),
			DefaultSort: newestFirst,
		}),
		BodyParts: NewResourceService(m.BodyParts, ResourceConfig[*models.BodyPart]{
			Name:        "body part",
			NewDoc:      func() *models.BodyPart { return &models.BodyPart{} },
			Filters:     catalogFilters,
			SortFields:  catalogSort,
			DefaultSort: catalogDefault,
		}),
		MuscleTypes: NewResourceService(m.MuscleTypes, ResourceConfig[*models.MuscleType]{
			Name:   "muscle type",
			NewDoc: func() *models.MuscleType { return &models.MuscleType{} },
			Filters: withFilters(catalogFilters,
				FilterParam{Param: "bodyPartId", Field: "bodyPartId", Op: store.OpEq},
			),
			SortFields:  catalogSort,
			DefaultSort: catalogDefault,
			OrderScope:  []string{"bodyPartId"},
		}),
		FitnessGoals: NewResourceService(m.FitnessGoals, ResourceConfig[*models.FitnessGoal]{
			Name:        "fitness goal",
			NewDoc:      func() *models.FitnessGoal { return &models.FitnessGoal{} },
			Filters:     catalogFilters,
			SortFields:  catalogSort,
			DefaultSort: catalogDefault,
		}),
		UsageScenarios: NewResourceService(m.UsageScenarios, ResourceConfig[*models.UsageScenario]{
			Name:        "usage scenario",
			NewDoc:      func() *models.UsageScenario { return &models.UsageScenario{} },
			Filters:     catalogFilters,
			SortFields:  catalogSort,
			DefaultSort: catalogDefault,
		}),
		Equipment: NewResourceService(m.Equipment, ResourceConfig[*models.FitnessEquipment]{
			Name:   "fitness equipment",
			NewDoc: func() *models.FitnessEquipment { return &models.FitnessEquipment{} },
			Filters: withFilters(catalogFilters,
				FilterParam{Param: "bodyPartId", Field: "bodyPartIds", Op: store.OpEq},
				FilterParam{Param: "usageScenarioId", Field: "usageScenarioIds", Op: store.OpEq},
			),
			SortFields:  catalogSort,
			DefaultSort: catalogDefault,
		}),
		Payments: NewResourceService(m.Payments, ResourceConfig[*models.Payment]{
			Name:   "payment",
			Access: AccessOwned,
			NewDoc: func() *models.Payment { return &models.Payment{} },
			Filters: []FilterParam{
				{Param: "userId", Field: "userId", Op: store.OpEq},
				{Param: "status", Field: "status", Op: store.OpEq},
				{Param: "method", Field: "method", Op: store.OpEq},
				{Param: "minAmount", Field: "amount", Op: store.OpGte, Type: ParamNumber},
				{Param: "maxAmount", Field: "amount", Op: store.OpLte, Type: ParamNumber},
			},
			SortFields:  append([]string{"amount", "paidAt"}, timestampsSort...),
			DefaultSort: newestFirst,
		}),
		Memberships: NewResourceService(m.Memberships, ResourceConfig[*models.Membership]{
			Name:   "membership",
			Access: AccessOwned,
			NewDoc: func() *models.Membership { return &models.Membership{} },
			Filters: []FilterParam{
				{Param: "userId", Field: "userId", Op: store.OpEq},
				{Param: "level", Field: "level", Op: store.OpEq},
				{Param: "status", Field: "status", Op: store.OpEq},
			},
			SortFields:  append([]string{"startDate", "endDate"}, timestampsSort...),
			DefaultSort: newestFirst,
		}),
	}
}
