// Package repositories binds every resource collection to the configured
// store backend.
package repositories

import (
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store/memstore"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store/mongostore"
	"github.com/dmitrijs2005/fitkeeper/internal/server/store/pgstore"
)

// Collection schemas. Unique indexes are created by the MongoDB backend at
// connect time and by the PostgreSQL migrations.
var (
	UsersSchema         = store.Schema{Name: "users", Unique: [][]string{{"username"}}}
	BodyPartsSchema     = store.Schema{Name: "body_parts"}
	MuscleTypesSchema   = store.Schema{Name: "muscle_types"}
	FitnessGoalsSchema  = store.Schema{Name: "fitness_goals"}
	UsageScenarioSchema = store.Schema{Name: "usage_scenarios"}
	EquipmentSchema     = store.Schema{Name: "fitness_equipment"}
	PaymentsSchema      = store.Schema{Name: "payments"}
	MembershipsSchema   = store.Schema{Name: "memberships", Unique: [][]string{{"userId"}}}
)

func Schemas() []store.Schema {
	return []store.Schema{
		UsersSchema, BodyPartsSchema, MuscleTypesSchema, FitnessGoalsSchema,
		UsageScenarioSchema, EquipmentSchema, PaymentsSchema, MembershipsSchema,
	}
}

// Manager holds one collection per resource.
type Manager struct {
	Users          store.Collection[*models.User]
	BodyParts      store.Collection[*models.BodyPart]
	MuscleTypes    store.Collection[*models.MuscleType]
	FitnessGoals   store.Collection[*models.FitnessGoal]
	UsageScenarios store.Collection[*models.UsageScenario]
	Equipment      store.Collection[*models.FitnessEquipment]
	Payments       store.Collection[*models.Payment]
	Memberships    store.Collection[*models.Membership]

	close func() error
}

// Close releases the backend connection if one was established.
func (m *Manager) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

func newUser() *models.User                   { return &models.User{} }
func newBodyPart() *models.BodyPart           { return &models.BodyPart{} }
func newMuscleType() *models.MuscleType       { return &models.MuscleType{} }
func newFitnessGoal() *models.FitnessGoal     { return &models.FitnessGoal{} }
func newUsageScenario() *models.UsageScenario { return &models.UsageScenario{} }
func newEquipment() *models.FitnessEquipment  { return &models.FitnessEquipment{} }
func newPayment() *models.Payment             { return &models.Payment{} }
func newMembership() *models.Membership       { return &models.Membership{} }

func NewMongoManager(conn *store.Lazy[*mongo.Database]) *Manager {
	return &Manager{
		Users:          mongostore.NewCollection(conn, UsersSchema, newUser),
		BodyParts:      mongostore.NewCollection(conn, BodyPartsSchema, newBodyPart),
		MuscleTypes:    mongostore.NewCollection(conn, MuscleTypesSchema, newMuscleType),
		FitnessGoals:   mongostore.NewCollection(conn, FitnessGoalsSchema, newFitnessGoal),
		UsageScenarios: mongostore.NewCollection(conn, UsageScenarioSchema, newUsageScenario),
		Equipment:      mongostore.NewCollection(conn, EquipmentSchema, newEquipment),
		Payments:       mongostore.NewCollection(conn, PaymentsSchema, newPayment),
		Memberships:    mongostore.NewCollection(conn, MembershipsSchema, newMembership),
		close:          func() error { return conn.Close(mongostore.Disconnect) },
	}
}

func NewPostgresManager(conn *store.Lazy[*sql.DB]) *Manager {
	return &Manager{
		Users:          pgstore.NewCollection(conn, UsersSchema, newUser),
		BodyParts:      pgstore.NewCollection(conn, BodyPartsSchema, newBodyPart),
		MuscleTypes:    pgstore.NewCollection(conn, MuscleTypesSchema, newMuscleType),
		FitnessGoals:   pgstore.NewCollection(conn, FitnessGoalsSchema, newFitnessGoal),
		UsageScenarios: pgstore.NewCollection(conn, UsageScenarioSchema, newUsageScenario),
		Equipment:      pgstore.NewCollection(conn, EquipmentSchema, newEquipment),
		Payments:       pgstore.NewCollection(conn, PaymentsSchema, newPayment),
		Memberships:    pgstore.NewCollection(conn, MembershipsSchema, newMembership),
		close:          func() error { return conn.Close((*sql.DB).Close) },
	}
}

func NewMemoryManager() *Manager {
	s := memstore.New(Schemas()...)
	return &Manager{
		Users:          memstore.NewCollection(s, UsersSchema, newUser),
		BodyParts:      memstore.NewCollection(s, BodyPartsSchema, newBodyPart),
		MuscleTypes:    memstore.NewCollection(s, MuscleTypesSchema, newMuscleType),
		FitnessGoals:   memstore.NewCollection(s, FitnessGoalsSchema, newFitnessGoal),
		UsageScenarios: memstore.NewCollection(s, UsageScenarioSchema, newUsageScenario),
		Equipment:      memstore.NewCollection(s, EquipmentSchema, newEquipment),
		Payments:       memstore.NewCollection(s, PaymentsSchema, newPayment),
		Memberships:    memstore.NewCollection(s, MembershipsSchema, newMembership),
	}
}

// Open builds the manager for cfg.StoreDriver. No connection is made until a
// collection is first used.
func Open(cfg *config.Config) (*Manager, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		conn := store.NewLazy(mongostore.Dial(cfg.MongoURI, cfg.MongoDatabase, Schemas()...), cfg.ConnectAttempts, cfg.ConnectDelay)
		return NewMongoManager(conn), nil
	case config.DriverPostgres:
		conn := store.NewLazy(pgstore.Dial(cfg.DatabaseDSN), cfg.ConnectAttempts, cfg.ConnectDelay)
		return NewPostgresManager(conn), nil
	case config.DriverMemory:
		return NewMemoryManager(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
