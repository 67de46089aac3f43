package models

// BodyPart is a body-part type (chest, back, legs ...).
type BodyPart struct {
	Base        `bson:",inline"`
	Ownership   `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,max=64"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Icon        string `bson:"icon,omitempty" json:"icon,omitempty"`
	Order       int    `bson:"order" json:"order" validate:"gte=0"`
}

func (b *BodyPart) GetOrder() int  { return b.Order }
func (b *BodyPart) SetOrder(o int) { b.Order = o }

// MuscleType belongs to a body part through BodyPartID (not enforced).
type MuscleType struct {
	Base        `bson:",inline"`
	Ownership   `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,max=64"`
	BodyPartID  string `bson:"bodyPartId" json:"bodyPartId" validate:"required"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Order       int    `bson:"order" json:"order" validate:"gte=0"`
}

func (m *MuscleType) GetOrder() int  { return m.Order }
func (m *MuscleType) SetOrder(o int) { m.Order = o }

type FitnessGoal struct {
	Base        `bson:",inline"`
	Ownership   `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,max=64"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Order       int    `bson:"order" json:"order" validate:"gte=0"`
}

func (g *FitnessGoal) GetOrder() int  { return g.Order }
func (g *FitnessGoal) SetOrder(o int) { g.Order = o }

type UsageScenario struct {
	Base        `bson:",inline"`
	Ownership   `bson:",inline"`
	Name        string `bson:"name" json:"name" validate:"required,max=64"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Order       int    `bson:"order" json:"order" validate:"gte=0"`
}

func (s *UsageScenario) GetOrder() int  { return s.Order }
func (s *UsageScenario) SetOrder(o int) { s.Order = o }

// FitnessEquipment references body parts and usage scenarios by id.
type FitnessEquipment struct {
	Base             `bson:",inline"`
	Ownership        `bson:",inline"`
	Name             string   `bson:"name" json:"name" validate:"required,max=64"`
	Description      string   `bson:"description,omitempty" json:"description,omitempty"`
	Image            string   `bson:"image,omitempty" json:"image,omitempty"`
	BodyPartIDs      []string `bson:"bodyPartIds,omitempty" json:"bodyPartIds,omitempty"`
	UsageScenarioIDs []string `bson:"usageScenarioIds,omitempty" json:"usageScenarioIds,omitempty"`
	Order            int      `bson:"order" json:"order" validate:"gte=0"`
}

func (e *FitnessEquipment) GetOrder() int  { return e.Order }
func (e *FitnessEquipment) SetOrder(o int) { e.Order = o }
