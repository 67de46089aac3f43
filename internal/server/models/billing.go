package models

import "time"

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Payment is a payment record of a user.
type Payment struct {
	Base     `bson:",inline"`
	UserID   string     `bson:"userId" json:"userId" validate:"required"`
	Amount   float64    `bson:"amount" json:"amount" validate:"gt=0"`
	Currency string     `bson:"currency,omitempty" json:"currency,omitempty" validate:"omitempty,len=3"`
	Method   string     `bson:"method,omitempty" json:"method,omitempty"`
	Status   string     `bson:"status" json:"status" validate:"omitempty,oneof=pending paid refunded"`
	PaidAt   *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	Remark   string     `bson:"remark,omitempty" json:"remark,omitempty"`
}

// Membership is the membership level of a user.
type Membership struct {
	Base      `bson:",inline"`
	UserID    string     `bson:"userId" json:"userId" validate:"required"`
	Level     string     `bson:"level" json:"level" validate:"required"`
	StartDate *time.Time `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Status    string     `bson:"status,omitempty" json:"status,omitempty"`
}
