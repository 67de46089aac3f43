// Package models holds the persisted document shapes and their validation
// rules. bson and json field names are kept identical (except _id/id) so
// store filters and request keys use one vocabulary.
package models

import "time"

// Base carries identity and timestamps common to every document.
type Base struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) Meta() *Base { return b }

// Ownership marks user-authored records. A record with IsCustom=false and
// no UserID is a system record.
type Ownership struct {
	UserID   string `bson:"userId,omitempty" json:"userId,omitempty"`
	IsCustom bool   `bson:"isCustom" json:"isCustom"`
}

func (o *Ownership) Owner() *Ownership { return o }

// Document is implemented by pointers to every persisted model.
type Document interface {
	Meta() *Base
}

// Owned is implemented by documents that carry Ownership.
type Owned interface {
	Document
	Owner() *Ownership
}

// Ordered is implemented by documents with a list position.
type Ordered interface {
	Document
	GetOrder() int
	SetOrder(int)
}

// Field names shared by filters and patches.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldUserID    = "userId"
	FieldIsCustom  = "isCustom"
	FieldOrder     = "order"
	FieldName      = "name"
)
