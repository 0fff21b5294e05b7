package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionStatus represents the lifecycle status of a competition
type CompetitionStatus string

const (
	CompetitionStatusDraft     CompetitionStatus = "DRAFT"
	CompetitionStatusActive    CompetitionStatus = "ACTIVE"
	CompetitionStatusSoldOut   CompetitionStatus = "SOLD_OUT"
	CompetitionStatusClosed    CompetitionStatus = "CLOSED"
	CompetitionStatusCancelled CompetitionStatus = "CANCELLED"
)

// IsSellable reports whether tickets may currently be sold for this status
func (s CompetitionStatus) IsSellable() bool {
	return s == CompetitionStatusActive
}

// Competition represents a single prize competition with a fixed ticket pool
type Competition struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name"`
	Status           CompetitionStatus  `bson:"status" json:"status"`
	MaxTickets       int                `bson:"maxTickets" json:"maxTickets"`             // Fixed pool size, immutable once locked
	TicketsSold      int                `bson:"ticketsSold" json:"ticketsSold"`           // Denormalized; updated only by the allocation engine
	TicketPoolLocked bool               `bson:"ticketPoolLocked" json:"ticketPoolLocked"` // false->true exactly once, never reverts
	PoolGeneratedAt  time.Time          `bson:"poolGeneratedAt,omitempty" json:"poolGeneratedAt,omitempty"`
	TicketPrice      float64            `bson:"ticketPrice" json:"ticketPrice"`
	DrawDate         time.Time          `bson:"drawDate,omitempty" json:"drawDate,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
