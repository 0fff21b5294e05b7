package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus represents the lifecycle status of a ticket order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// Order represents a purchase request for N tickets in a competition.
// The allocation engine binds claimed tickets to the order as a unit.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	CompetitionID primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Quantity      int                `bson:"quantity" json:"quantity"`
	Status        OrderStatus        `bson:"status" json:"status"`
	TotalPrice    float64            `bson:"totalPrice" json:"totalPrice"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
