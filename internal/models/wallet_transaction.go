package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletTransaction records a credit to a user's spendable balance.
// FulfillmentID is unique so a cash-alternative credit can never
// double-apply for the same fulfillment.
type WalletTransaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	FulfillmentID primitive.ObjectID `bson:"fulfillmentId" json:"fulfillmentId"`
	Amount        float64            `bson:"amount" json:"amount"`
	Source        string             `bson:"source" json:"source"` // e.g. "CASH_ALTERNATIVE"
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
