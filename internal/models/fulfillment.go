package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FulfillmentStatus represents the state of a winner's prize fulfillment
type FulfillmentStatus string

const (
	FulfillmentStatusPending       FulfillmentStatus = "PENDING"
	FulfillmentStatusPrizeSelected FulfillmentStatus = "PRIZE_SELECTED"
	FulfillmentStatusCashSelected  FulfillmentStatus = "CASH_SELECTED"
	FulfillmentStatusCashClaimed   FulfillmentStatus = "CASH_CLAIMED"
	FulfillmentStatusFulfilled     FulfillmentStatus = "FULFILLED"
	FulfillmentStatusExpired       FulfillmentStatus = "EXPIRED"
)

// IsTerminal reports whether no further user choice is accepted
func (s FulfillmentStatus) IsTerminal() bool {
	return s == FulfillmentStatusCashClaimed ||
		s == FulfillmentStatusFulfilled ||
		s == FulfillmentStatusExpired
}

// FulfillmentChoice is the winner's decision between the physical prize
// and the cash alternative
type FulfillmentChoice string

const (
	ChoicePrize FulfillmentChoice = "PRIZE"
	ChoiceCash  FulfillmentChoice = "CASH"
)

// CashClaimResult is returned by the cash-alternative claim operation
type CashClaimResult struct {
	Fulfillment *PrizeFulfillment `json:"fulfillment"`
	NewBalance  float64           `json:"newBalance"`
}

// PrizeFulfillment tracks a winner's choice and claim deadline for a
// prize-carrying ticket. Created the moment a winning ticket is allocated.
type PrizeFulfillment struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TicketID      primitive.ObjectID `bson:"ticketId" json:"ticketId"`
	PrizeID       primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	CompetitionID primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	PrizeName     string             `bson:"prizeName" json:"prizeName"`
	Value         float64            `bson:"value" json:"value"` // Recorded at creation; the cash alternative pays this
	Status        FulfillmentStatus  `bson:"status" json:"status"`
	ClaimDeadline time.Time          `bson:"claimDeadline" json:"claimDeadline"`
	ChosenAt      time.Time          `bson:"chosenAt,omitempty" json:"chosenAt,omitempty"`
	ResolvedAt    time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
