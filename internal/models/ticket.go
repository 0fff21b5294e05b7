package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TicketStatus represents the allocation status of a ticket
type TicketStatus string

const (
	TicketStatusUnclaimed TicketStatus = "UNCLAIMED"
	TicketStatusClaimed   TicketStatus = "CLAIMED"
)

// Ticket represents a single numbered ticket in a competition's pool.
// The prize link is set at pool generation time and never altered.
type Ticket struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID  `bson:"competitionId" json:"competitionId"`
	Number        int                 `bson:"number" json:"number"` // 1..maxTickets
	Code          string              `bson:"code" json:"code"`     // Unique within the competition
	Status        TicketStatus        `bson:"status" json:"status"`
	OrderID       *primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	UserID        *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	PrizeID       *primitive.ObjectID `bson:"prizeId,omitempty" json:"prizeId,omitempty"` // nil = no prize
	Revealed      bool                `bson:"revealed" json:"revealed"`
	ClaimedAt     time.Time           `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
	RevealedAt    time.Time           `bson:"revealedAt,omitempty" json:"revealedAt,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// HasPrize reports whether the ticket carries an instant-win prize
func (t *Ticket) HasPrize() bool {
	return t.PrizeID != nil
}

// PoolGenerationResult summarizes a successful pool generation
type PoolGenerationResult struct {
	TicketsGenerated int `json:"ticketsGenerated"`
	PrizesAllocated  int `json:"prizesAllocated"`
}

// ClaimedTicket is the allocation engine's result item: what the buyer
// learns about each ticket at checkout.
type ClaimedTicket struct {
	TicketID primitive.ObjectID  `json:"ticketId"`
	Number   int                 `json:"number"`
	Code     string              `json:"code"`
	HasPrize bool                `json:"hasPrize"`
	PrizeID  *primitive.ObjectID `json:"prizeId,omitempty"`
}
