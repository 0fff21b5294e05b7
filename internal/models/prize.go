package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeDefinition defines an instant-win prize within a competition.
// The count of tickets referencing a definition never exceeds TotalQuantity.
type PrizeDefinition struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CompetitionID primitive.ObjectID `bson:"competitionId" json:"competitionId"`
	Name          string             `bson:"name" json:"name"`
	Tier          int                `bson:"tier" json:"tier"` // Display/priority order
	TotalQuantity int                `bson:"totalQuantity" json:"totalQuantity"`
	Value         float64            `bson:"value" json:"value"` // Monetary value, also the cash alternative
	Active        bool               `bson:"active" json:"active"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PrizeTicketCounts holds per-prize ticket tallies from the ticket store
type PrizeTicketCounts struct {
	Allocated int // Claimed tickets linked to the prize
	Remaining int // Unclaimed tickets linked to the prize
}

// PrizeBreakdown reports allocation progress for one prize definition
type PrizeBreakdown struct {
	PrizeID       primitive.ObjectID `json:"prizeId"`
	Name          string             `json:"name"`
	Tier          int                `json:"tier"`
	Value         float64            `json:"value"`
	TotalQuantity int                `json:"totalQuantity"`
	Allocated     int                `json:"allocated"` // Claimed (won) tickets linked to this prize
	Remaining     int                `json:"remaining"` // Unclaimed tickets linked to this prize
}

// PoolStats is the read-only rollup over a competition's ticket pool
type PoolStats struct {
	CompetitionID primitive.ObjectID `json:"competitionId"`
	Locked        bool               `json:"locked"`
	GeneratedAt   time.Time          `json:"generatedAt,omitempty"`
	MaxTickets    int                `json:"maxTickets"`
	Sold          int                `json:"sold"`
	Available     int                `json:"available"`
	WithPrizes    int                `json:"withPrizes"`
	Revealed      int                `json:"revealed"`
	PerPrize      []PrizeBreakdown   `json:"perPrizeBreakdown"`
}
