package services

import (
	"context"
	"time"

	"github.com/primedraws/primedraws-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PoolService defines the interface for ticket pool generation
type PoolService interface {
	// GeneratePool materializes the full ticket pool for a competition with
	// a fair random prize distribution, then locks it. One-shot: a second
	// call on a locked competition fails.
	GeneratePool(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolGenerationResult, error)
}

// AllocationService defines the interface for ticket allocation at checkout
type AllocationService interface {
	// ClaimTickets atomically claims exactly count unclaimed tickets for the
	// order, or fails with nothing changed. Safe to retry for the same
	// order: an order that already holds its allocation gets it back.
	ClaimTickets(ctx context.Context, competitionID, userID, orderID primitive.ObjectID, count int) ([]models.ClaimedTicket, error)

	// RevealTicket marks an owned claimed ticket's outcome as shown
	RevealTicket(ctx context.Context, ticketID, userID primitive.ObjectID) (*models.Ticket, error)
}

// StatsService defines the interface for the read-only pool stats rollup
type StatsService interface {
	GetPoolStats(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolStats, error)
}

// FulfillmentService defines the interface for the winner fulfillment
// state machine
type FulfillmentService interface {
	// SubmitChoice records keep-prize or cash-alternative. Idempotent for
	// re-submission; choice changes are allowed until the record resolves.
	SubmitChoice(ctx context.Context, fulfillmentID, userID primitive.ObjectID, choice models.FulfillmentChoice) (*models.PrizeFulfillment, error)

	// ClaimCashAlternative credits the winner's wallet by the recorded prize
	// value and resolves the fulfillment. Credits exactly once per
	// fulfillment no matter how often it is called.
	ClaimCashAlternative(ctx context.Context, fulfillmentID, userID primitive.ObjectID) (*models.CashClaimResult, error)

	// MarkFulfilled closes a PRIZE_SELECTED fulfillment after dispatch
	MarkFulfilled(ctx context.Context, fulfillmentID primitive.ObjectID) (*models.PrizeFulfillment, error)

	// ExpireOverdue is the deadline sweep contract for an external scheduler
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// GetUserFulfillments lists a winner's fulfillments, newest first
	GetUserFulfillments(ctx context.Context, userID primitive.ObjectID) ([]*models.PrizeFulfillment, error)

	// GetWalletTransactions lists a user's wallet credits, newest first
	GetWalletTransactions(ctx context.Context, userID primitive.ObjectID) ([]*models.WalletTransaction, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // Returns JWT token
}
