package repositories

import (
	"context"
	"time"

	"github.com/primedraws/primedraws-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionRepository defines the interface for competition data operations
type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CompetitionStatus) error
	FindByStatus(ctx context.Context, status models.CompetitionStatus) ([]*models.Competition, error)
}

// TicketRepository defines the interface for ticket store operations.
// InsertPoolAndLock and ClaimBatch are the two transactional primitives the
// pool engine is built on; both are all-or-nothing.
type TicketRepository interface {
	// InsertPoolAndLock inserts the full generated pool and flips the
	// competition's ticketPoolLocked flag in one transaction. The lock flip
	// is guarded on {ticketPoolLocked: false, ticketsSold: 0}; if the guard
	// misses the whole insert is rolled back.
	InsertPoolAndLock(ctx context.Context, competitionID primitive.ObjectID, tickets []*models.Ticket) error

	// ClaimBatch atomically transitions exactly `count` UNCLAIMED tickets of
	// the competition to CLAIMED bound to the order, and increments the
	// competition's ticketsSold by the same amount, in one transaction.
	// Returns apperrors.ErrCodeInsufficientTickets when fewer than count
	// remain, and a conflict error when a concurrent claimer raced the same
	// rows (safe to retry).
	ClaimBatch(ctx context.Context, competitionID, orderID, userID primitive.ObjectID, count int) ([]*models.Ticket, error)

	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error)
	FindByOrderID(ctx context.Context, orderID primitive.ObjectID) ([]*models.Ticket, error)
	MarkRevealed(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (*models.Ticket, error)

	CountByStatus(ctx context.Context, competitionID primitive.ObjectID, status models.TicketStatus) (int64, error)
	CountWithPrizes(ctx context.Context, competitionID primitive.ObjectID) (int64, error)
	CountRevealed(ctx context.Context, competitionID primitive.ObjectID) (int64, error)
	CountsByPrize(ctx context.Context, competitionID primitive.ObjectID) (map[primitive.ObjectID]models.PrizeTicketCounts, error)
	CountTotal(ctx context.Context, competitionID primitive.ObjectID) (int64, error)
}

// PrizeRepository defines the interface for prize inventory operations
type PrizeRepository interface {
	Create(ctx context.Context, prize *models.PrizeDefinition) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeDefinition, error)
	FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.PrizeDefinition, error)
	FindActiveByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.PrizeDefinition, error)
}

// OrderRepository defines the interface for order data operations
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) error
}

// FulfillmentRepository defines the interface for prize fulfillment operations
type FulfillmentRepository interface {
	CreateMany(ctx context.Context, fulfillments []*models.PrizeFulfillment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeFulfillment, error)
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.PrizeFulfillment, error)
	FindByTicketIDs(ctx context.Context, ticketIDs []primitive.ObjectID) ([]*models.PrizeFulfillment, error)

	// TransitionChoice CAS-updates the fulfillment's status if it is owned by
	// userID, not terminal, and inside its claim deadline at `now`. Returns
	// mongo.ErrNoDocuments-equivalent when the guard misses; the caller
	// inspects the current record to report the precise failure.
	TransitionChoice(ctx context.Context, id, userID primitive.ObjectID, to models.FulfillmentStatus, now time.Time) (*models.PrizeFulfillment, error)

	// ClaimCash atomically marks the fulfillment CASH_CLAIMED, credits the
	// user's wallet by the recorded value and writes the ledger row, all in
	// one transaction. Returns the updated fulfillment and the new balance.
	ClaimCash(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.PrizeFulfillment, float64, error)

	// MarkFulfilled closes out a PRIZE_SELECTED fulfillment (dispatch done)
	MarkFulfilled(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.PrizeFulfillment, error)

	// ExpireOverdue moves every non-terminal fulfillment whose deadline has
	// passed to EXPIRED and returns how many were expired.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// WalletTransactionRepository defines the interface for wallet ledger reads.
// Writes happen only inside FulfillmentRepository.ClaimCash.
type WalletTransactionRepository interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.WalletTransaction, error)
	FindByFulfillmentID(ctx context.Context, fulfillmentID primitive.ObjectID) (*models.WalletTransaction, error)
}
