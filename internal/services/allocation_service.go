package services

import (
	"context"
	"errors"
	"time"

	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure AllocationServiceImpl implements AllocationService
var _ AllocationService = (*AllocationServiceImpl)(nil)

// AllocationServiceImpl performs the atomic checkout-time ticket claim.
// Conflicts with concurrent claimers are retried with capped exponential
// backoff; exhaustion surfaces as Busy rather than hanging.
type AllocationServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	ticketRepo      repositories.TicketRepository
	orderRepo       repositories.OrderRepository
	prizeRepo       repositories.PrizeRepository
	fulfillmentRepo repositories.FulfillmentRepository
	maxAttempts     int
	initialBackoff  time.Duration
	claimWindow     time.Duration
}

// NewAllocationService creates a new AllocationServiceImpl
func NewAllocationService(
	competitionRepo repositories.CompetitionRepository,
	ticketRepo repositories.TicketRepository,
	orderRepo repositories.OrderRepository,
	prizeRepo repositories.PrizeRepository,
	fulfillmentRepo repositories.FulfillmentRepository,
	maxAttempts int,
	initialBackoff time.Duration,
	claimWindow time.Duration,
) *AllocationServiceImpl {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AllocationServiceImpl{
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		orderRepo:       orderRepo,
		prizeRepo:       prizeRepo,
		fulfillmentRepo: fulfillmentRepo,
		maxAttempts:     maxAttempts,
		initialBackoff:  initialBackoff,
		claimWindow:     claimWindow,
	}
}

// ClaimTickets claims exactly count tickets for the order, all-or-nothing.
// The order itself is the idempotency anchor: if it already holds an
// allocation, that allocation is returned instead of claiming again, so a
// caller retrying after a transient failure can never double-claim.
func (s *AllocationServiceImpl) ClaimTickets(ctx context.Context, competitionID, userID, orderID primitive.ObjectID, count int) ([]models.ClaimedTicket, error) {
	if count < 1 {
		return nil, apperrors.Newf(apperrors.ErrCodeValidation, "ticket count must be at least 1, got %d", count)
	}

	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "competition %s not found", competitionID.Hex())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load competition")
	}
	if !competition.TicketPoolLocked {
		return nil, apperrors.New(apperrors.ErrCodePoolNotLocked, "ticket pool has not been generated; nothing is sellable")
	}
	if !competition.Status.IsSellable() {
		return nil, apperrors.Newf(apperrors.ErrCodeCompetitionNotSellable,
			"competition is %s and not selling tickets", competition.Status)
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "order %s not found", orderID.Hex())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load order")
	}
	if order.UserID != userID || order.CompetitionID != competitionID {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "order does not belong to this user and competition")
	}

	// Caller-side retry after a transient failure lands here: the order
	// already holds its tickets and we return them without claiming more.
	// The earlier attempt may have died between the claim commit and the
	// fulfillment write, so missing fulfillments are created before we
	// answer, never silently skipped.
	existing, err := s.ticketRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check existing allocation")
	}
	if len(existing) > 0 {
		if err := s.ensureFulfillments(ctx, competitionID, userID, existing); err != nil {
			return nil, err
		}
		slog.Info("Order already allocated; returning existing tickets",
			"orderId", orderID.Hex(), "tickets", len(existing))
		return toClaimedTickets(existing), nil
	}

	tickets, err := s.claimWithRetry(ctx, competitionID, orderID, userID, count)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, models.OrderStatusCompleted); err != nil {
		// The claim is durable; a failed status write is recoverable noise.
		slog.Error("Failed to mark order completed after claim", "error", err, "orderId", orderID.Hex())
	}

	if err := s.ensureFulfillments(ctx, competitionID, userID, tickets); err != nil {
		// Tickets are claimed either way; fulfillment creation failures must
		// be visible, not silently swallowed.
		return nil, err
	}

	slog.Info("Tickets claimed",
		"competitionId", competitionID.Hex(),
		"orderId", orderID.Hex(),
		"count", len(tickets),
	)
	return toClaimedTickets(tickets), nil
}

// claimWithRetry drives the store's CAS claim with bounded backoff
func (s *AllocationServiceImpl) claimWithRetry(ctx context.Context, competitionID, orderID, userID primitive.ObjectID, count int) ([]*models.Ticket, error) {
	backoff := s.initialBackoff
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		tickets, err := s.ticketRepo.ClaimBatch(ctx, competitionID, orderID, userID, count)
		if err == nil {
			return tickets, nil
		}
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		if !errors.Is(err, repositories.ErrClaimConflict) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "ticket claim failed")
		}

		slog.Warn("Ticket claim conflict; retrying",
			"competitionId", competitionID.Hex(), "attempt", attempt)
		if attempt == s.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeBusy, "claim cancelled while waiting to retry")
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, apperrors.Newf(apperrors.ErrCodeBusy,
		"could not claim tickets after %d attempts due to contention", s.maxAttempts)
}

// ensureFulfillments opens a PENDING fulfillment for every prize-carrying
// ticket that does not have one yet, with the deadline and prize value
// recorded. Idempotent: tickets whose fulfillment already exists are left
// alone, so a retry after a partial failure repairs exactly the gap.
func (s *AllocationServiceImpl) ensureFulfillments(ctx context.Context, competitionID, userID primitive.ObjectID, tickets []*models.Ticket) error {
	var winning []*models.Ticket
	for _, t := range tickets {
		if t.HasPrize() {
			winning = append(winning, t)
		}
	}
	if len(winning) == 0 {
		return nil
	}

	ticketIDs := make([]primitive.ObjectID, 0, len(winning))
	for _, t := range winning {
		ticketIDs = append(ticketIDs, t.ID)
	}
	opened, err := s.fulfillmentRepo.FindByTicketIDs(ctx, ticketIDs)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to check existing fulfillments")
	}
	covered := make(map[primitive.ObjectID]struct{}, len(opened))
	for _, f := range opened {
		covered[f.TicketID] = struct{}{}
	}
	missing := winning[:0]
	for _, t := range winning {
		if _, ok := covered[t.ID]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	winning = missing

	prizes, err := s.prizeRepo.FindByCompetition(ctx, competitionID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load prize definitions for fulfillment")
	}
	prizeByID := make(map[primitive.ObjectID]*models.PrizeDefinition, len(prizes))
	for _, p := range prizes {
		prizeByID[p.ID] = p
	}

	deadline := time.Now().Add(s.claimWindow)
	fulfillments := make([]*models.PrizeFulfillment, 0, len(winning))
	for _, t := range winning {
		prize, ok := prizeByID[*t.PrizeID]
		if !ok {
			return apperrors.Newf(apperrors.ErrCodeInternal,
				"ticket %s references unknown prize %s", t.Code, t.PrizeID.Hex())
		}
		fulfillments = append(fulfillments, &models.PrizeFulfillment{
			TicketID:      t.ID,
			PrizeID:       prize.ID,
			CompetitionID: competitionID,
			UserID:        userID,
			PrizeName:     prize.Name,
			Value:         prize.Value,
			Status:        models.FulfillmentStatusPending,
			ClaimDeadline: deadline,
		})
	}

	if err := s.fulfillmentRepo.CreateMany(ctx, fulfillments); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to create prize fulfillments")
	}

	slog.Info("Prize fulfillments created",
		"competitionId", competitionID.Hex(),
		"userId", userID.Hex(),
		"count", len(fulfillments),
	)
	return nil
}

// RevealTicket flags an owned claimed ticket as revealed. Idempotent.
func (s *AllocationServiceImpl) RevealTicket(ctx context.Context, ticketID, userID primitive.ObjectID) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.MarkRevealed(ctx, ticketID, userID, time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.New(apperrors.ErrCodeNotFound, "no claimed ticket with this id belongs to the user")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to reveal ticket")
	}
	return ticket, nil
}

func toClaimedTickets(tickets []*models.Ticket) []models.ClaimedTicket {
	out := make([]models.ClaimedTicket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, models.ClaimedTicket{
			TicketID: t.ID,
			Number:   t.Number,
			Code:     t.Code,
			HasPrize: t.HasPrize(),
			PrizeID:  t.PrizeID,
		})
	}
	return out
}
