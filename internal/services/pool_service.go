package services

import (
	"context"
	"errors"
	"time"

	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	"github.com/primedraws/primedraws-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure PoolServiceImpl implements PoolService
var _ PoolService = (*PoolServiceImpl)(nil)

// PoolServiceImpl generates locked ticket pools with a uniformly random
// prize distribution
type PoolServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	prizeRepo       repositories.PrizeRepository
	ticketRepo      repositories.TicketRepository
	codeLength      int
}

// NewPoolService creates a new PoolServiceImpl
func NewPoolService(
	competitionRepo repositories.CompetitionRepository,
	prizeRepo repositories.PrizeRepository,
	ticketRepo repositories.TicketRepository,
	codeLength int,
) *PoolServiceImpl {
	return &PoolServiceImpl{
		competitionRepo: competitionRepo,
		prizeRepo:       prizeRepo,
		ticketRepo:      ticketRepo,
		codeLength:      codeLength,
	}
}

// GeneratePool materializes all tickets for the competition and locks the
// pool. Runs as one all-or-nothing transaction at the store level; the
// precondition checks here fail fast, and the store's guarded lock flip
// catches anything that changed in between.
func (s *PoolServiceImpl) GeneratePool(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolGenerationResult, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "competition %s not found", competitionID.Hex())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load competition")
	}

	if competition.TicketPoolLocked {
		return nil, apperrors.New(apperrors.ErrCodePoolAlreadyLocked, "ticket pool is already generated and locked")
	}
	if competition.TicketsSold > 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeSalesAlreadyStarted,
			"%d tickets already sold; cannot generate pool", competition.TicketsSold)
	}
	if competition.MaxTickets <= 0 {
		return nil, apperrors.Newf(apperrors.ErrCodeValidation, "competition has invalid maxTickets %d", competition.MaxTickets)
	}

	prizes, err := s.prizeRepo.FindActiveByCompetition(ctx, competitionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load prize definitions")
	}

	slots, err := buildPrizeSlots(prizes, competition.MaxTickets)
	if err != nil {
		return nil, err
	}
	prizesAllocated := 0
	for _, slot := range slots {
		if slot != nil {
			prizesAllocated++
		}
	}

	codes, err := s.generateUniqueCodes(competition.MaxTickets)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to generate ticket codes")
	}

	now := time.Now()
	tickets := make([]*models.Ticket, competition.MaxTickets)
	for i := 0; i < competition.MaxTickets; i++ {
		tickets[i] = &models.Ticket{
			CompetitionID: competitionID,
			Number:        i + 1,
			Code:          codes[i],
			Status:        models.TicketStatusUnclaimed,
			PrizeID:       slots[i],
			CreatedAt:     now,
		}
	}

	if err := s.ticketRepo.InsertPoolAndLock(ctx, competitionID, tickets); err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to commit ticket pool")
	}

	slog.Info("Ticket pool generated and locked",
		"competitionId", competitionID.Hex(),
		"ticketsGenerated", competition.MaxTickets,
		"prizesAllocated", prizesAllocated,
	)

	return &models.PoolGenerationResult{
		TicketsGenerated: competition.MaxTickets,
		PrizesAllocated:  prizesAllocated,
	}, nil
}

// buildPrizeSlots expands prize definitions into a flat slot list, pads it
// with no-prize entries to maxTickets and shuffles it uniformly. Stateless:
// the caller owns all inputs and the returned assignment.
func buildPrizeSlots(prizes []*models.PrizeDefinition, maxTickets int) ([]*primitive.ObjectID, error) {
	slots := make([]*primitive.ObjectID, 0, maxTickets)
	for _, prize := range prizes {
		for i := 0; i < prize.TotalQuantity; i++ {
			id := prize.ID
			slots = append(slots, &id)
		}
	}
	if len(slots) > maxTickets {
		return nil, apperrors.Newf(apperrors.ErrCodePrizeOversubscribed,
			"prize quantities total %d but the pool holds only %d tickets", len(slots), maxTickets)
	}
	for len(slots) < maxTickets {
		slots = append(slots, nil)
	}

	if err := utils.SecureShuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	}); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "prize shuffle failed")
	}
	return slots, nil
}

// generateUniqueCodes draws n distinct codes, retrying individual collisions.
// Collisions are astronomically rare at 32^8 code space but the loop keeps
// the uniqueness invariant unconditional.
func (s *PoolServiceImpl) generateUniqueCodes(n int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	codes := make([]string, 0, n)
	for len(codes) < n {
		code, err := utils.GenerateTicketCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}
