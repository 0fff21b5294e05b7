package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure StatsServiceImpl implements StatsService
var _ StatsService = (*StatsServiceImpl)(nil)

// StatsCache is the read-through cache the stats rollup sits behind.
// Satisfied by pkg/cache.Service; nil disables caching.
type StatsCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, setter func() (interface{}, error)) error
	Delete(ctx context.Context, key string) error
}

// StatsServiceImpl computes the read-only pool rollup. It takes no locks
// and never touches ticketsSold; everything here is derived from the ticket
// store and may be a few seconds stale, which the cache makes explicit.
type StatsServiceImpl struct {
	competitionRepo repositories.CompetitionRepository
	ticketRepo      repositories.TicketRepository
	prizeRepo       repositories.PrizeRepository
	cache           StatsCache
	cacheTTL        time.Duration
}

// NewStatsService creates a new StatsServiceImpl. cache may be nil.
func NewStatsService(
	competitionRepo repositories.CompetitionRepository,
	ticketRepo repositories.TicketRepository,
	prizeRepo repositories.PrizeRepository,
	cache StatsCache,
	cacheTTL time.Duration,
) *StatsServiceImpl {
	return &StatsServiceImpl{
		competitionRepo: competitionRepo,
		ticketRepo:      ticketRepo,
		prizeRepo:       prizeRepo,
		cache:           cache,
		cacheTTL:        cacheTTL,
	}
}

// GetPoolStats returns the pool rollup for a competition
func (s *StatsServiceImpl) GetPoolStats(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolStats, error) {
	if s.cache == nil {
		return s.computePoolStats(ctx, competitionID)
	}

	var stats models.PoolStats
	err := s.cache.GetOrSet(ctx, statsCacheKey(competitionID), &stats, s.cacheTTL, func() (interface{}, error) {
		return s.computePoolStats(ctx, competitionID)
	})
	if err != nil {
		// Cache trouble must not take down a monitoring view
		return s.computePoolStats(ctx, competitionID)
	}
	return &stats, nil
}

func (s *StatsServiceImpl) computePoolStats(ctx context.Context, competitionID primitive.ObjectID) (*models.PoolStats, error) {
	competition, err := s.competitionRepo.FindByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "competition %s not found", competitionID.Hex())
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load competition")
	}

	sold, err := s.ticketRepo.CountByStatus(ctx, competitionID, models.TicketStatusClaimed)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to count claimed tickets")
	}
	available, err := s.ticketRepo.CountByStatus(ctx, competitionID, models.TicketStatusUnclaimed)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to count unclaimed tickets")
	}
	withPrizes, err := s.ticketRepo.CountWithPrizes(ctx, competitionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to count prize tickets")
	}
	revealed, err := s.ticketRepo.CountRevealed(ctx, competitionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to count revealed tickets")
	}

	prizes, err := s.prizeRepo.FindByCompetition(ctx, competitionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load prize definitions")
	}
	counts, err := s.ticketRepo.CountsByPrize(ctx, competitionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to aggregate prize counts")
	}

	breakdown := make([]models.PrizeBreakdown, 0, len(prizes))
	for _, prize := range prizes {
		c := counts[prize.ID]
		breakdown = append(breakdown, models.PrizeBreakdown{
			PrizeID:       prize.ID,
			Name:          prize.Name,
			Tier:          prize.Tier,
			Value:         prize.Value,
			TotalQuantity: prize.TotalQuantity,
			Allocated:     c.Allocated,
			Remaining:     c.Remaining,
		})
	}

	return &models.PoolStats{
		CompetitionID: competitionID,
		Locked:        competition.TicketPoolLocked,
		GeneratedAt:   competition.PoolGeneratedAt,
		MaxTickets:    competition.MaxTickets,
		Sold:          int(sold),
		Available:     int(available),
		WithPrizes:    int(withPrizes),
		Revealed:      int(revealed),
		PerPrize:      breakdown,
	}, nil
}

func statsCacheKey(competitionID primitive.ObjectID) string {
	return fmt.Sprintf("pool_stats:%s", competitionID.Hex())
}
