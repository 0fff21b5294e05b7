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

// Compile-time check to ensure FulfillmentServiceImpl implements FulfillmentService
var _ FulfillmentService = (*FulfillmentServiceImpl)(nil)

// FulfillmentServiceImpl drives the winner fulfillment state machine
type FulfillmentServiceImpl struct {
	fulfillmentRepo repositories.FulfillmentRepository
	userRepo        repositories.UserRepository
	walletTxRepo    repositories.WalletTransactionRepository
}

// NewFulfillmentService creates a new FulfillmentServiceImpl
func NewFulfillmentService(
	fulfillmentRepo repositories.FulfillmentRepository,
	userRepo repositories.UserRepository,
	walletTxRepo repositories.WalletTransactionRepository,
) *FulfillmentServiceImpl {
	return &FulfillmentServiceImpl{
		fulfillmentRepo: fulfillmentRepo,
		userRepo:        userRepo,
		walletTxRepo:    walletTxRepo,
	}
}

// SubmitChoice records the winner's keep-prize or cash-alternative choice.
// Re-submitting the same choice is a no-op; switching is allowed until the
// fulfillment resolves.
func (s *FulfillmentServiceImpl) SubmitChoice(ctx context.Context, fulfillmentID, userID primitive.ObjectID, choice models.FulfillmentChoice) (*models.PrizeFulfillment, error) {
	var target models.FulfillmentStatus
	switch choice {
	case models.ChoicePrize:
		target = models.FulfillmentStatusPrizeSelected
	case models.ChoiceCash:
		target = models.FulfillmentStatusCashSelected
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeValidation, "unknown fulfillment choice %q", choice)
	}

	fulfillment, err := s.fulfillmentRepo.TransitionChoice(ctx, fulfillmentID, userID, target, time.Now())
	if err == nil {
		slog.Info("Fulfillment choice recorded",
			"fulfillmentId", fulfillmentID.Hex(), "choice", choice)
		return fulfillment, nil
	}
	if !errors.Is(err, repositories.ErrNoTransition) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to record fulfillment choice")
	}
	return nil, s.explainRejection(ctx, fulfillmentID, userID)
}

// ClaimCashAlternative credits the wallet by the recorded prize value and
// resolves the fulfillment. Calling it again after success is answered with
// the current state and balance; the credit itself applies exactly once.
func (s *FulfillmentServiceImpl) ClaimCashAlternative(ctx context.Context, fulfillmentID, userID primitive.ObjectID) (*models.CashClaimResult, error) {
	fulfillment, newBalance, err := s.fulfillmentRepo.ClaimCash(ctx, fulfillmentID, userID, time.Now())
	if err == nil {
		slog.Info("Cash alternative claimed",
			"fulfillmentId", fulfillmentID.Hex(),
			"userId", userID.Hex(),
			"amount", fulfillment.Value,
		)
		return &models.CashClaimResult{Fulfillment: fulfillment, NewBalance: newBalance}, nil
	}
	if !errors.Is(err, repositories.ErrNoTransition) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "cash alternative claim failed")
	}

	// The guard missed: distinguish a retried successful claim (idempotent
	// success) from a genuine rejection.
	current, findErr := s.fulfillmentRepo.FindByID(ctx, fulfillmentID)
	if findErr != nil {
		if errors.Is(findErr, mongo.ErrNoDocuments) {
			return nil, apperrors.New(apperrors.ErrCodeNotFound, "fulfillment not found")
		}
		return nil, apperrors.Wrap(findErr, apperrors.ErrCodeInternal, "failed to load fulfillment")
	}
	if current.UserID != userID {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "fulfillment not found")
	}
	if current.Status == models.FulfillmentStatusCashClaimed {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load wallet balance")
		}
		return &models.CashClaimResult{Fulfillment: current, NewBalance: user.WalletBalance}, nil
	}
	return nil, s.rejectionFor(current)
}

// MarkFulfilled closes out a PRIZE_SELECTED fulfillment once the dispatch
// workflow reports completion
func (s *FulfillmentServiceImpl) MarkFulfilled(ctx context.Context, fulfillmentID primitive.ObjectID) (*models.PrizeFulfillment, error) {
	fulfillment, err := s.fulfillmentRepo.MarkFulfilled(ctx, fulfillmentID, time.Now())
	if err == nil {
		return fulfillment, nil
	}
	if !errors.Is(err, repositories.ErrNoTransition) {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to mark fulfillment dispatched")
	}
	current, findErr := s.fulfillmentRepo.FindByID(ctx, fulfillmentID)
	if findErr != nil {
		if errors.Is(findErr, mongo.ErrNoDocuments) {
			return nil, apperrors.New(apperrors.ErrCodeNotFound, "fulfillment not found")
		}
		return nil, apperrors.Wrap(findErr, apperrors.ErrCodeInternal, "failed to load fulfillment")
	}
	return nil, apperrors.Newf(apperrors.ErrCodeAlreadyFulfilled,
		"fulfillment is %s, not awaiting prize dispatch", current.Status)
}

// ExpireOverdue moves every unresolved fulfillment past its deadline to
// EXPIRED. The trigger is an external scheduler; this is only the contract.
func (s *FulfillmentServiceImpl) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.fulfillmentRepo.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "fulfillment expiry sweep failed")
	}
	if expired > 0 {
		slog.Info("Expired overdue fulfillments", "count", expired)
	}
	return expired, nil
}

// GetUserFulfillments lists the user's fulfillments, newest first
func (s *FulfillmentServiceImpl) GetUserFulfillments(ctx context.Context, userID primitive.ObjectID) ([]*models.PrizeFulfillment, error) {
	fulfillments, err := s.fulfillmentRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list fulfillments")
	}
	return fulfillments, nil
}

// GetWalletTransactions lists the user's wallet credits, newest first
func (s *FulfillmentServiceImpl) GetWalletTransactions(ctx context.Context, userID primitive.ObjectID) ([]*models.WalletTransaction, error) {
	transactions, err := s.walletTxRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to list wallet transactions")
	}
	return transactions, nil
}

// explainRejection reports why a choice transition was refused
func (s *FulfillmentServiceImpl) explainRejection(ctx context.Context, fulfillmentID, userID primitive.ObjectID) error {
	current, err := s.fulfillmentRepo.FindByID(ctx, fulfillmentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.New(apperrors.ErrCodeNotFound, "fulfillment not found")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to load fulfillment")
	}
	if current.UserID != userID {
		return apperrors.New(apperrors.ErrCodeNotFound, "fulfillment not found")
	}
	return s.rejectionFor(current)
}

func (s *FulfillmentServiceImpl) rejectionFor(current *models.PrizeFulfillment) error {
	if current.Status.IsTerminal() {
		return apperrors.Newf(apperrors.ErrCodeAlreadyFulfilled, "fulfillment is already %s", current.Status)
	}
	if !current.ClaimDeadline.After(time.Now()) {
		return apperrors.New(apperrors.ErrCodeDeadlineExpired, "the claim deadline for this prize has passed")
	}
	return apperrors.New(apperrors.ErrCodeInternal, "fulfillment transition refused unexpectedly")
}
