package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nonTerminalStatuses are the states a deadline or user choice can still move
var nonTerminalStatuses = bson.A{
	models.FulfillmentStatusPending,
	models.FulfillmentStatusPrizeSelected,
	models.FulfillmentStatusCashSelected,
}

// FulfillmentRepository implements the repositories.FulfillmentRepository
// interface. ClaimCash is transactional across the fulfillments, users and
// wallet_transactions collections.
type FulfillmentRepository struct {
	db           *mongo.Database
	collection   *mongo.Collection
	users        *mongo.Collection
	transactions *mongo.Collection
}

// NewFulfillmentRepository creates a new FulfillmentRepository
func NewFulfillmentRepository(db *mongo.Database) *FulfillmentRepository {
	return &FulfillmentRepository{
		db:           db,
		collection:   db.Collection("prize_fulfillments"),
		users:        db.Collection("users"),
		transactions: db.Collection("wallet_transactions"),
	}
}

// EnsureIndexes creates the unique ledger index that makes the cash credit
// idempotent per fulfillment even across retried transactions, and the
// unique ticketId index that caps a ticket at one fulfillment.
func (r *FulfillmentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "fulfillmentId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticketId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "claimDeadline", Value: 1}}},
	})
	return err
}

// CreateMany inserts fulfillment records for newly allocated winning tickets
func (r *FulfillmentRepository) CreateMany(ctx context.Context, fulfillments []*models.PrizeFulfillment) error {
	if len(fulfillments) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(fulfillments))
	now := time.Now()
	for _, f := range fulfillments {
		f.CreatedAt = now
		f.UpdatedAt = now
		docs = append(docs, f)
	}
	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return err
	}
	for i, id := range result.InsertedIDs {
		fulfillments[i].ID = id.(primitive.ObjectID)
	}
	return nil
}

// FindByID finds a fulfillment by ID
func (r *FulfillmentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeFulfillment, error) {
	var fulfillment models.PrizeFulfillment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&fulfillment)
	if err != nil {
		return nil, err
	}
	return &fulfillment, nil
}

// FindByUserID finds all fulfillments owned by a user, newest first
func (r *FulfillmentRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.PrizeFulfillment, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}),
	)
	if err != nil {
		return nil, err
	}
	var fulfillments []*models.PrizeFulfillment
	if err := cursor.All(ctx, &fulfillments); err != nil {
		return nil, err
	}
	return fulfillments, nil
}

// FindByTicketIDs finds the fulfillments opened for the given tickets. A
// ticket carries at most one fulfillment, enforced by the unique index.
func (r *FulfillmentRepository) FindByTicketIDs(ctx context.Context, ticketIDs []primitive.ObjectID) ([]*models.PrizeFulfillment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"ticketId": bson.M{"$in": ticketIDs}})
	if err != nil {
		return nil, err
	}
	var fulfillments []*models.PrizeFulfillment
	if err := cursor.All(ctx, &fulfillments); err != nil {
		return nil, err
	}
	return fulfillments, nil
}

// TransitionChoice records the winner's choice with a guarded update: owner
// matches, status is not terminal and the deadline has not passed.
// Re-submitting the same choice matches the filter and is a no-op.
func (r *FulfillmentRepository) TransitionChoice(ctx context.Context, id, userID primitive.ObjectID, to models.FulfillmentStatus, now time.Time) (*models.PrizeFulfillment, error) {
	var fulfillment models.PrizeFulfillment
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":           id,
			"userId":        userID,
			"status":        bson.M{"$in": nonTerminalStatuses},
			"claimDeadline": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"status": to, "chosenAt": now, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&fulfillment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNoTransition
	}
	if err != nil {
		return nil, err
	}
	return &fulfillment, nil
}

// ClaimCash marks the fulfillment CASH_CLAIMED, credits the user's wallet by
// the recorded value and writes the ledger row, all in one transaction. The
// status CAS runs first so a fulfillment that is already CASH_CLAIMED (or
// otherwise resolved) never credits twice.
func (r *FulfillmentRepository) ClaimCash(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.PrizeFulfillment, float64, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, 0, err
	}
	defer session.EndSession(ctx)

	type claimResult struct {
		fulfillment *models.PrizeFulfillment
		newBalance  float64
	}

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var fulfillment models.PrizeFulfillment
		err := r.collection.FindOneAndUpdate(sc,
			bson.M{
				"_id":           id,
				"userId":        userID,
				"status":        bson.M{"$in": nonTerminalStatuses},
				"claimDeadline": bson.M{"$gt": now},
			},
			bson.M{"$set": bson.M{
				"status":     models.FulfillmentStatusCashClaimed,
				"resolvedAt": now,
				"updatedAt":  now,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&fulfillment)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNoTransition
		}
		if err != nil {
			return nil, err
		}

		if _, err := r.transactions.InsertOne(sc, &models.WalletTransaction{
			UserID:        userID,
			FulfillmentID: id,
			Amount:        fulfillment.Value,
			Source:        "CASH_ALTERNATIVE",
			CreatedAt:     now,
		}); err != nil {
			return nil, err
		}

		var user models.User
		err = r.users.FindOneAndUpdate(sc,
			bson.M{"_id": userID},
			bson.M{"$inc": bson.M{"walletBalance": fulfillment.Value}, "$set": bson.M{"updatedAt": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&user)
		if err != nil {
			return nil, err
		}

		return claimResult{fulfillment: &fulfillment, newBalance: user.WalletBalance}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	res := result.(claimResult)
	return res.fulfillment, res.newBalance, nil
}

// MarkFulfilled closes out a PRIZE_SELECTED fulfillment once the physical
// dispatch workflow completes
func (r *FulfillmentRepository) MarkFulfilled(ctx context.Context, id primitive.ObjectID, now time.Time) (*models.PrizeFulfillment, error) {
	var fulfillment models.PrizeFulfillment
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.FulfillmentStatusPrizeSelected},
		bson.M{"$set": bson.M{
			"status":     models.FulfillmentStatusFulfilled,
			"resolvedAt": now,
			"updatedAt":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&fulfillment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrNoTransition
	}
	if err != nil {
		return nil, err
	}
	return &fulfillment, nil
}

// ExpireOverdue moves every non-terminal fulfillment past its deadline to
// EXPIRED. Driven by an external scheduler.
func (r *FulfillmentRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"status":        bson.M{"$in": nonTerminalStatuses},
			"claimDeadline": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{
			"status":     models.FulfillmentStatusExpired,
			"resolvedAt": now,
			"updatedAt":  now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
