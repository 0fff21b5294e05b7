package mongodb

import (
	"context"

	"github.com/primedraws/primedraws-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WalletTransactionRepository implements the
// repositories.WalletTransactionRepository interface. It is read-only: the
// ledger is written only by FulfillmentRepository.ClaimCash.
type WalletTransactionRepository struct {
	collection *mongo.Collection
}

// NewWalletTransactionRepository creates a new WalletTransactionRepository
func NewWalletTransactionRepository(db *mongo.Database) *WalletTransactionRepository {
	return &WalletTransactionRepository{
		collection: db.Collection("wallet_transactions"),
	}
}

// FindByUserID finds a user's wallet credits, newest first
func (r *WalletTransactionRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) ([]*models.WalletTransaction, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.M{"createdAt": -1}),
	)
	if err != nil {
		return nil, err
	}
	var transactions []*models.WalletTransaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// FindByFulfillmentID finds the single credit for a fulfillment, if any
func (r *WalletTransactionRepository) FindByFulfillmentID(ctx context.Context, fulfillmentID primitive.ObjectID) (*models.WalletTransaction, error) {
	var transaction models.WalletTransaction
	err := r.collection.FindOne(ctx, bson.M{"fulfillmentId": fulfillmentID}).Decode(&transaction)
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}
