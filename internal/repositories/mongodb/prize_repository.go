package mongodb

import (
	"context"
	"time"

	"github.com/primedraws/primedraws-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PrizeRepository implements the repositories.PrizeRepository interface
type PrizeRepository struct {
	collection *mongo.Collection
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *mongo.Database) *PrizeRepository {
	return &PrizeRepository{
		collection: db.Collection("prize_definitions"),
	}
}

// Create inserts a new prize definition
func (r *PrizeRepository) Create(ctx context.Context, prize *models.PrizeDefinition) error {
	prize.CreatedAt = time.Now()
	prize.UpdatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, prize)
	if err != nil {
		return err
	}
	prize.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a prize definition by ID
func (r *PrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeDefinition, error) {
	var prize models.PrizeDefinition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize)
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

// FindByCompetition finds all prize definitions for a competition in tier order
func (r *PrizeRepository) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.PrizeDefinition, error) {
	return r.find(ctx, bson.M{"competitionId": competitionID})
}

// FindActiveByCompetition finds the active prize definitions with positive
// quantity; these are the ones the pool generator allocates slots for.
func (r *PrizeRepository) FindActiveByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.PrizeDefinition, error) {
	return r.find(ctx, bson.M{
		"competitionId": competitionID,
		"active":        true,
		"totalQuantity": bson.M{"$gt": 0},
	})
}

func (r *PrizeRepository) find(ctx context.Context, filter bson.M) ([]*models.PrizeDefinition, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"tier": 1}))
	if err != nil {
		return nil, err
	}
	var prizes []*models.PrizeDefinition
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, err
	}
	return prizes, nil
}
