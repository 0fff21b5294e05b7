package mongodb

import (
	"context"
	"time"

	"github.com/primedraws/primedraws-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CompetitionRepository implements the repositories.CompetitionRepository interface
type CompetitionRepository struct {
	collection *mongo.Collection
}

// NewCompetitionRepository creates a new CompetitionRepository
func NewCompetitionRepository(db *mongo.Database) *CompetitionRepository {
	return &CompetitionRepository{
		collection: db.Collection("competitions"),
	}
}

// Create inserts a new competition
func (r *CompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	competition.CreatedAt = time.Now()
	competition.UpdatedAt = time.Now()
	result, err := r.collection.InsertOne(ctx, competition)
	if err != nil {
		return err
	}
	competition.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a competition by ID
func (r *CompetitionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Competition, error) {
	var competition models.Competition
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&competition)
	if err != nil {
		return nil, err
	}
	return &competition, nil
}

// UpdateStatus updates the competition's lifecycle status only
func (r *CompetitionRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.CompetitionStatus) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
	)
	return err
}

// FindByStatus finds competitions in the given status
func (r *CompetitionRepository) FindByStatus(ctx context.Context, status models.CompetitionStatus) ([]*models.Competition, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"status": status})
	if err != nil {
		return nil, err
	}
	var competitions []*models.Competition
	if err := cursor.All(ctx, &competitions); err != nil {
		return nil, err
	}
	return competitions, nil
}
