package mongodb

import (
	"context"
	"time"

	"github.com/primedraws/primedraws-backend/internal/apperrors"
	"github.com/primedraws/primedraws-backend/internal/models"
	"github.com/primedraws/primedraws-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TicketRepository implements the repositories.TicketRepository interface.
// The claim path relies on Mongo multi-document transactions: a conflicting
// concurrent claim shows up as a modified-count mismatch and aborts the
// whole transaction, so two callers can never take the same ticket.
type TicketRepository struct {
	db           *mongo.Database
	collection   *mongo.Collection
	competitions *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{
		db:           db,
		collection:   db.Collection("tickets"),
		competitions: db.Collection("competitions"),
	}
}

// EnsureIndexes creates the indexes the claim path depends on. The unique
// {competitionId, code} index backs code collision checking; the
// {competitionId, status} index backs unclaimed-ticket selection.
func (r *TicketRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "competitionId", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "competitionId", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "orderId", Value: 1}},
		},
	})
	return err
}

// InsertPoolAndLock inserts the full pool and locks the competition in a
// single transaction. The lock update is guarded so a competition that was
// locked (or started selling) between the service's precondition check and
// the commit aborts the insert instead of leaving a second pool behind.
func (r *TicketRepository) InsertPoolAndLock(ctx context.Context, competitionID primitive.ObjectID, tickets []*models.Ticket) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		docs := make([]interface{}, 0, len(tickets))
		for _, t := range tickets {
			docs = append(docs, t)
		}
		if _, err := r.collection.InsertMany(sc, docs); err != nil {
			return nil, err
		}

		now := time.Now()
		res, err := r.competitions.UpdateOne(sc,
			bson.M{"_id": competitionID, "ticketPoolLocked": false, "ticketsSold": 0},
			bson.M{"$set": bson.M{
				"ticketPoolLocked": true,
				"poolGeneratedAt":  now,
				"updatedAt":        now,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount != 1 {
			return nil, apperrors.New(apperrors.ErrCodePoolAlreadyLocked, "competition pool is already locked")
		}
		return nil, nil
	})
	return err
}

// ClaimBatch claims exactly count unclaimed tickets for the order, or
// nothing. Selection and flip run in one transaction; the $in+status filter
// on the update is the compare-and-swap that detects racing claimers.
func (r *TicketRepository) ClaimBatch(ctx context.Context, competitionID, orderID, userID primitive.ObjectID, count int) ([]*models.Ticket, error) {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return nil, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		cursor, err := r.collection.Find(sc,
			bson.M{"competitionId": competitionID, "status": models.TicketStatusUnclaimed},
			options.Find().SetLimit(int64(count)).SetProjection(bson.M{"_id": 1}),
		)
		if err != nil {
			return nil, err
		}
		var idDocs []struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.All(sc, &idDocs); err != nil {
			return nil, err
		}
		if len(idDocs) < count {
			return nil, apperrors.Newf(apperrors.ErrCodeInsufficientTickets,
				"requested %d tickets but only %d available", count, len(idDocs))
		}

		ids := make([]primitive.ObjectID, 0, count)
		for _, d := range idDocs {
			ids = append(ids, d.ID)
		}

		now := time.Now()
		res, err := r.collection.UpdateMany(sc,
			bson.M{"_id": bson.M{"$in": ids}, "status": models.TicketStatusUnclaimed},
			bson.M{"$set": bson.M{
				"status":    models.TicketStatusClaimed,
				"orderId":   orderID,
				"userId":    userID,
				"claimedAt": now,
			}},
		)
		if err != nil {
			return nil, err
		}
		if res.ModifiedCount != int64(count) {
			// A concurrent claimer took some of the selected tickets between
			// the read and the write; abort so nothing sticks.
			return nil, repositories.ErrClaimConflict
		}

		if _, err := r.competitions.UpdateOne(sc,
			bson.M{"_id": competitionID},
			bson.M{"$inc": bson.M{"ticketsSold": count}, "$set": bson.M{"updatedAt": now}},
		); err != nil {
			return nil, err
		}

		cursor, err = r.collection.Find(sc,
			bson.M{"_id": bson.M{"$in": ids}},
			options.Find().SetSort(bson.M{"number": 1}),
		)
		if err != nil {
			return nil, err
		}
		var claimed []*models.Ticket
		if err := cursor.All(sc, &claimed); err != nil {
			return nil, err
		}
		return claimed, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Ticket), nil
}

// FindByID finds a ticket by ID
func (r *TicketRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindByOrderID finds all tickets bound to an order, in number order
func (r *TicketRepository) FindByOrderID(ctx context.Context, orderID primitive.ObjectID) ([]*models.Ticket, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"orderId": orderID},
		options.Find().SetSort(bson.M{"number": 1}),
	)
	if err != nil {
		return nil, err
	}
	var tickets []*models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// MarkRevealed flags an owned, claimed ticket as revealed. Idempotent.
func (r *TicketRepository) MarkRevealed(ctx context.Context, id, userID primitive.ObjectID, at time.Time) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID, "status": models.TicketStatusClaimed},
		bson.M{"$set": bson.M{"revealed": true, "revealedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ticket)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CountByStatus counts a competition's tickets in the given status
func (r *TicketRepository) CountByStatus(ctx context.Context, competitionID primitive.ObjectID, status models.TicketStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"competitionId": competitionID, "status": status})
}

// CountWithPrizes counts a competition's prize-carrying tickets
func (r *TicketRepository) CountWithPrizes(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"competitionId": competitionID, "prizeId": bson.M{"$ne": nil}})
}

// CountRevealed counts a competition's revealed tickets
func (r *TicketRepository) CountRevealed(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"competitionId": competitionID, "revealed": true})
}

// CountTotal counts all tickets generated for a competition
func (r *TicketRepository) CountTotal(ctx context.Context, competitionID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"competitionId": competitionID})
}

// CountsByPrize aggregates claimed/unclaimed tallies per prize definition
func (r *TicketRepository) CountsByPrize(ctx context.Context, competitionID primitive.ObjectID) (map[primitive.ObjectID]models.PrizeTicketCounts, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"competitionId": competitionID,
			"prizeId":       bson.M{"$ne": nil},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": "$prizeId",
			"allocated": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", string(models.TicketStatusClaimed)}}, 1, 0,
			}}},
			"remaining": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", string(models.TicketStatusUnclaimed)}}, 1, 0,
			}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		PrizeID   primitive.ObjectID `bson:"_id"`
		Allocated int                `bson:"allocated"`
		Remaining int                `bson:"remaining"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[primitive.ObjectID]models.PrizeTicketCounts, len(rows))
	for _, row := range rows {
		counts[row.PrizeID] = models.PrizeTicketCounts{Allocated: row.Allocated, Remaining: row.Remaining}
	}
	return counts, nil
}
