package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/investlink/commission_backend/models"
)

// CalculationRepository persists the append-only audit log of commission
// calculations.
type CalculationRepository struct {
	collection *mongo.Collection
}

func NewCalculationRepository(db *mongo.Database) *CalculationRepository {
	return &CalculationRepository{
		collection: db.Collection("commission_records"),
	}
}

// Log appends a calculation to the agent's ledger.
func (r *CalculationRepository) Log(ctx context.Context, record *models.CommissionRecord) error {
	record.CreatedAt = time.Now()
	record.Paid = false

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}
	return nil
}

// ListByAgent returns an agent's logged calculations, newest first.
func (r *CalculationRepository) ListByAgent(ctx context.Context, agentID primitive.ObjectID, limit int64) ([]models.CommissionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"agentId": agentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.CommissionRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// TotalEarned sums the final amounts of every calculation logged for an
// agent and reports how many there are.
func (r *CalculationRepository) TotalEarned(ctx context.Context, agentID primitive.ObjectID) (float64, int, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"agentId": agentID}},
		{"$group": bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$calculation.finalAmount"},
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
		Count int     `bson:"count"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, err
		}
	}
	return result.Total, result.Count, nil
}

// TotalsByPaidState splits an agent's earnings into settled and outstanding
// totals for the summary view.
func (r *CalculationRepository) TotalsByPaidState(ctx context.Context, agentID primitive.ObjectID) (paid float64, unpaid float64, err error) {
	pipeline := []bson.M{
		{"$match": bson.M{"agentId": agentID}},
		{"$group": bson.M{
			"_id":   "$paid",
			"total": bson.M{"$sum": "$calculation.finalAmount"},
		}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var result struct {
			Paid  bool    `bson:"_id"`
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, err
		}
		if result.Paid {
			paid = result.Total
		} else {
			unpaid = result.Total
		}
	}
	return paid, unpaid, nil
}

// MarkPaid stamps the agent's oldest unpaid records as settled until the
// withdrawn amount is covered. Called when a withdrawal is approved, so the
// summary view can show which earnings have already been disbursed.
func (r *CalculationRepository) MarkPaid(ctx context.Context, agentID primitive.ObjectID, amount float64) error {
	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"agentId": agentID, "paid": false}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	now := time.Now()
	covered := 0.0
	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		if covered >= amount {
			break
		}
		var record models.CommissionRecord
		if err := cursor.Decode(&record); err != nil {
			return err
		}
		covered += record.Calculation.FinalAmount
		ids = append(ids, record.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	_, err = r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"paid": true, "paidAt": now}},
	)
	return err
}
