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

// WithdrawalRepository persists withdrawal requests and their processing
// state. Pending amounts stay reserved against the agent's balance until an
// admin approves or rejects the request.
type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Database) *WithdrawalRepository {
	return &WithdrawalRepository{
		collection: db.Collection("withdrawals"),
	}
}

// Create records a pending withdrawal request.
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	withdrawal.ID = primitive.NewObjectID()
	withdrawal.Status = models.WithdrawalStatusPending
	withdrawal.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, withdrawal)
	return err
}

// GetByID returns a single withdrawal. Callers check mongo.ErrNoDocuments.
func (r *WithdrawalRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&withdrawal)
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// ListByUser returns a user's withdrawal requests, newest first.
func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Withdrawal, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	withdrawals := []models.Withdrawal{}
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// ListByStatus returns all withdrawals in the given state, oldest first, for
// the admin review queue. An empty status returns everything.
func (r *WithdrawalRepository) ListByStatus(ctx context.Context, status string) ([]models.Withdrawal, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.M{"createdAt": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	withdrawals := []models.Withdrawal{}
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// Process stamps a withdrawal with its final state. Only pending documents
// are matched, so a request cannot be processed twice.
func (r *WithdrawalRepository) Process(ctx context.Context, id, adminID primitive.ObjectID, status, adminNote string, payoutID int64) (*models.Withdrawal, error) {
	now := time.Now()
	set := bson.M{
		"status":      status,
		"adminId":     adminID,
		"processedAt": now,
	}
	if adminNote != "" {
		set["adminNote"] = adminNote
		if status == models.WithdrawalStatusRejected {
			set["rejectionReason"] = adminNote
		}
	}
	if payoutID != 0 {
		set["payoutId"] = payoutID
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Withdrawal
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": models.WithdrawalStatusPending}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// TotalByStatus sums a user's withdrawals in the given state.
func (r *WithdrawalRepository) TotalByStatus(ctx context.Context, userID primitive.ObjectID, status string) (float64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"userId": userID, "status": status}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result struct {
		Total float64 `bson:"total"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, err
		}
	}
	return result.Total, nil
}
