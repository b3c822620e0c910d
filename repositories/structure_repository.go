// repositories/structure_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/investlink/commission_backend/models"
)

const structureCacheTTL = 5 * time.Minute

// StructureRepository stores and retrieves commission structures. Reads go
// through a Redis snapshot cache, so every calculation works on an immutable
// copy of the structure and concurrent edits never tear a result.
type StructureRepository struct {
	collection *mongo.Collection
	cache      *redis.Client
}

// NewStructureRepository creates a repository over the commission_structures
// collection. The cache client may be nil; reads then go straight to Mongo.
func NewStructureRepository(db *mongo.Database, cache *redis.Client) *StructureRepository {
	return &StructureRepository{
		collection: db.Collection("commission_structures"),
		cache:      cache,
	}
}

func structureCacheKey(structureID string) string {
	return fmt.Sprintf("structure:%s", structureID)
}

// GetByStructureID returns the structure stored under the given id. The Redis
// snapshot is preferred; a miss falls through to Mongo and repopulates it.
// Returns models.ErrStructureNotFound when no document exists.
func (r *StructureRepository) GetByStructureID(ctx context.Context, structureID string) (*models.CommissionStructure, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, structureCacheKey(structureID)).Result()
		if err == nil {
			var structure models.CommissionStructure
			if jsonErr := json.Unmarshal([]byte(cached), &structure); jsonErr == nil {
				return &structure, nil
			}
			// Unreadable entry, drop it and fall through to Mongo
			r.cache.Del(ctx, structureCacheKey(structureID))
		} else if err != redis.Nil {
			log.Printf("Redis error reading structure %s: %v", structureID, err)
		}
	}

	var structure models.CommissionStructure
	err := r.collection.FindOne(ctx, bson.M{"structureId": structureID}).Decode(&structure)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrStructureNotFound
		}
		return nil, err
	}

	r.cacheStructure(ctx, &structure)
	return &structure, nil
}

// Create inserts a new structure. A structureId clash is reported as a
// ValidationError so the API surfaces it as bad input rather than a fault.
func (r *StructureRepository) Create(ctx context.Context, structure *models.CommissionStructure) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"structureId": structure.StructureID})
	if err != nil {
		return err
	}
	if count > 0 {
		return models.NewValidationError("structureId", "structure id already exists")
	}

	now := time.Now()
	structure.CreatedAt = now
	structure.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, structure)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewValidationError("structureId", "structure id already exists")
		}
		return err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		structure.ID = oid
	}
	return nil
}

// Update rewrites the configurable fields of a structure in place. The
// structureId is preserved and the cached snapshot is dropped so the next
// calculation sees the new rates.
func (r *StructureRepository) Update(ctx context.Context, structureID string, structure *models.CommissionStructure) (*models.CommissionStructure, error) {
	update := bson.M{
		"$set": bson.M{
			"name":                  structure.Name,
			"description":           structure.Description,
			"baseRate":              structure.BaseRate,
			"performanceMultiplier": structure.PerformanceMultiplier,
			"campaignRules":         structure.CampaignRules,
			"volumeThresholds":      structure.VolumeThresholds,
			"maxCommission":         structure.MaxCommission,
			"minCommission":         structure.MinCommission,
			"isActive":              structure.IsActive,
			"updatedAt":             time.Now(),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.CommissionStructure
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"structureId": structureID}, update, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrStructureNotFound
		}
		return nil, err
	}

	r.invalidate(ctx, structureID)
	return &updated, nil
}

// SetActive flips a structure's active flag. Structures are never hard
// deleted; deactivation just blocks new calculations.
func (r *StructureRepository) SetActive(ctx context.Context, structureID string, active bool) (*models.CommissionStructure, error) {
	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now()}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.CommissionStructure
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"structureId": structureID}, update, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrStructureNotFound
		}
		return nil, err
	}

	r.invalidate(ctx, structureID)
	return &updated, nil
}

// SetCampaignShareCode stores a generated share code on a structure's
// campaign. Used to backfill structures whose campaign was created before a
// code was issued.
func (r *StructureRepository) SetCampaignShareCode(ctx context.Context, structureID, shareCode string) error {
	filter := bson.M{"structureId": structureID, "campaignRules": bson.M{"$ne": nil}}
	update := bson.M{"$set": bson.M{"campaignRules.shareCode": shareCode, "updatedAt": time.Now()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrStructureNotFound
	}

	r.invalidate(ctx, structureID)
	return nil
}

// List returns all structures, newest first. Inactive structures are
// filtered out unless includeInactive is set.
func (r *StructureRepository) List(ctx context.Context, includeInactive bool) ([]models.CommissionStructure, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["isActive"] = true
	}

	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	structures := []models.CommissionStructure{}
	if err := cursor.All(ctx, &structures); err != nil {
		return nil, err
	}
	return structures, nil
}

func (r *StructureRepository) cacheStructure(ctx context.Context, structure *models.CommissionStructure) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(structure)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, structureCacheKey(structure.StructureID), data, structureCacheTTL).Err(); err != nil {
		log.Printf("Redis error caching structure %s: %v", structure.StructureID, err)
	}
}

func (r *StructureRepository) invalidate(ctx context.Context, structureID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, structureCacheKey(structureID)).Err(); err != nil {
		log.Printf("Redis error invalidating structure %s: %v", structureID, err)
	}
}
