package mongo

import (
	"context"
	"fmt"

	"lakeside/internal/inventory/repository"
	"lakeside/internal/migrations/mongo/validators"
	"lakeside/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CollectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_type", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "confirmation_code", Value: 1}},
			Options: options.Index().
				SetName(repository.ConfirmationCodeIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"confirmation_code": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "check_in", Value: 1},
		}},
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "guest_id", Value: 1}}},
	}
)

// Collections lists every collection the inventory store needs, in creation
// order.
func Collections() []CollectionDef {
	return []CollectionDef{
		{Name: repository.RoomsCollection, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
		{Name: repository.BookingsCollection, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
	}
}

// RunMigration creates or updates the collections, validators and indexes in
// dbName. It is safe to run repeatedly.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}
