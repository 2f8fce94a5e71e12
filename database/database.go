package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"

	apperrors "bus-booking/errors"
)

// Collection names of the persisted layout.
const (
	UsersCollection     = "users"
	BusesCollection     = "buses"
	BusRoutesCollection = "bus_routes"
	BusTripsCollection  = "bus_trips"
	BookingsCollection  = "bookings"
	CitiesCollection    = "cities"
)

var (
	ErrNoDocuments  = errors.New("no documents in result")
	ErrDuplicateKey = errors.New("duplicate key")
)

// Index describes an index a store needs. Partial restricts a unique index to
// the documents matching the filter.
type Index struct {
	Name    string
	Keys    []string
	Unique  bool
	Partial bson.M
}

// Collection is the keyed record store every component is built on. Filters
// are equality matches on top-level fields, plus primitive.Regex values.
type Collection interface {
	InsertOne(ctx context.Context, document interface{}) (primitive.ObjectID, error)
	FindOne(ctx context.Context, filter bson.M, result interface{}) error
	// Find decodes matching documents in insertion order into results, which
	// must be a pointer to a slice. A zero limit means no limit.
	Find(ctx context.Context, filter bson.M, skip, limit int64, results interface{}) error
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
	// UpdateOne applies set to the first document matching filter and
	// reports whether one matched. Matching and updating are one atomic step.
	UpdateOne(ctx context.Context, filter bson.M, set bson.M) (bool, error)
	DeleteOne(ctx context.Context, filter bson.M) (bool, error)
	EnsureIndex(ctx context.Context, index Index) error
}

type DB struct {
	client   *mongo.Client
	database *mongo.Database
}

func Connect(ctx context.Context, connString, databaseName string) (*DB, error) {
	clientOptions := options.Client().
		ApplyURI(connString).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the db: %w", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db is not available: %w", err)
	}

	return &DB{client: client, database: client.Database(databaseName)}, nil
}

func (d *DB) Collection(name string) Collection {
	return &mongoCollection{collection: d.database.Collection(name)}
}

func (d *DB) Disconnect(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

type mongoCollection struct {
	collection *mongo.Collection
}

func (c *mongoCollection) InsertOne(ctx context.Context, document interface{}) (primitive.ObjectID, error) {
	res, err := c.collection.InsertOne(ctx, document)
	if err != nil {
		return primitive.NilObjectID, translate(err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected id type %T", res.InsertedID)
	}
	return id, nil
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, result interface{}) error {
	err := c.collection.FindOne(ctx, filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNoDocuments
	}
	return translate(err)
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, skip, limit int64, results interface{}) error {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(skip)
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cur, err := c.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return translate(err)
	}
	return translate(cur.All(ctx, results))
}

func (c *mongoCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	count, err := c.collection.CountDocuments(ctx, filter)
	return count, translate(err)
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter bson.M, set bson.M) (bool, error) {
	res, err := c.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, translate(err)
	}
	return res.MatchedCount > 0, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M) (bool, error) {
	res, err := c.collection.DeleteOne(ctx, filter)
	if err != nil {
		return false, translate(err)
	}
	return res.DeletedCount > 0, nil
}

func (c *mongoCollection) EnsureIndex(ctx context.Context, index Index) error {
	keys := bson.D{}
	for _, key := range index.Keys {
		keys = append(keys, bson.E{Key: key, Value: 1})
	}

	indexOptions := options.Index().SetName(index.Name).SetUnique(index.Unique)
	if index.Partial != nil {
		indexOptions.SetPartialFilterExpression(index.Partial)
	}

	_, err := c.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: indexOptions})
	if err != nil {
		return fmt.Errorf("creating index %s: %w", index.Name, translate(err))
	}
	return nil
}

// translate maps driver errors onto the store's error kinds.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}

	var selectionErr topology.ServerSelectionError
	var netErr net.Error
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) ||
		errors.As(err, &selectionErr) || errors.As(err, &netErr) ||
		errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	return err
}

// ObjectID parses a hex record id. Malformed ids behave like unknown ones.
func ObjectID(id string) (primitive.ObjectID, bool) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return objID, true
}
