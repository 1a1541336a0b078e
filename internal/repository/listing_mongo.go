package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoListingRepository stores listings in a MongoDB collection.
// It owns the client: Close disconnects it.
type MongoListingRepository struct {
	client *mongo.Client
	col    *mongo.Collection
}

var _ ListingRepository = (*MongoListingRepository)(nil)

// NewMongoListingRepository wraps an already connected client.
func NewMongoListingRepository(client *mongo.Client, database, collection string) *MongoListingRepository {
	return &MongoListingRepository{
		client: client,
		col:    client.Database(database).Collection(collection),
	}
}

// Migrate creates the indexes the list query relies on.
func (r *MongoListingRepository) Migrate(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: NameField, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("listings/mongo: create name index: %w", err)
	}
	return nil
}

func (r *MongoListingRepository) Create(ctx context.Context, doc Document) (Document, error) {
	oid := bson.NewObjectID()

	insert := bson.M(doc.WithoutID())
	insert[IDField] = oid

	if _, err := r.col.InsertOne(ctx, insert); err != nil {
		return nil, fmt.Errorf("listings/mongo: insert listing: %w", err)
	}

	created := doc.WithoutID()
	created[IDField] = oid.Hex()
	return created, nil
}

func (r *MongoListingRepository) List(ctx context.Context, q ListQuery) (*ListingPage, error) {
	filter := bson.M{}
	if q.Name != "" {
		filter[NameField] = bson.Regex{Pattern: regexp.QuoteMeta(q.Name), Options: "i"}
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listings/mongo: count listings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: IDField, Value: 1}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.PerPage))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listings/mongo: find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("listings/mongo: decode listings: %w", err)
	}

	items := make([]Document, 0, len(raw))
	for _, m := range raw {
		items = append(items, documentFromBSON(m))
	}

	return &ListingPage{Items: items, Page: q.Page, PerPage: q.PerPage, Total: total}, nil
}

func (r *MongoListingRepository) GetByID(ctx context.Context, id string) (Document, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	var m bson.M
	err = r.col.FindOne(ctx, bson.M{IDField: oid}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listings/mongo: get listing: %w", err)
	}

	return documentFromBSON(m), nil
}

func (r *MongoListingRepository) UpdateByID(ctx context.Context, id string, fields Document) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	patch := fields.WithoutID()
	// An empty $set is rejected by the server; nothing to do anyway.
	if len(patch) == 0 {
		return nil
	}

	_, err = r.col.UpdateOne(ctx, bson.M{IDField: oid}, bson.M{"$set": bson.M(patch)})
	if err != nil {
		return fmt.Errorf("listings/mongo: update listing: %w", err)
	}
	return nil
}

func (r *MongoListingRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}

	if _, err := r.col.DeleteOne(ctx, bson.M{IDField: oid}); err != nil {
		return fmt.Errorf("listings/mongo: delete listing: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (r *MongoListingRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (r *MongoListingRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("listings/mongo: invalid listing id %q: %w", id, err)
	}
	return oid, nil
}

// documentFromBSON converts a decoded BSON document into JSON-friendly values.
func documentFromBSON(m bson.M) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = valueFromBSON(v)
	}
	return out
}

func valueFromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		return map[string]any(documentFromBSON(t))
	case map[string]any:
		return map[string]any(documentFromBSON(bson.M(t)))
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = valueFromBSON(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = valueFromBSON(e)
		}
		return out
	case []any:
		return valueFromBSON(bson.A(t))
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	case bson.Decimal128:
		return t.String()
	default:
		return v
	}
}
