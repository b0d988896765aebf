package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QueryBuilder provides a fluent interface for MongoDB queries
type QueryBuilder struct {
	collection *mongo.Collection
	filter     bson.M
	sort       bson.D
	limit      *int64
	skip       *int64
}

// NewQuery creates a new query builder for a collection
func (c *Client) NewQuery(collectionName string) *QueryBuilder {
	return &QueryBuilder{
		collection: c.Collection(collectionName),
		filter:     bson.M{},
	}
}

// Eq adds an equality filter
func (q *QueryBuilder) Eq(field string, value interface{}) *QueryBuilder {
	q.filter[field] = value
	return q
}

// In adds an "in" filter
func (q *QueryBuilder) In(field string, values interface{}) *QueryBuilder {
	q.filter[field] = bson.M{"$in": values}
	return q
}

// Gte adds a greater-than-or-equal filter
func (q *QueryBuilder) Gte(field string, value interface{}) *QueryBuilder {
	if existing, ok := q.filter[field].(bson.M); ok {
		existing["$gte"] = value
	} else {
		q.filter[field] = bson.M{"$gte": value}
	}
	return q
}

// Lte adds a less-than-or-equal filter
func (q *QueryBuilder) Lte(field string, value interface{}) *QueryBuilder {
	if existing, ok := q.filter[field].(bson.M); ok {
		existing["$lte"] = value
	} else {
		q.filter[field] = bson.M{"$lte": value}
	}
	return q
}

// SortBy adds a sort key; descending when desc is true
func (q *QueryBuilder) SortBy(field string, desc bool) *QueryBuilder {
	order := 1
	if desc {
		order = -1
	}
	q.sort = append(q.sort, bson.E{Key: field, Value: order})
	return q
}

// Limit sets the limit
func (q *QueryBuilder) Limit(limit int64) *QueryBuilder {
	q.limit = &limit
	return q
}

// Skip sets the skip value
func (q *QueryBuilder) Skip(skip int64) *QueryBuilder {
	q.skip = &skip
	return q
}

// Find executes the query and decodes every document into results, which
// must be a pointer to a slice.
func (q *QueryBuilder) Find(ctx context.Context, results interface{}) error {
	opts := options.Find()
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if q.limit != nil {
		opts.SetLimit(*q.limit)
	}
	if q.skip != nil {
		opts.SetSkip(*q.skip)
	}

	cursor, err := q.collection.Find(ctx, q.filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, results)
}

// FindOne executes the query and decodes the first document into result.
// Returns (false, nil) when no document matches.
func (q *QueryBuilder) FindOne(ctx context.Context, result interface{}) (bool, error) {
	err := q.collection.FindOne(ctx, q.filter).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of matching documents
func (q *QueryBuilder) Count(ctx context.Context) (int64, error) {
	return q.collection.CountDocuments(ctx, q.filter)
}

// Insert inserts a single document
func (q *QueryBuilder) Insert(ctx context.Context, doc interface{}) error {
	_, err := q.collection.InsertOne(ctx, doc)
	return err
}

// UpdateOne applies a $set update to the first matching document
func (q *QueryBuilder) UpdateOne(ctx context.Context, fields interface{}) error {
	_, err := q.collection.UpdateOne(ctx, q.filter, bson.M{"$set": fields})
	return err
}

// Upsert applies a $set update to the first matching document, inserting
// it when none matches.
func (q *QueryBuilder) Upsert(ctx context.Context, fields interface{}) error {
	opts := options.Update().SetUpsert(true)
	_, err := q.collection.UpdateOne(ctx, q.filter, bson.M{"$set": fields}, opts)
	return err
}

// DeleteOne deletes the first matching document
func (q *QueryBuilder) DeleteOne(ctx context.Context) error {
	_, err := q.collection.DeleteOne(ctx, q.filter)
	return err
}
