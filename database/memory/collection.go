// Package memory is an in-process record store with the same matching and
// index semantics the services rely on from MongoDB. It backs the memory
// store driver and the tests.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"bus-booking/database"
)

// Database groups named collections.
type Database struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

func NewDatabase() *Database {
	return &Database{collections: map[string]*Collection{}}
}

// Collection returns the named collection, creating it on first use.
func (d *Database) Collection(name string) database.Collection {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.collections[name]
	if !ok {
		c = NewCollection()
		d.collections[name] = c
	}
	return c
}

// Collection keeps documents in insertion order. Every operation holds the
// collection lock, so an index check and the write it guards are one step.
type Collection struct {
	mu      sync.Mutex
	docs    []bson.M
	indexes []database.Index
}

func NewCollection() *Collection {
	return &Collection{}
}

func (c *Collection) InsertOne(ctx context.Context, document interface{}) (primitive.ObjectID, error) {
	if err := ctx.Err(); err != nil {
		return primitive.NilObjectID, err
	}
	doc, err := toDocument(document)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		doc["_id"] = id
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkIndexes(doc, -1); err != nil {
		return primitive.NilObjectID, err
	}
	c.docs = append(c.docs, doc)
	return id, nil
}

func (c *Collection) FindOne(ctx context.Context, filter bson.M, result interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	query, err := toDocument(filter)
	if err != nil {
		return err
	}

	c.mu.Lock()
	i := c.first(query)
	var doc bson.M
	if i >= 0 {
		doc = c.docs[i]
	}
	c.mu.Unlock()

	if doc == nil {
		return database.ErrNoDocuments
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, result)
}

func (c *Collection) Find(ctx context.Context, filter bson.M, skip, limit int64, results interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	query, err := toDocument(filter)
	if err != nil {
		return err
	}

	c.mu.Lock()
	matched := []bson.M{}
	var seen int64
	for _, doc := range c.docs {
		if !matches(doc, query) {
			continue
		}
		seen++
		if seen <= skip {
			continue
		}
		matched = append(matched, doc)
		if limit > 0 && int64(len(matched)) == limit {
			break
		}
	}
	raw, err := bson.Marshal(bson.M{"items": matched})
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return bson.Raw(raw).Lookup("items").Unmarshal(results)
}

func (c *Collection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	query, err := toDocument(filter)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var count int64
	for _, doc := range c.docs {
		if matches(doc, query) {
			count++
		}
	}
	return count, nil
}

func (c *Collection) UpdateOne(ctx context.Context, filter bson.M, set bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	query, err := toDocument(filter)
	if err != nil {
		return false, err
	}
	fields, err := toDocument(set)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.first(query)
	if i < 0 {
		return false, nil
	}

	updated := make(bson.M, len(c.docs[i])+len(fields))
	for k, v := range c.docs[i] {
		updated[k] = v
	}
	for k, v := range fields {
		updated[k] = v
	}
	if err := c.checkIndexes(updated, i); err != nil {
		return false, err
	}
	c.docs[i] = updated
	return true, nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter bson.M) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	query, err := toDocument(filter)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.first(query)
	if i < 0 {
		return false, nil
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return true, nil
}

func (c *Collection) EnsureIndex(ctx context.Context, index database.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if index.Partial != nil {
		partial, err := toDocument(index.Partial)
		if err != nil {
			return err
		}
		index.Partial = partial
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.indexes {
		if existing.Name == index.Name {
			return nil
		}
	}
	if index.Unique {
		for i, doc := range c.docs {
			if err := checkIndex(index, c.docs, doc, i); err != nil {
				return fmt.Errorf("creating index %s: %w", index.Name, err)
			}
		}
	}
	c.indexes = append(c.indexes, index)
	return nil
}

func (c *Collection) first(query bson.M) int {
	for i, doc := range c.docs {
		if matches(doc, query) {
			return i
		}
	}
	return -1
}

// checkIndexes rejects doc when it collides with a document other than the
// one at position self on any unique index.
func (c *Collection) checkIndexes(doc bson.M, self int) error {
	for _, index := range c.indexes {
		if !index.Unique {
			continue
		}
		if err := checkIndex(index, c.docs, doc, self); err != nil {
			return err
		}
	}
	return nil
}

func checkIndex(index database.Index, docs []bson.M, doc bson.M, self int) error {
	if index.Partial != nil && !matches(doc, index.Partial) {
		return nil
	}
	for i, other := range docs {
		if i == self {
			continue
		}
		if index.Partial != nil && !matches(other, index.Partial) {
			continue
		}
		if sameKey(index.Keys, doc, other) {
			return fmt.Errorf("%w: index %s", database.ErrDuplicateKey, index.Name)
		}
	}
	return nil
}

func sameKey(keys []string, a, b bson.M) bool {
	for _, key := range keys {
		if !reflect.DeepEqual(a[key], b[key]) {
			return false
		}
	}
	return true
}

// matches reports whether doc satisfies every field of query. Values are
// compared for equality, except primitive.Regex values, which match strings.
func matches(doc, query bson.M) bool {
	for key, want := range query {
		got := doc[key]
		if pattern, ok := want.(primitive.Regex); ok {
			s, ok := got.(string)
			if !ok || !matchRegex(pattern, s) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func matchRegex(pattern primitive.Regex, s string) bool {
	expr := pattern.Pattern
	if strings.Contains(pattern.Options, "i") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// toDocument normalizes a value through BSON so that stored documents and
// query values share one representation.
func toDocument(value interface{}) (bson.M, error) {
	if m, ok := value.(bson.M); ok && len(m) == 0 {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(value)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
