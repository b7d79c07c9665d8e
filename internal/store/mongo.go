package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoEngine stores each collection as a MongoDB collection.
type MongoEngine struct {
	uri           string
	database      string
	selectTimeout time.Duration

	mu     sync.RWMutex
	client *mongo.Client
}

// NewMongoEngine creates an engine for uri; database selects the db when the URI has none.
func NewMongoEngine(uri, database string, selectTimeout time.Duration) *MongoEngine {
	return &MongoEngine{uri: uri, database: database, selectTimeout: selectTimeout}
}

func (e *MongoEngine) Driver() string { return "mongo" }

// Connect dials the cluster and pings the primary. An existing client that still answers is reused.
func (e *MongoEngine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		if err := e.client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		_ = e.client.Disconnect(ctx)
		e.client = nil
	}

	opts := options.Client().ApplyURI(e.uri)
	if e.selectTimeout > 0 {
		opts.SetServerSelectionTimeout(e.selectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongo ping: %w", err)
	}
	e.client = client
	return nil
}

// Ping checks the primary through the current client.
func (e *MongoEngine) Ping(ctx context.Context) error {
	e.mu.RLock()
	client := e.client
	e.mu.RUnlock()
	if client == nil {
		return ErrUnavailable
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (e *MongoEngine) Disconnect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Disconnect(ctx)
	e.client = nil
	return err
}

func (e *MongoEngine) Collection(name string) Collection {
	return &mongoCollection{engine: e, name: name}
}

func (e *MongoEngine) coll(name string) (*mongo.Collection, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.client == nil {
		return nil, ErrUnavailable
	}
	return e.client.Database(e.database).Collection(name), nil
}

type mongoCollection struct {
	engine *MongoEngine
	name   string
}

func toBSON(f Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		m[k] = v
	}
	return m
}

// idFilter matches id stored either as a string or, for documents written by other tools, as an ObjectID.
func idFilter(id string) bson.M {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return bson.M{"_id": id}
	}
	return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
}

func (c *mongoCollection) Insert(ctx context.Context, doc Document) error {
	coll, err := c.engine.coll(c.name)
	if err != nil {
		return err
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}
	return nil
}

func (c *mongoCollection) FindByID(ctx context.Context, id string, out any) error {
	coll, err := c.engine.coll(c.name)
	if err != nil {
		return err
	}
	err = coll.FindOne(ctx, idFilter(id)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find %s %s: %w", c.name, id, err)
	}
	return nil
}

func (c *mongoCollection) Find(ctx context.Context, q Query, out any) error {
	coll, err := c.engine.coll(c.name)
	if err != nil {
		return err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	cur, err := coll.Find(ctx, toBSON(q.Filter), opts)
	if err != nil {
		return fmt.Errorf("find in %s: %w", c.name, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", c.name, err)
	}
	return nil
}

func (c *mongoCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	coll, err := c.engine.coll(c.name)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, toBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *mongoCollection) Update(ctx context.Context, id string, set Filter) error {
	coll, err := c.engine.coll(c.name)
	if err != nil {
		return err
	}
	res, err := coll.UpdateOne(ctx, idFilter(id), bson.M{"$set": toBSON(set)})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", c.name, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
