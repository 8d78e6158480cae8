// Package mongo implements session.Store on MongoDB, one document per turn.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/answerforge/answerforge/session"
)

// Config holds MongoDB connection configuration
type Config struct {
	URI        string
	Database   string
	Collection string
	Counters   string
}

// DefaultConfig returns default MongoDB configuration
func DefaultConfig() *Config {
	return &Config{
		URI:        "mongodb://localhost:27017",
		Database:   "answerforge",
		Collection: "turns",
		Counters:   "turn_counters",
	}
}

// mongoTurn is the internal representation for MongoDB
type mongoTurn struct {
	SessionID string    `bson:"session_id"`
	Query     string    `bson:"query"`
	Answer    string    `bson:"answer"`
	Route     string    `bson:"route,omitempty"`
	Seq       int64     `bson:"seq"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store implements session.Store backed by a MongoDB collection
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	counters   *mongo.Collection
}

// New creates a new MongoDB-based session store
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(config.Database)
	counters := config.Counters
	if counters == "" {
		counters = "turn_counters"
	}
	store := &Store{
		client:     client,
		collection: db.Collection(config.Collection),
		counters:   db.Collection(counters),
	}

	if err := store.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "session_id", Value: 1},
			{Key: "seq", Value: 1},
		},
	}
	_, err := s.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

// AppendTurn appends a turn to the session log
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn session.Turn) error {
	if sessionID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	seq, err := s.nextSeq(ctx, sessionID)
	if err != nil {
		return err
	}

	doc := mongoTurn{
		SessionID: sessionID,
		Query:     turn.Query,
		Answer:    turn.Answer,
		Route:     turn.Route,
		Seq:       seq,
		CreatedAt: turn.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// nextSeq allocates the next per-session sequence number through an atomic
// counter document, so concurrent appends cannot claim the same position.
func (s *Store) nextSeq(ctx context.Context, sessionID string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate turn sequence: %w", err)
	}
	return counter.Seq, nil
}

// History returns all turns for the session in append order
func (s *Store) History(ctx context.Context, sessionID string) ([]session.Turn, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	defer cursor.Close(ctx)

	var turns []session.Turn
	for cursor.Next(ctx) {
		var doc mongoTurn
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode turn: %w", err)
		}
		turns = append(turns, session.Turn{
			Query:     doc.Query,
			Answer:    doc.Answer,
			Route:     doc.Route,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turns: %w", err)
	}
	if turns == nil {
		turns = []session.Turn{}
	}
	return turns, nil
}

// Sessions lists known session IDs
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	ids, err := s.collection.Distinct(ctx, "session_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if str, ok := id.(string); ok {
			out = append(out, str)
		}
	}
	return out, nil
}

// Delete removes a session, its turns and its sequence counter
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if _, err := s.counters.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete session counter: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
