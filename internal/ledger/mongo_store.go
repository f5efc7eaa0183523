package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vanshika/algopay/backend/internal/domain"
)

// ErrMissingURI indicates the Mongo URI is not provided.
var ErrMissingURI = errors.New("mongo URI is required")

// Options configures the Mongo-backed store.
type Options struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// MongoStore implements Store on a MongoDB collection with a unique index
// on the transaction identifier.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects, verifies connectivity, and ensures indexes.
func NewMongoStore(ctx context.Context, opts Options) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}
	if opts.Collection == "" {
		opts.Collection = "transactions"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetServerSelectionTimeout(opts.ConnectTimeout)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}

	if err := store.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "txId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Ping verifies the store can reach the database.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close releases the underlying connections.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type transactionDoc struct {
	TxID           string    `bson:"txId"`
	Sender         string    `bson:"from"`
	Recipient      string    `bson:"to"`
	Amount         int64     `bson:"amount"`
	Note           string    `bson:"note,omitempty"`
	Status         string    `bson:"status"`
	ConfirmedRound int64     `bson:"confirmedRound,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func toDoc(record domain.TransactionRecord) transactionDoc {
	return transactionDoc{
		TxID:           record.TxID,
		Sender:         record.Sender,
		Recipient:      record.Recipient,
		Amount:         int64(record.Amount),
		Note:           record.Note,
		Status:         string(record.Status),
		ConfirmedRound: int64(record.ConfirmedRound),
		CreatedAt:      record.CreatedAt.UTC(),
	}
}

func (d transactionDoc) toRecord() domain.TransactionRecord {
	return domain.TransactionRecord{
		TxID:           d.TxID,
		Sender:         d.Sender,
		Recipient:      d.Recipient,
		Amount:         uint64(d.Amount),
		Note:           d.Note,
		Status:         domain.Status(d.Status),
		ConfirmedRound: uint64(d.ConfirmedRound),
		CreatedAt:      d.CreatedAt,
	}
}

func (s *MongoStore) Insert(ctx context.Context, record domain.TransactionRecord) error {
	_, err := s.coll.InsertOne(ctx, toDoc(record))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateIdentifier, record.TxID)
		}
		return fmt.Errorf("insert transaction record: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, txID string) (domain.TransactionRecord, error) {
	var doc transactionDoc
	err := s.coll.FindOne(ctx, bson.M{"txId": txID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.TransactionRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, txID)
		}
		return domain.TransactionRecord{}, fmt.Errorf("find transaction record: %w", err)
	}
	return doc.toRecord(), nil
}

func (s *MongoStore) UpdateTerminalStatus(ctx context.Context, txID string, status domain.Status, confirmedRound uint64) error {
	if err := validateTerminal(status, confirmedRound); err != nil {
		return err
	}

	set := bson.M{"status": string(status)}
	if status == domain.StatusConfirmed {
		set["confirmedRound"] = int64(confirmedRound)
	}

	// Conditional on the current status so the terminal transition is
	// applied at most once under concurrent reconciliation attempts.
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"txId": txID, "status": string(domain.StatusPending)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	record, err := s.FindByID(ctx, txID)
	if err != nil {
		return err
	}
	if record.Status == status && (status != domain.StatusConfirmed || record.ConfirmedRound == confirmedRound) {
		// Repeated identical terminal write.
		return nil
	}
	return fmt.Errorf("%w: %s is already %s", domain.ErrInvalidTransition, txID, record.Status)
}

func (s *MongoStore) ListRecent(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	return s.list(ctx, bson.M{}, bson.D{{Key: "createdAt", Value: -1}}, limit)
}

func (s *MongoStore) ListPending(ctx context.Context, limit int) ([]domain.TransactionRecord, error) {
	filter := bson.M{"status": string(domain.StatusPending)}
	return s.list(ctx, filter, bson.D{{Key: "createdAt", Value: 1}}, limit)
}

func (s *MongoStore) list(ctx context.Context, filter bson.M, sort bson.D, limit int) ([]domain.TransactionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort).SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("list transaction records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []transactionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transaction records: %w", err)
	}

	records := make([]domain.TransactionRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

const defaultListLimit = 50
