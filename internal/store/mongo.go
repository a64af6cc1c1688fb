package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/repliq-app/repliq/internal/models"
)

const allowlistDocID = "admin_emails"

// Mongo is the MongoDB-backed store. Status preconditions are enforced
// with conditional updates, so a racing second admin loses cleanly, and
// the library collection carries a unique index on requestId to make
// grants idempotent.
type Mongo struct {
	client   *mongo.Client
	books    *mongo.Collection
	requests *mongo.Collection
	library  *mongo.Collection
	config   *mongo.Collection
}

// NewMongo connects to uri, verifies the connection and prepares the
// collections and indexes of the given database.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		books:    db.Collection("books"),
		requests: db.Collection("requests"),
		library:  db.Collection("library"),
		config:   db.Collection("config"),
	}

	_, err = m.library.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "requestId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create library index: %w", err)
	}
	return m, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) CreateBook(ctx context.Context, book *models.Book) error {
	if _, err := m.books.InsertOne(ctx, book); err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

func (m *Mongo) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := m.books.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch book: %w", err)
	}
	return &book, nil
}

func (m *Mongo) ListBooks(ctx context.Context) ([]models.Book, error) {
	cursor, err := m.books.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	var books []models.Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("failed to decode books: %w", err)
	}
	return books, nil
}

func (m *Mongo) CreateRequest(ctx context.Context, req *models.Request) error {
	if _, err := m.requests.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

func (m *Mongo) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	var req models.Request
	err := m.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch request: %w", err)
	}
	return &req, nil
}

func (m *Mongo) ListRequestsByUser(ctx context.Context, userID string) ([]models.Request, error) {
	return m.findRequests(ctx, bson.M{"userId": userID})
}

func (m *Mongo) ListRequestsByStatus(ctx context.Context, status models.Status) ([]models.Request, error) {
	return m.findRequests(ctx, bson.M{"status": status})
}

func (m *Mongo) ListResolvedRequests(ctx context.Context) ([]models.Request, error) {
	return m.findRequests(ctx, bson.M{"status": bson.M{"$ne": models.StatusPending}})
}

func (m *Mongo) findRequests(ctx context.Context, filter bson.M) ([]models.Request, error) {
	cursor, err := m.requests.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	var requests []models.Request
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}
	return requests, nil
}

func (m *Mongo) SetMatchedBook(ctx context.Context, requestID string, match models.MatchedBook) error {
	res, err := m.requests.UpdateOne(ctx,
		bson.M{"_id": requestID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"matchedBook": match}},
	)
	if err != nil {
		return fmt.Errorf("failed to set matched book: %w", err)
	}
	if res.MatchedCount == 0 {
		return m.missingOrTerminal(ctx, requestID)
	}
	return nil
}

func (m *Mongo) TransitionRequest(ctx context.Context, requestID string, to models.Status, adminEmail string, at time.Time) (*models.Request, error) {
	var req models.Request
	err := m.requests.FindOneAndUpdate(ctx,
		bson.M{"_id": requestID, "status": models.StatusPending},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at, "adminEmail": adminEmail}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, m.missingOrTerminal(ctx, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition request: %w", err)
	}
	return &req, nil
}

// missingOrTerminal distinguishes "no such request" from "request already
// resolved" after a conditional update matched nothing.
func (m *Mongo) missingOrTerminal(ctx context.Context, requestID string) error {
	if _, err := m.GetRequest(ctx, requestID); err != nil {
		return err
	}
	return ErrNotPending
}

func (m *Mongo) GrantLibraryEntry(ctx context.Context, entry *models.LibraryEntry) error {
	_, err := m.library.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		// Already granted for this request.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to insert library entry: %w", err)
	}
	return nil
}

func (m *Mongo) HasLibraryGrant(ctx context.Context, requestID string) (bool, error) {
	count, err := m.library.CountDocuments(ctx, bson.M{"requestId": requestID})
	if err != nil {
		return false, fmt.Errorf("failed to count library grants: %w", err)
	}
	return count > 0, nil
}

func (m *Mongo) ListLibraryByUser(ctx context.Context, userID string) ([]models.LibraryEntry, error) {
	cursor, err := m.library.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	var entries []models.LibraryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode library entries: %w", err)
	}
	return entries, nil
}

func (m *Mongo) GetAllowlist(ctx context.Context) (models.Allowlist, error) {
	var doc struct {
		Emails []string `bson:"emails"`
	}
	err := m.config.FindOne(ctx, bson.M{"_id": allowlistDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Allowlist{}, ErrNotFound
	}
	if err != nil {
		return models.Allowlist{}, fmt.Errorf("failed to fetch allowlist: %w", err)
	}
	return models.Allowlist{Emails: doc.Emails}, nil
}

func (m *Mongo) InitAllowlist(ctx context.Context, list models.Allowlist) (bool, error) {
	res, err := m.config.UpdateOne(ctx,
		bson.M{"_id": allowlistDocID},
		bson.M{"$setOnInsert": bson.M{"emails": list.Emails}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("failed to init allowlist: %w", err)
	}
	return res.UpsertedCount > 0, nil
}
