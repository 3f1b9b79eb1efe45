package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartsCollection = "carts"

type cartDocument struct {
	SessionID string             `bson:"session_id"`
	Items     []lineItemDocument `bson:"items"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// lineItemDocument stores the price as a string; decimal.Decimal has no BSON
// encoding of its own.
type lineItemDocument struct {
	ID        string    `bson:"id"`
	ProductID string    `bson:"product_id"`
	Name      string    `bson:"name"`
	Price     string    `bson:"price"`
	Image     string    `bson:"image"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoCartStore persists one session's cart as a single document.
type MongoCartStore struct {
	collection *mongo.Collection
	sessionID  string
}

func NewMongoCartStore(db *mongo.Database, sessionID string) (*MongoCartStore, error) {
	if err := validSessionKey(sessionID); err != nil {
		return nil, err
	}
	return &MongoCartStore{
		collection: db.Collection(cartsCollection),
		sessionID:  sessionID,
	}, nil
}

func (m *MongoCartStore) Load(ctx context.Context) ([]domain.LineItem, error) {
	var doc cartDocument
	err := m.collection.FindOne(ctx, bson.M{"session_id": m.sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return fromDocuments(doc.Items)
}

func (m *MongoCartStore) Save(ctx context.Context, items []domain.LineItem) error {
	filter := bson.M{"session_id": m.sessionID}
	update := bson.M{"$set": bson.M{
		"items":      toDocuments(items),
		"updated_at": time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

// ConnectMongoDB dials uri and returns the named database once a ping
// succeeds. The caller owns the client.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetAppName("storefront").
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateCartIndexes makes session_id unique and expires carts untouched for 90 days.
func CreateCartIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60),
		},
	}

	if _, err := db.Collection(cartsCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func toDocuments(items []domain.LineItem) []lineItemDocument {
	docs := make([]lineItemDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, lineItemDocument{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.UnitPrice.String(),
			Image:     item.ImageRef,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return docs
}

func fromDocuments(docs []lineItemDocument) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(docs))
	for _, doc := range docs {
		price, err := decimal.NewFromString(doc.Price)
		if err != nil {
			return nil, fmt.Errorf("decode price of %s: %w", doc.ProductID, err)
		}
		items = append(items, domain.LineItem{
			ID:        doc.ID,
			ProductID: doc.ProductID,
			Name:      doc.Name,
			UnitPrice: price,
			ImageRef:  doc.Image,
			Quantity:  doc.Quantity,
			AddedAt:   doc.AddedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return items, nil
}
