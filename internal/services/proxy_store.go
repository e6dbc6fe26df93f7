package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProxiesCollection = "proxies"

// ProxyStore is the persisted proxy pool.
type ProxyStore interface {
	Generate(ctx context.Context, count int, creds config.ProxyConfig) ([]models.Proxy, error)
	ListAll(ctx context.Context) ([]models.Proxy, error)
	FindByHostPort(ctx context.Context, host string, port int) (*models.Proxy, error)
	FindFirstUnused(ctx context.Context) (*models.Proxy, error)
	ClaimUnused(ctx context.Context) (*models.Proxy, error)
	ClaimByHostPort(ctx context.Context, host string, port int) (bool, error)
	Release(ctx context.Context, id primitive.ObjectID) error
}

type MongoProxyStore struct {
	col   *mongo.Collection
	ports config.PortRange
}

func NewProxyStore(db *mongo.Database, ports config.PortRange) *MongoProxyStore {
	return &MongoProxyStore{col: db.Collection(ProxiesCollection), ports: ports}
}

// NextPortBlock returns the first port of a block of count sequential ports
// following highest. found is false when the pool is empty.
func NextPortBlock(highest int, found bool, count int, r config.PortRange) (int, error) {
	if count < 1 {
		return 0, ErrInvalidCount
	}
	start := r.Min
	if found && highest >= r.Min {
		start = highest + 1
	}
	if start > r.Max || count > r.Max-start+1 {
		return 0, fmt.Errorf("%w: %d ports requested from %d, ceiling %d", ErrPortRangeExhausted, count, start, r.Max)
	}
	return start, nil
}

// Generate appends count unused proxies after the highest stored port.
func (s *MongoProxyStore) Generate(ctx context.Context, count int, creds config.ProxyConfig) ([]models.Proxy, error) {
	var last models.Proxy
	found := true
	opts := options.FindOne().SetSort(bson.D{{Key: "port", Value: -1}})
	if err := s.col.FindOne(ctx, bson.M{}, opts).Decode(&last); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find highest proxy port: %w", err)
		}
		found = false
	}

	start, err := NextPortBlock(last.Port, found, count, s.ports)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	proxies := make([]models.Proxy, 0, count)
	docs := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		p := models.Proxy{
			ID:        primitive.NewObjectID(),
			CreatedAt: now,
			Host:      creds.Host,
			Port:      start + i,
			Username:  creds.Username,
			Password:  creds.Password,
			IsUsed:    false,
		}
		proxies = append(proxies, p)
		docs = append(docs, p)
	}

	if _, err := s.col.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("insert proxies: %w", err)
	}
	return proxies, nil
}

func (s *MongoProxyStore) ListAll(ctx context.Context) ([]models.Proxy, error) {
	cursor, err := s.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "port", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	proxies := []models.Proxy{}
	if err := cursor.All(ctx, &proxies); err != nil {
		return nil, err
	}
	return proxies, nil
}

func (s *MongoProxyStore) FindByHostPort(ctx context.Context, host string, port int) (*models.Proxy, error) {
	return s.findOne(ctx, bson.M{"host": host, "port": port})
}

// FindFirstUnused returns an unused proxy without marking it.
func (s *MongoProxyStore) FindFirstUnused(ctx context.Context) (*models.Proxy, error) {
	return s.findOne(ctx, bson.M{"isUsed": false})
}

// ClaimUnused atomically flips one unused proxy to used and returns it.
func (s *MongoProxyStore) ClaimUnused(ctx context.Context) (*models.Proxy, error) {
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "port", Value: 1}}).
		SetReturnDocument(options.After)

	var p models.Proxy
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"isUsed": false},
		bson.M{"$set": bson.M{"isUsed": true}},
		opts,
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claim proxy: %w", err)
	}
	return &p, nil
}

// ClaimByHostPort marks the pool record for host:port used. It reports
// false when no unused record matches.
func (s *MongoProxyStore) ClaimByHostPort(ctx context.Context, host string, port int) (bool, error) {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"host": host, "port": port, "isUsed": false},
		bson.M{"$set": bson.M{"isUsed": true}},
	)
	if err != nil {
		return false, fmt.Errorf("claim proxy %s:%d: %w", host, port, err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *MongoProxyStore) Release(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isUsed": false}})
	return err
}

func (s *MongoProxyStore) findOne(ctx context.Context, filter bson.M) (*models.Proxy, error) {
	var p models.Proxy
	err := s.col.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
