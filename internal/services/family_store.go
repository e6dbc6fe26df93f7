package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const FamiliesCollection = "families"

// FamilyStore keeps standalone families, not attached to any profile.
type FamilyStore interface {
	Create(ctx context.Context, f *models.Family) error
	AppendChild(ctx context.Context, id primitive.ObjectID, child models.Account) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.Family, error)
}

type MongoFamilyStore struct {
	col *mongo.Collection
}

func NewFamilyStore(db *mongo.Database) *MongoFamilyStore {
	return &MongoFamilyStore{col: db.Collection(FamiliesCollection)}
}

func (s *MongoFamilyStore) Create(ctx context.Context, f *models.Family) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if f.Children == nil {
		f.Children = []models.Account{}
	}
	if _, err := s.col.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("insert family: %w", err)
	}
	return nil
}

func (s *MongoFamilyStore) AppendChild(ctx context.Context, id primitive.ObjectID, child models.Account) error {
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$push": bson.M{"children": child}})
	if err != nil {
		return fmt.Errorf("append family child: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoFamilyStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Family, error) {
	var f models.Family
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
