package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ProfilesCollection = "profiles"

// ProfileStore persists generated profiles and their embedded families.
type ProfileStore interface {
	Insert(ctx context.Context, p *models.Profile) error
	MarkRegistered(ctx context.Context, id primitive.ObjectID, uuid string) error
	GetByUUID(ctx context.Context, uuid string) (*models.Profile, error)
	ListAll(ctx context.Context) ([]models.Profile, error)
	UsedPorts(ctx context.Context) (map[int]struct{}, error)
	AttachFamily(ctx context.Context, uuid string, family models.Family) (*models.Profile, error)
	AppendChild(ctx context.Context, uuid string, child models.Account) (*models.Profile, error)
	ListWithoutFamily(ctx context.Context) ([]models.Profile, error)
	ListParentWithoutChildren(ctx context.Context) ([]models.Profile, error)
}

type MongoProfileStore struct {
	col *mongo.Collection
}

func NewProfileStore(db *mongo.Database) *MongoProfileStore {
	return &MongoProfileStore{col: db.Collection(ProfilesCollection)}
}

var (
	noFamilyFilter = bson.A{
		bson.M{"family": nil},
		bson.M{"family": bson.M{"$exists": false}},
	}
	parentNoChildFilter = bson.M{
		"$and": bson.A{
			bson.M{"family": bson.M{"$exists": true, "$ne": nil}},
			bson.M{"family.parent": bson.M{"$exists": true}},
			bson.M{"family.children": bson.M{"$size": 0}},
		},
	}
)

func (s *MongoProfileStore) Insert(ctx context.Context, p *models.Profile) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.ProfileStatusPending
	}
	if _, err := s.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// MarkRegistered stores the identifier returned by the profile service.
func (s *MongoProfileStore) MarkRegistered(ctx context.Context, id primitive.ObjectID, uuid string) error {
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"uuid":      uuid,
		"status":    models.ProfileStatusRegistered,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("mark profile registered: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoProfileStore) GetByUUID(ctx context.Context, uuid string) (*models.Profile, error) {
	var p models.Profile
	err := s.col.FindOne(ctx, bson.M{"uuid": uuid}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoProfileStore) ListAll(ctx context.Context) ([]models.Profile, error) {
	return s.find(ctx, bson.M{})
}

// UsedPorts collects the port of every profile's network proxy.
func (s *MongoProfileStore) UsedPorts(ctx context.Context) (map[int]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"network.proxy.port": 1})
	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	used := make(map[int]struct{})
	for cursor.Next(ctx) {
		var p models.Profile
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode profile port: %w", err)
		}
		if port, err := strconv.Atoi(p.Network.Proxy.Port); err == nil {
			used[port] = struct{}{}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return used, nil
}

// AttachFamily sets the profile's family only if it has none, so two
// concurrent requests cannot both succeed.
func (s *MongoProfileStore) AttachFamily(ctx context.Context, uuid string, family models.Family) (*models.Profile, error) {
	if family.Children == nil {
		family.Children = []models.Account{}
	}
	filter := bson.M{"uuid": uuid, "$or": noFamilyFilter}
	update := bson.M{"$set": bson.M{"family": family, "updatedAt": time.Now().UTC()}}

	p, err := s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		if exists, cerr := s.exists(ctx, uuid); cerr != nil {
			return nil, cerr
		} else if exists {
			return nil, ErrFamilyExists
		}
	}
	return p, err
}

// AppendChild pushes child onto the family's children, preserving order.
func (s *MongoProfileStore) AppendChild(ctx context.Context, uuid string, child models.Account) (*models.Profile, error) {
	filter := bson.M{"uuid": uuid, "family": bson.M{"$exists": true, "$ne": nil}}
	update := bson.M{
		"$push": bson.M{"family.children": child},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	p, err := s.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		if exists, cerr := s.exists(ctx, uuid); cerr != nil {
			return nil, cerr
		} else if exists {
			return nil, ErrNoFamily
		}
	}
	return p, err
}

func (s *MongoProfileStore) ListWithoutFamily(ctx context.Context) ([]models.Profile, error) {
	return s.find(ctx, bson.M{"$or": noFamilyFilter})
}

func (s *MongoProfileStore) ListParentWithoutChildren(ctx context.Context) ([]models.Profile, error) {
	return s.find(ctx, parentNoChildFilter)
}

func (s *MongoProfileStore) exists(ctx context.Context, uuid string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"uuid": uuid}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *MongoProfileStore) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*models.Profile, error) {
	var p models.Profile
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MongoProfileStore) find(ctx context.Context, filter bson.M) ([]models.Profile, error) {
	cursor, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	profiles := []models.Profile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
