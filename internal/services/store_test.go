package services

import (
	"context"
	"math"
	"testing"

	"github.com/AnshRaj112/profilefarm-backend/internal/config"
	"github.com/AnshRaj112/profilefarm-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var poolRange = config.PortRange{Min: 10200, Max: 10300}

func TestNextPortBlock(t *testing.T) {
	tests := []struct {
		name    string
		highest int
		found   bool
		count   int
		want    int
		wantErr error
	}{
		{"empty pool starts at min", 0, false, 3, 10200, nil},
		{"continues after highest", 10210, true, 2, 10211, nil},
		{"stale port below range restarts at min", 8000, true, 1, 10200, nil},
		{"block ends exactly at max", 10298, true, 2, 10299, nil},
		{"block crosses max", 10299, true, 2, 0, ErrPortRangeExhausted},
		{"range already full", 10300, true, 1, 0, ErrPortRangeExhausted},
		{"zero count", 0, false, 0, 0, ErrInvalidCount},
		{"huge count does not wrap", 10250, true, math.MaxInt, 0, ErrPortRangeExhausted},
		{"huge count on empty pool", 0, false, math.MaxInt, 0, ErrPortRangeExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextPortBlock(tt.highest, tt.found, tt.count, poolRange)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func proxyDoc(port int, used bool) bson.D {
	return bson.D{
		{Key: "_id", Value: primitive.NewObjectID()},
		{Key: "host", Value: "proxy.example.net"},
		{Key: "port", Value: port},
		{Key: "username", Value: "user"},
		{Key: "password", Value: "secret"},
		{Key: "isUsed", Value: used},
	}
}

func TestMongoProxyStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "profilefarm." + ProxiesCollection

	mt.Run("generate continues after highest port", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, proxyDoc(10205, true)),
			mtest.CreateSuccessResponse(),
		)

		got, err := store.Generate(context.Background(), 2, testProxy)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 10206, got[0].Port)
		assert.Equal(t, 10207, got[1].Port)
		assert.False(t, got[0].IsUsed)
		assert.Equal(t, "proxy.example.net", got[1].Host)
	})

	mt.Run("generate on empty pool starts at min", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		got, err := store.Generate(context.Background(), 1, testProxy)
		require.NoError(t, err)
		assert.Equal(t, 10200, got[0].Port)
	})

	mt.Run("generate past ceiling inserts nothing", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, proxyDoc(10300, false)))

		_, err := store.Generate(context.Background(), 1, testProxy)
		assert.ErrorIs(t, err, ErrPortRangeExhausted)
	})

	mt.Run("claim unused", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: proxyDoc(10200, true)}))

		p, err := store.ClaimUnused(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10200, p.Port)
		assert.True(t, p.IsUsed)
	})

	mt.Run("claim unused on exhausted pool", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := store.ClaimUnused(context.Background())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("claim by host and port", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		ok, err := store.ClaimByHostPort(context.Background(), "proxy.example.net", 10200)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.ClaimByHostPort(context.Background(), "proxy.example.net", 10200)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	mt.Run("find by host and port miss", func(mt *mtest.T) {
		store := &MongoProxyStore{col: mt.Coll, ports: poolRange}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.FindByHostPort(context.Background(), "nope", 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMongoProfileStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "profilefarm." + ProfilesCollection

	mt.Run("used ports", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		portDoc := func(port string) bson.D {
			return bson.D{{Key: "network", Value: bson.D{{Key: "proxy", Value: bson.D{{Key: "port", Value: port}}}}}}
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			portDoc("10200"), portDoc("10203"), portDoc("not-a-port"),
		))

		used, err := store.UsedPorts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[int]struct{}{10200: {}, 10203: {}}, used)
	})

	mt.Run("used ports fails on undecodable profile", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "network", Value: "not-a-document"}},
		))

		_, err := store.UsedPorts(context.Background())
		assert.Error(t, err)
	})

	mt.Run("insert stamps pending", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &models.Profile{Name: "p"}
		require.NoError(t, store.Insert(context.Background(), p))
		assert.False(t, p.ID.IsZero())
		assert.False(t, p.CreatedAt.IsZero())
		assert.Equal(t, models.ProfileStatusPending, p.Status)
	})

	mt.Run("attach family when one exists", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		_, err := store.AttachFamily(context.Background(), "ext-1", models.Family{})
		assert.ErrorIs(t, err, ErrFamilyExists)
	})

	mt.Run("attach family on unknown profile", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := store.AttachFamily(context.Background(), "missing", models.Family{})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	mt.Run("append child without family", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		_, err := store.AppendChild(context.Background(), "ext-1", models.Account{Email: "c@example.com"})
		assert.ErrorIs(t, err, ErrNoFamily)
	})

	mt.Run("mark registered on unknown id", func(mt *mtest.T) {
		store := &MongoProfileStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := store.MarkRegistered(context.Background(), primitive.NewObjectID(), "ext-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMongoFamilyStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create fills defaults", func(mt *mtest.T) {
		store := &MongoFamilyStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		f := &models.Family{Name: "f"}
		require.NoError(t, store.Create(context.Background(), f))
		assert.False(t, f.ID.IsZero())
		assert.NotNil(t, f.Children)
	})

	mt.Run("append child to unknown family", func(mt *mtest.T) {
		store := &MongoFamilyStore{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := store.AppendChild(context.Background(), primitive.NewObjectID(), models.Account{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates both collections' indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		assert.NoError(t, EnsureIndexes(context.Background(), mt.DB))
	})

	mt.Run("reports driver errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    85,
			Name:    "IndexOptionsConflict",
			Message: "index options conflict",
		}))
		assert.Error(t, EnsureIndexes(context.Background(), mt.DB))
	})
}
