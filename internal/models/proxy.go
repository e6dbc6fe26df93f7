package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Proxy is one egress endpoint in the pool. IsUsed flips to true once,
// when a profile is bound to it.
type Proxy struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	Host     string `bson:"host" json:"host"`
	Port     int    `bson:"port" json:"port"`
	Username string `bson:"username" json:"username"`
	Password string `bson:"password" json:"password"`

	IsUsed bool `bson:"isUsed" json:"isUsed"`
}
