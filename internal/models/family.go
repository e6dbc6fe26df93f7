package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account holds the credentials of one parent or child account.
// Nothing here is validated for format or uniqueness.
type Account struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	Name                string `bson:"name,omitempty" json:"name,omitempty"`
	Email               string `bson:"email" json:"email"`
	Password            string `bson:"password" json:"password"`
	Phone               string `bson:"phone" json:"phone"`
	Address             string `bson:"address,omitempty" json:"address,omitempty"`
	ReferralLink        string `bson:"referralLink,omitempty" json:"referralLink,omitempty"`
	MultiLoginProfileID string `bson:"multiLoginProfileId,omitempty" json:"multiLoginProfileId,omitempty"`
}

// Family groups one parent account with its children. The same shape is
// embedded in a profile and stored on its own in the families collection;
// the embedded copy has no ID.
type Family struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`

	Name     string    `bson:"name,omitempty" json:"name,omitempty"`
	Parent   Account   `bson:"parent" json:"parent"`
	Children []Account `bson:"children" json:"children"`

	SMSPoolOrderID      string `bson:"smsPoolOrderId,omitempty" json:"smsPoolOrderId,omitempty"`
	ReferralLink        string `bson:"referralLink,omitempty" json:"referralLink,omitempty"`
	MultiLoginProfileID string `bson:"multiLoginProfileId,omitempty" json:"multiLoginProfileId,omitempty"`
}

// NewAccount stamps a fresh id and creation time on a.
func NewAccount(a Account) Account {
	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()
	return a
}
