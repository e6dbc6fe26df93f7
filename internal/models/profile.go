package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProfileStatus tracks registration with the external profile service.
// Valid values: "pending", "registered".
type ProfileStatus string

const (
	ProfileStatusPending    ProfileStatus = "pending"
	ProfileStatusRegistered ProfileStatus = "registered"
)

// Navigator holds the browser fingerprint attributes of a profile.
type Navigator struct {
	UserAgent           string `bson:"userAgent" json:"userAgent"`
	Resolution          string `bson:"resolution" json:"resolution"`
	Language            string `bson:"language" json:"language"`
	Platform            string `bson:"platform" json:"platform"`
	DoNotTrack          int    `bson:"doNotTrack" json:"doNotTrack"`
	HardwareConcurrency int    `bson:"hardwareConcurrency" json:"hardwareConcurrency"`
}

// NetworkProxy is the proxy block sent to the profile service. Port is a
// string because that is what the service expects.
type NetworkProxy struct {
	Type     string `bson:"type" json:"type"`
	Host     string `bson:"host" json:"host"`
	Port     string `bson:"port" json:"port"`
	Username string `bson:"username" json:"username"`
	Password string `bson:"password" json:"password"`
}

type Network struct {
	Proxy NetworkProxy `bson:"proxy" json:"proxy"`
}

// Profile is a browser fingerprint configuration bound to a proxy.
// UUID is assigned by the external profile service and stays empty while
// the profile is pending.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	UUID      string        `bson:"uuid,omitempty" json:"uuid,omitempty"`
	Name      string        `bson:"name" json:"name"`
	Notes     string        `bson:"notes" json:"notes"`
	Navigator Navigator     `bson:"navigator" json:"navigator"`
	Network   Network       `bson:"network" json:"network"`
	OS        string        `bson:"os" json:"os"`
	Status    ProfileStatus `bson:"status" json:"status"`

	// At most one embedded family per profile
	Family *Family `bson:"family,omitempty" json:"family,omitempty"`
}

// RegistrationPayload is the body posted to the profile service.
type RegistrationPayload struct {
	Name      string    `json:"name"`
	Notes     string    `json:"notes"`
	Navigator Navigator `json:"navigator"`
	Network   Network   `json:"network"`
	OS        string    `json:"os"`
}

// Payload returns the subset of the profile the external service accepts.
func (p *Profile) Payload() RegistrationPayload {
	return RegistrationPayload{
		Name:      p.Name,
		Notes:     p.Notes,
		Navigator: p.Navigator,
		Network:   p.Network,
		OS:        p.OS,
	}
}
