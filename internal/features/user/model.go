package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User mirrors the corporate directory entry we need for chain resolution.
// The directory itself is maintained elsewhere; this is a read-mostly copy.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"display_name" json:"display_name"`
	Department  string             `bson:"department" json:"department"`
	Company     string             `bson:"company" json:"company"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	IsSecurity  bool               `bson:"is_security" json:"is_security"` // Member of the company security/compliance group
	IsAdmin     bool               `bson:"is_admin" json:"is_admin"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`

	// Password is only ever set on inbound create requests; PasswordHash is
	// what gets stored.
	Password     string `bson:"-" json:"password,omitempty"`
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`
}
