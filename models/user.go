package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role is the access level of a user
type Role string

// Roles a user can hold. Routes do not enforce them, callers self-police admin actions.
const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleAdmin
}

// User holds the structure for the user collection in mongo. The password hash is
// never serialized to JSON.
type User struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FullName string             `json:"fullName" bson:"fullName"`
	Email    string             `json:"email" bson:"email"`
	Username string             `json:"username" bson:"username"`
	Password string             `json:"-" bson:"password"`
	Role     Role               `json:"role" bson:"role"`
}
