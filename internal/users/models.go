package users

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authenticated caller's role, as carried in the JWT.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganiser Role = "organiser"
	RoleCustomer  Role = "customer"
	RolePOS       Role = "pos"
)

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOrganiser, RoleCustomer, RolePOS:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User is the read-only view of an account this engine needs: identity and
// contact details for gateway orders and booking rows. Account management
// lives elsewhere.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `gorm:"type:varchar(20);default:'customer'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for User
func (User) TableName() string {
	return "users"
}
