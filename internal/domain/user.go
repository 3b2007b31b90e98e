package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type School struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Role         Role       `json:"role" gorm:"not null"`
	UserType     UserType   `json:"userType" gorm:"not null"`
	IsActive     bool       `json:"isActive" gorm:"not null"`
	SchoolID     *uuid.UUID `json:"schoolId" gorm:"type:uuid"`
	FirstName    *string    `json:"firstName"`
	LastName     *string    `json:"lastName"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NormalizeEmail is applied before every lookup and insert; email is the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserView is the redacted projection of a User that leaves the service. It
// never carries the password digest.
type UserView struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	UserType  UserType   `json:"userType"`
	FirstName *string    `json:"firstName"`
	LastName  *string    `json:"lastName"`
	SchoolID  *uuid.UUID `json:"schoolId"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		UserType:  u.UserType,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		SchoolID:  u.SchoolID,
	}
}

// UserSession records one authenticated login.
type UserSession struct {
	ID        uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID         `json:"userId" gorm:"type:uuid;not null;index"`
	IPAddress string            `json:"ipAddress" gorm:"not null"`
	UserAgent string            `json:"userAgent" gorm:"not null"`
	Metadata  datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	StartedAt time.Time         `json:"startedAt" gorm:"not null"`
	EndedAt   *time.Time        `json:"endedAt"`
}

// Origin describes where a login came from.
type Origin struct {
	IPAddress string
	UserAgent string
	RequestID string
	// ForwardedFor is the raw X-Forwarded-For chain, if any.
	ForwardedFor string
}

// Metadata returns the JSON column payload for a session.
func (o Origin) Metadata() datatypes.JSONMap {
	m := datatypes.JSONMap{}
	if o.RequestID != "" {
		m["requestId"] = o.RequestID
	}
	if o.ForwardedFor != "" {
		m["forwardedFor"] = o.ForwardedFor
	}
	return m
}
