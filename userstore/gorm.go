package userstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserRecord is the persisted user row. Only the columns the validator
// reads are mapped; the owning application manages the rest of the table.
type UserRecord struct {
	ID         string `gorm:"primarykey;size:64"`
	Email      string `gorm:"size:255;uniqueIndex"`
	Role       string `gorm:"size:32"`
	IsVerified bool
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName keeps the table shared with the owning application.
func (UserRecord) TableName() string {
	return "users"
}

// GormStore implements Store against the relational user table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a gorm-backed user store.
func NewGormStore(gdb *gorm.DB) *GormStore {
	return &GormStore{db: gdb}
}

// FindUserByID looks up a user by primary key.
func (s *GormStore) FindUserByID(ctx context.Context, id string) (*User, error) {
	var record UserRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &User{
		ID:         record.ID,
		Email:      record.Email,
		Role:       record.Role,
		IsVerified: record.IsVerified,
		IsActive:   record.IsActive,
	}, nil
}

var _ Store = (*GormStore)(nil)
