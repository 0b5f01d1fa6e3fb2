package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Membership представляє запис членства в базі даних
type Membership struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName явно задає ім'я таблиці для GORM
func (Membership) TableName() string {
	return "department_memberships"
}

// gormMembershipStore реалізація MembershipStore поверх GORM
type gormMembershipStore struct {
	db *gorm.DB
}

// NewGormMembershipStore створює сховище членства на базі PostgreSQL
func NewGormMembershipStore(db *gorm.DB) MembershipStore {
	return &gormMembershipStore{db: db}
}

func (s *gormMembershipStore) Get(ctx context.Context, key string) (string, bool, error) {
	var m Membership
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: key %s: %v", ErrStoreLookup, key, err)
	}
	return m.Value, true, nil
}

func (s *gormMembershipStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// memoryMembershipStore - незмінне in-memory сховище для локальної розробки
type memoryMembershipStore struct {
	values map[string]string
}

// NewMemoryMembershipStore створює in-memory сховище зі списків ID
func NewMemoryMembershipStore(seed map[string][]string) (MembershipStore, error) {
	values := make(map[string]string, len(seed))
	for key, ids := range seed {
		if ids == nil {
			ids = []string{}
		}
		raw, err := json.Marshal(ids)
		if err != nil {
			return nil, fmt.Errorf("failed to encode seed for %s: %w", key, err)
		}
		values[key] = string(raw)
	}

	logrus.WithField("keys", len(values)).Info("In-memory membership store initialised")
	return &memoryMembershipStore{values: values}, nil
}

func (s *memoryMembershipStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *memoryMembershipStore) Ping(context.Context) error {
	return nil
}
