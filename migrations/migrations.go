package migrations

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options параметризують міграції, що залежать від конфігурації
type Options struct {
	OverseerKey string
	Sentinel    string
}

type step struct {
	name string
	up   func(tx *gorm.DB) error
}

// Run застосовує всі міграції по черзі в одній транзакції
func Run(db *gorm.DB, opts Options) error {
	steps := []step{
		{name: "create_department_memberships_table", up: CreateDepartmentMembershipsTable},
		{name: "seed_department_keys", up: func(tx *gorm.DB) error {
			return SeedDepartmentKeys(tx, opts.OverseerKey, opts.Sentinel)
		}},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range steps {
			logrus.WithField("migration", s.name).Info("Applying migration")
			if err := s.up(tx); err != nil {
				return fmt.Errorf("migration %s failed: %w", s.name, err)
			}
		}
		return nil
	})
}
