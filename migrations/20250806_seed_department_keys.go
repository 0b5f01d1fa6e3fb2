package migrations

import (
	"encoding/json"
	"fmt"

	"cad-auth/internal/models"
	"cad-auth/internal/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedDepartmentKeys створює записи для кожного ключа підрозділу та overseer-списку.
// Нові записи містять лише sentinel, наявні не змінюються.
func SeedDepartmentKeys(tx *gorm.DB, overseerKey, sentinel string) error {
	value, err := json.Marshal([]string{sentinel})
	if err != nil {
		return fmt.Errorf("failed to encode sentinel list: %w", err)
	}

	keys := make([]string, 0, len(models.Departments)+1)
	keys = append(keys, overseerKey)
	for _, d := range models.Departments {
		keys = append(keys, d.Key())
	}

	rows := make([]services.Membership, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, services.Membership{Key: key, Value: string(value)})
	}

	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
