package migrations

import (
	"cad-auth/internal/services"

	"gorm.io/gorm"
)

// CreateDepartmentMembershipsTable створює таблицю department_memberships
func CreateDepartmentMembershipsTable(tx *gorm.DB) error {
	return tx.AutoMigrate(&services.Membership{})
}

// DropDepartmentMembershipsTable видаляє таблицю department_memberships
func DropDepartmentMembershipsTable(tx *gorm.DB) error {
	return tx.Migrator().DropTable(services.Membership{}.TableName())
}
