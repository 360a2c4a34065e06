package membership

import (
	"fmt"

	"gorm.io/gorm"

	"universe-planner/internal/model"
)

// Migrate creates the link table and the partial index that allows a single
// primary link per owner kind and target.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.MembershipLink{}); err != nil {
		return fmt.Errorf("migrate membership links: %w", err)
	}
	const stmt = `CREATE UNIQUE INDEX IF NOT EXISTS idx_membership_one_primary
		ON membership_links (owner_kind, target_kind, target_id) WHERE is_primary = 1`
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create primary index: %w", err)
	}
	return nil
}
