package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/notion-ai-webhook/internal/domain/runs"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&runs.AutomationRun{},
	)
}
