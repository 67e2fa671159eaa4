package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/notion-ai-webhook/internal/data/repos/runs"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type AutomationRunRepo = runs.AutomationRunRepo

type Repos struct {
	AutomationRun AutomationRunRepo
}

func New(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		AutomationRun: runs.NewAutomationRunRepo(db, log),
	}
}
