package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/data/db"
	"github.com/yungbote/notion-ai-webhook/internal/data/repos"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

// wireLedger opens the run ledger. Both results are nil when it is disabled.
func wireLedger(log *logger.Logger, cfg config.Config) (*gorm.DB, *repos.Repos, error) {
	if cfg.Ledger.Driver == "" {
		log.Info("Run ledger disabled")
		return nil, nil, nil
	}
	log.Info("Wiring run ledger...", "driver", cfg.Ledger.Driver)
	gdb, err := db.Open(log, db.Config{Driver: cfg.Ledger.Driver, DSN: cfg.Ledger.DSN})
	if err != nil {
		return nil, nil, fmt.Errorf("open run ledger: %w", err)
	}
	reposet := repos.New(gdb, log)
	return gdb, &reposet, nil
}
