package app

import (
	"fmt"

	"github.com/yungbote/notion-ai-webhook/internal/automation"
	"github.com/yungbote/notion-ai-webhook/internal/automation/prompts"
	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/data/repos"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
	"github.com/yungbote/notion-ai-webhook/internal/platform/redislock"
)

type Services struct {
	Automation *automation.Service
	Runner     *automation.Runner
}

func wireServices(log *logger.Logger, cfg config.Config, clients Clients, reposet *repos.Repos) (Services, error) {
	log.Info("Wiring services...")

	set, err := prompts.Load(cfg.PromptsDir)
	if err != nil {
		return Services{}, fmt.Errorf("load prompts: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return Services{}, err
	}

	svc, err := automation.NewService(log, clients.Notion, clients.Gemini, set, automation.Config{
		Models: automation.Models{
			Flash: cfg.Gemini.FlashModel,
			Pro:   cfg.Gemini.ProModel,
		},
		Weekly: automation.WeeklyConfig{
			DiaryDatabaseID:  cfg.Notion.DiaryDBID,
			ReportDatabaseID: cfg.Notion.ReportDBID,
			DateProperty:     cfg.Weekly.DateProperty,
			TitleProperty:    cfg.Weekly.TitleProperty,
			WindowDays:       cfg.Weekly.WindowDays,
			FetchConcurrency: cfg.Weekly.FetchConcurrency,
			Location:         loc,
		},
	})
	if err != nil {
		return Services{}, fmt.Errorf("init automation service: %w", err)
	}

	var opts []automation.RunnerOption
	if clients.Redis != nil {
		opts = append(opts, automation.WithLocker(redislock.New(clients.Redis), cfg.Redis.LockTTL))
	}
	if reposet != nil && reposet.AutomationRun != nil {
		opts = append(opts, automation.WithLedger(reposet.AutomationRun))
	}

	return Services{
		Automation: svc,
		Runner:     automation.NewRunner(log, svc, opts...),
	}, nil
}
