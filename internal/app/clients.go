package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/platform/gemini"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
	"github.com/yungbote/notion-ai-webhook/internal/platform/notion"
)

type Clients struct {
	Notion *notion.Client
	Gemini *gemini.Client
	// Redis is nil unless REDIS_ADDR is set.
	Redis redis.UniversalClient
}

func wireClients(ctx context.Context, log *logger.Logger, cfg config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	notionClient, err := notion.New(log, notion.Config{
		APIKey:  cfg.Notion.APIKey,
		BaseURL: cfg.Notion.BaseURL,
		Version: cfg.Notion.Version,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init notion client: %w", err)
	}

	geminiClient, err := gemini.New(ctx, log, gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init gemini client: %w", err)
	}

	var rdb redis.UniversalClient
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			// Runs proceed unguarded while redis is unreachable.
			log.Warn("redis ping failed; pipeline locks degraded", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
	}

	return Clients{
		Notion: notionClient,
		Gemini: geminiClient,
		Redis:  rdb,
	}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
