package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/notion-ai-webhook/internal/automation/prompts"
	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/gemini"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

// Models names the generation model per tier. Diary and weekly use Flash,
// review uses Pro.
type Models struct {
	Flash string
	Pro   string
}

// WeeklyConfig parameterises the weekly report. Property names belong to the
// queried databases, so they come from configuration.
type WeeklyConfig struct {
	DiaryDatabaseID  string
	ReportDatabaseID string
	DateProperty     string
	TitleProperty    string
	WindowDays       int
	FetchConcurrency int
	Location         *time.Location
}

type Config struct {
	Models Models
	Weekly WeeklyConfig
}

type Service struct {
	log     *logger.Logger
	store   PageStore
	gen     Generator
	prompts *prompts.Set
	cfg     Config
	now     func() time.Time
}

func NewService(log *logger.Logger, store PageStore, gen Generator, set *prompts.Set, cfg Config) (*Service, error) {
	if store == nil || gen == nil {
		return nil, errors.New("automation: page store and generator required")
	}
	if set == nil {
		return nil, errors.New("automation: prompt set required")
	}
	if cfg.Weekly.WindowDays <= 0 {
		cfg.Weekly.WindowDays = 7
	}
	if cfg.Weekly.FetchConcurrency <= 0 {
		cfg.Weekly.FetchConcurrency = 4
	}
	if cfg.Weekly.Location == nil {
		cfg.Weekly.Location = time.Local
	}
	return &Service{
		log:     log.With("service", "AutomationService"),
		store:   store,
		gen:     gen,
		prompts: set,
		cfg:     cfg,
		now:     time.Now,
	}, nil
}

// Run dispatches to the pipeline for kind.
func (s *Service) Run(ctx context.Context, kind Kind, pageID string) error {
	switch kind {
	case KindDiary:
		return s.RunDiary(ctx, pageID)
	case KindReview:
		return s.RunReview(ctx, pageID)
	case KindWeeklyReport:
		return s.RunWeeklyReport(ctx, pageID)
	}
	return fmt.Errorf("automation: unknown kind %q", kind)
}

// RunDiary appends generated feedback to the diary page that triggered it.
func (s *Service) RunDiary(ctx context.Context, pageID string) error {
	return s.runSinglePage(ctx, KindDiary, prompts.Diary, s.cfg.Models.Flash, pageID)
}

// RunReview appends a generated review to the page that triggered it.
func (s *Service) RunReview(ctx context.Context, pageID string) error {
	return s.runSinglePage(ctx, KindReview, prompts.Review, s.cfg.Models.Pro, pageID)
}

func (s *Service) runSinglePage(ctx context.Context, kind Kind, promptName, model, pageID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "automation."+string(kind),
		attribute.String("automation", string(kind)),
		attribute.String("page_id", pageID),
	)
	defer func() { observability.EndSpan(span, err) }()

	instruction, err := s.prompts.Get(promptName)
	if err != nil {
		return err
	}
	blocks, err := s.store.FetchBlocks(ctx, pageID)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	parts := block.TextParts(blocks)
	s.log.Debug("page text extracted", "automation", kind, "page_id", pageID, "blocks", len(blocks), "parts", len(parts))

	out, err := s.generate(ctx, kind, model, BuildRequest(instruction, parts))
	if err != nil {
		return err
	}
	if err := s.store.AppendBlocks(ctx, pageID, out); err != nil {
		return fmt.Errorf("append blocks: %w", err)
	}
	s.log.Info("generated blocks appended", "automation", kind, "page_id", pageID, "blocks", len(out))
	return nil
}

// generate calls the model and returns writable blocks: decoded output with
// unknown kinds dropped, or the fallback heading.
func (s *Service) generate(ctx context.Context, kind Kind, model string, req *gemini.Request) ([]block.Block, error) {
	resp, err := s.gen.Generate(ctx, model, req)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	blocks, fallback, err := decodeBlocks(resp)
	if err != nil {
		return nil, err
	}
	m := observability.Current()
	if fallback {
		m.IncFallback(string(kind))
		s.log.Warn("generated text is not a block array; writing fallback", "automation", kind, "model", model)
		return blocks, nil
	}
	kept, dropped := block.Supported(blocks)
	if dropped > 0 {
		m.AddDroppedBlocks(string(kind), dropped)
		s.log.Warn("dropped generated blocks of unknown kind", "automation", kind, "dropped", dropped)
	}
	// Blocks that decode may still be unwritable, e.g. a span of unknown type.
	if _, err := block.EncodeList(kept); err != nil {
		m.IncFallback(string(kind))
		s.log.Warn("generated blocks cannot be encoded; writing fallback", "automation", kind, "model", model, "error", err)
		return FallbackBlocks(), nil
	}
	return kept, nil
}
