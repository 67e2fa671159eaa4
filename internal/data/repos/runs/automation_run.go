package runs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/notion-ai-webhook/internal/domain/runs"
	"github.com/yungbote/notion-ai-webhook/internal/pkg/dbctx"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

const maxListLimit = 200

type AutomationRunRepo interface {
	Create(dbc dbctx.Context, run *types.AutomationRun) (*types.AutomationRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AutomationRun, error)
	ListRecent(dbc dbctx.Context, automation string, limit int) ([]*types.AutomationRun, error)
	MarkRunning(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	MarkFinished(dbc dbctx.Context, id uuid.UUID, status string, runErr error, at time.Time) error
}

type automationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAutomationRunRepo(db *gorm.DB, baseLog *logger.Logger) AutomationRunRepo {
	return &automationRunRepo{
		db:  db,
		log: baseLog.With("repo", "AutomationRunRepo"),
	}
}

func (r *automationRunRepo) Create(dbc dbctx.Context, run *types.AutomationRun) (*types.AutomationRun, error) {
	if run == nil {
		return nil, nil
	}
	if run.Status == "" {
		run.Status = types.StatusQueued
	}
	if err := dbc.DB(r.db).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// GetByID returns nil, nil when no row matches.
func (r *automationRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.AutomationRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.AutomationRun
	err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&out).Error
	if err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

// ListRecent returns the newest runs first, optionally for one automation.
func (r *automationRunRepo) ListRecent(dbc dbctx.Context, automation string, limit int) ([]*types.AutomationRun, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	q := dbc.DB(r.db).Order("created_at DESC").Limit(limit)
	if automation != "" {
		q = q.Where("automation = ?", automation)
	}
	out := []*types.AutomationRun{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *automationRunRepo) MarkRunning(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).Model(&types.AutomationRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.StatusRunning,
			"started_at": at,
			"updated_at": at,
		}).Error
}

func (r *automationRunRepo) MarkFinished(dbc dbctx.Context, id uuid.UUID, status string, runErr error, at time.Time) error {
	updates := map[string]interface{}{
		"status":      status,
		"finished_at": at,
		"updated_at":  at,
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	return dbc.DB(r.db).Model(&types.AutomationRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}
