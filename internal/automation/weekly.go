package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/notion-ai-webhook/internal/automation/prompts"
	"github.com/yungbote/notion-ai-webhook/internal/block"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/notion"
)

const (
	// EmptyWindowMessage replaces the report when no diary text was found.
	EmptyWindowMessage = "対象期間の日記が見つかりませんでした。"

	dateLayout = "2006-01-02"
)

// Window is the inclusive date range a weekly report covers.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) StartDate() string { return w.Start.Format(dateLayout) }
func (w Window) EndDate() string   { return w.End.Format(dateLayout) }

// Title is the name of the report page created for w.
func (w Window) Title() string {
	return fmt.Sprintf("週次レポート (%s ~ %s)", w.StartDate(), w.EndDate())
}

// ReportWindow ends on the calendar day of now in loc and starts days earlier.
func ReportWindow(now time.Time, loc *time.Location, days int) Window {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: today.AddDate(0, 0, -days), End: today}
}

// EntryText formats one diary page's contribution to the aggregate.
func EntryText(pageID, text string) string {
	return fmt.Sprintf("\n--- Diary Entry (%s) ---\n%s\n", pageID, text)
}

// RunWeeklyReport rebuilds reportPageID from the diary entries of the trailing
// window and files a copy as a new page in the report database.
func (s *Service) RunWeeklyReport(ctx context.Context, reportPageID string) (err error) {
	ctx, span := observability.StartSpan(ctx, "automation.weekly-report",
		attribute.String("automation", string(KindWeeklyReport)),
		attribute.String("page_id", reportPageID),
	)
	defer func() { observability.EndSpan(span, err) }()

	wc := s.cfg.Weekly
	window := ReportWindow(s.now(), wc.Location, wc.WindowDays)
	log := s.log.With("automation", KindWeeklyReport, "page_id", reportPageID, "window_start", window.StartDate(), "window_end", window.EndDate())

	instruction, err := s.prompts.Get(prompts.WeeklyReport)
	if err != nil {
		return err
	}

	entries, err := s.store.QueryDatabase(ctx, wc.DiaryDatabaseID, notion.DateRangeQuery{
		Property:   wc.DateProperty,
		OnOrAfter:  window.StartDate(),
		OnOrBefore: window.EndDate(),
		Direction:  notion.Ascending,
	})
	if err != nil {
		return fmt.Errorf("query diary database: %w", err)
	}
	log.Info("diary entries found", "entries", len(entries))

	aggregate, err := s.collectEntries(ctx, entries)
	if err != nil {
		return err
	}

	if aggregate == "" {
		log.Info("no diary content in window")
		if err := s.clearPage(ctx, reportPageID); err != nil {
			return err
		}
		if err := s.store.AppendBlocks(ctx, reportPageID, []block.Block{block.NewParagraph(EmptyWindowMessage)}); err != nil {
			return fmt.Errorf("append empty notice: %w", err)
		}
		return nil
	}

	out, err := s.generate(ctx, KindWeeklyReport, s.cfg.Models.Flash, BuildRequest(instruction, []string{aggregate}))
	if err != nil {
		return err
	}
	if err := s.clearPage(ctx, reportPageID); err != nil {
		return err
	}
	if err := s.store.AppendBlocks(ctx, reportPageID, out); err != nil {
		return fmt.Errorf("append report: %w", err)
	}

	page, err := s.store.CreatePage(ctx, notion.NewPage{
		DatabaseID:    wc.ReportDatabaseID,
		TitleProperty: wc.TitleProperty,
		Title:         window.Title(),
		DateProperty:  wc.DateProperty,
		Date:          window.EndDate(),
		Children:      out,
	})
	if err != nil {
		// The in-place report is already written and stays.
		log.Error("create report page failed", "error", err)
		return nil
	}
	log.Info("report page created", "report_page_id", page.ID, "url", page.URL)
	return nil
}

// collectEntries fetches every entry with bounded concurrency and joins the
// non-blank ones in query order. A failed fetch skips that entry.
func (s *Service) collectEntries(ctx context.Context, entries []notion.PageSummary) (string, error) {
	texts := make([]string, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Weekly.FetchConcurrency)
	for i, entry := range entries {
		g.Go(func() error {
			blocks, err := s.store.FetchBlocks(gctx, entry.ID)
			if err != nil {
				observability.Current().IncWeeklySkippedPage()
				s.log.Warn("skipping diary entry; fetch failed", "entry_id", entry.ID, "error", err)
				return nil
			}
			page := block.Page{ID: entry.ID, Blocks: blocks}
			if page.IsBlank() {
				return nil
			}
			texts[i] = page.Text()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	for i, entry := range entries {
		if texts[i] == "" {
			continue
		}
		sb.WriteString(EntryText(entry.ID, texts[i]))
	}
	return sb.String(), nil
}
