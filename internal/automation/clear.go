package automation

import (
	"context"
	"fmt"
)

// preservedKinds survive a page clear: deleting them would destroy embedded
// databases or page controls.
var preservedKinds = map[string]bool{
	"child_database": true,
	"button":         true,
}

// clearPage deletes every top-level block of pageID except preserved kinds.
// The first failed delete stops the clear and is returned.
func (s *Service) clearPage(ctx context.Context, pageID string) error {
	refs, err := s.store.ListBlockIDs(ctx, pageID)
	if err != nil {
		return fmt.Errorf("clear page: list blocks: %w", err)
	}
	deleted := 0
	for _, ref := range refs {
		if preservedKinds[ref.Type] {
			s.log.Debug("keeping block during clear", "page_id", pageID, "block_id", ref.ID, "type", ref.Type)
			continue
		}
		if err := s.store.DeleteBlock(ctx, ref.ID); err != nil {
			s.log.Error("delete block failed; aborting clear", "page_id", pageID, "block_id", ref.ID, "deleted", deleted, "error", err)
			return fmt.Errorf("clear page: delete %s: %w", ref.ID, err)
		}
		deleted++
	}
	s.log.Info("page cleared", "page_id", pageID, "deleted", deleted, "kept", len(refs)-deleted)
	return nil
}
