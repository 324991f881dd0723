package chat

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// UnseenCounts computes, per candidate sender, how many of their messages
// the viewer has not seen yet. One store query fans out per candidate and
// the results fan in to a single map; candidates with a zero count are
// omitted. The map is only returned once every candidate has been counted.
func (s *Service) UnseenCounts(ctx context.Context, viewerID string, candidates []string) (map[string]int, error) {
	counts := make(map[string]int, len(candidates))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, candidate := range candidates {
		g.Go(func() error {
			n, err := s.store.CountUnseen(ctx, candidate, viewerID)
			if err != nil {
				return fmt.Errorf("counting unseen from %s: %w", candidate, err)
			}
			if n > 0 {
				mu.Lock()
				counts[candidate] = n
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
