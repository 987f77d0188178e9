package guest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/pinned-runtime/container"
)

// InitBatch creates one source per activity concurrently, bounded by the
// engine's BatchConcurrency. alloc must hand out independent storage on every
// call, so a Borrowed allocator cannot be used. If any cell fails, the cells
// already created are dropped and the first error is returned.
func InitBatch[C container.Container[Cell]](ctx context.Context, inst *Instance, alloc container.Allocator[Cell, C], activities []int64) ([]Source[C], error) {
	out := make([]Source[C], len(activities))
	made := make([]bool, len(activities))

	g, gctx := errgroup.WithContext(ctx)
	if n := inst.cfg.BatchConcurrency; n > 0 {
		g.SetLimit(n)
	}
	for idx, activity := range activities {
		g.Go(func() error {
			// gctx only gates new work; guest calls use ctx so that a failed
			// sibling cannot close the instance under CloseOnContextDone.
			if gctx.Err() != nil {
				return nil
			}
			s, err := NewSource(ctx, inst, alloc, activity)
			if err != nil {
				return fmt.Errorf("cell %d: %w", idx, err)
			}
			out[idx] = s
			made[idx] = true
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		for _, ok := range made {
			if !ok {
				err = ctx.Err()
				break
			}
		}
	}
	if err != nil {
		dropped := 0
		for idx, ok := range made {
			if ok {
				out[idx].Close()
				dropped++
			}
		}
		Logger().Debug("cell batch failed", zap.Int("dropped", dropped), zap.Error(err))
		return nil, err
	}
	return out, nil
}
