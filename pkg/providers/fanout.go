package providers

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// GenerateAll fans the same prompt out to every generator in parallel
// and joins on all of them. There is no early return and no sibling
// cancellation: each worker converts its own failure (including the
// per-call timeout) into an error-tagged result and returns nil, so the
// aggregate always contains one entry per generator.
func GenerateAll(ctx context.Context, generators []Generator, prompt, instructions string, perCallTimeout time.Duration) map[string]string {
	results := make(map[string]string, len(generators))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	for _, g := range generators {
		g := g
		eg.Go(func() error {
			callCtx := egCtx
			if perCallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(egCtx, perCallTimeout)
				defer cancel()
			}
			out := SafeGenerate(callCtx, g, prompt, instructions)
			mu.Lock()
			results[g.Name()] = out
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait() // workers never return errors

	return results
}
