package classify

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/postguard/internal/gate"
	"github.com/dshills/postguard/internal/risk"
)

// Analyzer is anything that classifies text.
type Analyzer interface {
	Classify(ctx context.Context, text string) (risk.Analysis, error)
}

// Deduped collapses concurrent requests for texts with the same
// gate.TextKey into a single call. Waiters share the first caller's result
// and context.
type Deduped struct {
	next  Analyzer
	group singleflight.Group
}

// NewDeduped wraps next.
func NewDeduped(next Analyzer) *Deduped {
	return &Deduped{next: next}
}

func (d *Deduped) Classify(ctx context.Context, text string) (risk.Analysis, error) {
	v, err, _ := d.group.Do(gate.TextKey(text), func() (any, error) {
		return d.next.Classify(ctx, text)
	})
	if err != nil {
		return risk.Analysis{}, err
	}
	return v.(risk.Analysis), nil
}
