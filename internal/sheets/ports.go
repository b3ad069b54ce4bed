// Package sheets defines the outbound port for tabular expense feeds.
package sheets

import (
	"context"

	"pcfdash/internal/core"
)

// RowSource is a tabular expense feed. A source returns fully ingested
// rows; callers never see the wire format.
type RowSource interface {
	// Name identifies the source. Dedicated per-cluster sources use the
	// cluster key; the shared pool uses "shared".
	Name() string
	// Fetch retrieves and ingests the current row set.
	Fetch(ctx context.Context) ([]core.Row, error)
}
