package storage

import "assetpool/internal/model"

// Journal is an append-only sink for committed operation events.
type Journal interface {
	Append(ev model.Event) error
}
