package storage

import "feedscope/internal/model"

// Storage defines a sink for resolved price history.
type Storage interface {
	PutPriceBatch(prices []model.ResolvedPrice) error
}
