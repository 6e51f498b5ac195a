package options

import "time"

// PoolOptions controls the timed object pool (C3).
type PoolOptions struct {
	// ObjectTTL is how long a provided block or transaction is kept
	// available for slow peers before being forgotten.
	ObjectTTL time.Duration

	// SweepInterval is how often expired pool entries are evicted.
	SweepInterval time.Duration

	// BlockRelayedCapacity bounds the "already relayed" set for blocks.
	BlockRelayedCapacity int

	// TransactionRelayedCapacity bounds the "already relayed" set for
	// transactions.
	TransactionRelayedCapacity int
}

// NewPoolOptions creates a PoolOptions with the relay node's standard
// defaults: a 60 second hold, a 1 second sweep, a 100-block and
// 10000-transaction relayed-set cap.
func NewPoolOptions() *PoolOptions {
	return &PoolOptions{
		ObjectTTL:                  60 * time.Second,
		SweepInterval:              time.Second,
		BlockRelayedCapacity:       100,
		TransactionRelayedCapacity: 10000,
	}
}
