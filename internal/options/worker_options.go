package options

// WorkerOptions controls the asynchronous processing pool (§5) that runs
// relay-log writes and relay-peer block sends off peer I/O goroutines.
type WorkerOptions struct {
	// Workers is the number of worker goroutines.
	Workers int

	// QueueDepth is how many queued jobs are allowed to back up before
	// Submit blocks its caller.
	QueueDepth int
}

// NewWorkerOptions creates WorkerOptions with the relay node's standard
// pool size.
func NewWorkerOptions() *WorkerOptions {
	return &WorkerOptions{
		Workers:    8,
		QueueDepth: 256,
	}
}
