package asyncpool

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmitRunsJobs(t *testing.T) {
	p := New(2, 4)
	defer p.Close()

	var count int32
	for i := 0; i < 10; i++ {
		p.Submit(func() {
			atomic.AddInt32(&count, 1)
		})
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) == 10
	}, time.Second, time.Millisecond)
}

func TestPanicInJobDoesNotKillWorker(t *testing.T) {
	p := New(1, 2)
	defer p.Close()

	p.Submit(func() { panic("boom") })

	var ran int32
	p.Submit(func() { atomic.StoreInt32(&ran, 1) })

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&ran) == 1
	}, time.Second, time.Millisecond)
}
