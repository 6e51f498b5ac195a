// Package objpool implements the timed object pool: a store that holds a
// relayed object only long enough for slow peers to request it, plus a
// bounded record of which object hashes have already been relayed so an
// object is never relayed twice.
package objpool

import (
	"sync"
	"time"

	"github.com/mattcorallo/relaynode/internal/fifoset"
	"github.com/mattcorallo/relaynode/internal/invitem"
)

// entry pairs a stored object with the time at which it should be
// forgotten.
type entry[T invitem.Relayable] struct {
	obj      T
	expireAt time.Time
}

// Pool holds recently relayed objects for a short window and remembers,
// with bounded memory, which objects have already been relayed at all.
//
// T is one of invitem.Block or invitem.Transaction; both satisfy
// invitem.Relayable.
type Pool[T invitem.Relayable] struct {
	mu      sync.Mutex
	objects map[invitem.Item]entry[T]
	relayed *fifoset.Set[invitem.Item]

	ttl        time.Duration
	sweepEvery time.Duration

	// pushToTrusted is called by Provide on every call, regardless of
	// whether the object's hash is already in relayed: the trusted
	// outbound group must never wait on this node's own validation of
	// an object it only just received (§4.3).
	pushToTrusted func(obj T)

	stop chan struct{}
	wg   sync.WaitGroup
}

// New creates a Pool. relayedCapacity bounds the "already relayed" set
// (100 for blocks, 10000 for transactions, per the object pool's stated
// caps). ttl is how long a provided object is kept before being forgotten
// (60s); sweepEvery is how often expired entries are swept (1s).
// pushToTrusted, if non-nil, is invoked from Provide with every object
// handed to the pool, so it can be forwarded to the trusted outbound
// group ahead of (and independent of) this node's own header/mempool
// validation.
func New[T invitem.Relayable](relayedCapacity int, ttl, sweepEvery time.Duration, pushToTrusted func(obj T)) *Pool[T] {
	p := &Pool[T]{
		objects:       make(map[invitem.Item]entry[T]),
		relayed:       fifoset.New[invitem.Item](relayedCapacity),
		ttl:           ttl,
		sweepEvery:    sweepEvery,
		pushToTrusted: pushToTrusted,
		stop:          make(chan struct{}),
	}
	p.wg.Add(1)
	go p.sweepLoop()
	return p
}

// Close stops the background eviction goroutine.
func (p *Pool[T]) Close() {
	close(p.stop)
	p.wg.Wait()
}

// AlreadyRelayed reports whether item has already been relayed by this
// pool, ever (subject to the bounded "relayed" set's own eviction).
func (p *Pool[T]) AlreadyRelayed(item invitem.Item) bool {
	return p.relayed.Contains(item)
}

// MarkRelayed records that item has now been relayed.
func (p *Pool[T]) MarkRelayed(item invitem.Item) {
	p.relayed.Add(item)
}

// Provide stores obj so that ShouldRequest/Fetch can see it until it
// expires, and pushes it to the trusted outbound group. The objects-map
// insert is a no-op when the object's hash is already in relayed (P6);
// the trusted push happens regardless, ahead of any further validation.
func (p *Pool[T]) Provide(obj T) {
	item := obj.InvItem()
	if !p.AlreadyRelayed(item) {
		p.mu.Lock()
		p.objects[item] = entry[T]{obj: obj, expireAt: time.Now().Add(p.ttl)}
		p.mu.Unlock()
	}
	if p.pushToTrusted != nil {
		p.pushToTrusted(obj)
	}
}

// ShouldRequest reports whether item is neither already relayed nor
// currently held in the pool, i.e. whether it is worth asking a peer for.
func (p *Pool[T]) ShouldRequest(item invitem.Item) bool {
	if p.AlreadyRelayed(item) {
		return false
	}
	p.mu.Lock()
	_, held := p.objects[item]
	p.mu.Unlock()
	return !held
}

// Fetch returns the held object for item, if any.
func (p *Pool[T]) Fetch(item invitem.Item) (obj T, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.objects[item]
	if !ok {
		var zero T
		return zero, false
	}
	return e.obj, true
}

func (p *Pool[T]) sweepLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(p.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.sweep()
		case <-p.stop:
			return
		}
	}
}

func (p *Pool[T]) sweep() {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.objects {
		if now.After(e.expireAt) {
			delete(p.objects, k)
		}
	}
}
