package notify

import (
	"sync"
	"time"
)

type jobKind int

const (
	deliver jobKind = iota
	stopWorker
)

type job struct {
	kind jobKind
	run  func()
}

type workerMeta struct {
	ch        chan job
	lastUsed  time.Time
	enqueued  bool // is in the idle queue
	discarded bool // is targeted as delete
}

// deliveryPool bounds concurrent notification sends. Workers are spawned on
// demand up to max and idle ones past min are retired after the expiry.
type deliveryPool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	idle     []*workerMeta
	metadata map[chan job]*workerMeta
	min      int
	max      int
	running  int
	expiry   time.Duration
}

const defaultWorkerIdle = 30 * time.Second

func newDeliveryPool(minWorkers, maxWorkers int, idle time.Duration) *deliveryPool {
	if minWorkers < 0 {
		minWorkers = 0
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers < minWorkers {
		maxWorkers = minWorkers
	}
	if idle <= 0 {
		idle = defaultWorkerIdle
	}
	p := &deliveryPool{
		metadata: make(map[chan job]*workerMeta),
		min:      minWorkers,
		max:      maxWorkers,
		expiry:   idle,
	}
	p.cond = sync.NewCond(&p.mu)
	go p.purgeStaleWorkers()
	return p
}

// submit hands one send task to a worker, blocking while the pool is at max
// and every worker is busy.
func (p *deliveryPool) submit(run func()) {
	ch := p.acquire()
	ch <- job{kind: deliver, run: run}
}

// acquire gets an idle worker, or spawns a new one
func (p *deliveryPool) acquire() chan job {
	for {
		p.mu.Lock()
		if meta := p.popIdleLocked(); meta != nil {
			p.mu.Unlock()
			return meta.ch
		}
		if p.running < p.max {
			meta := &workerMeta{ch: make(chan job)}
			p.metadata[meta.ch] = meta
			p.running++
			p.mu.Unlock()
			p.startWorker(meta)
			continue
		}
		p.cond.Wait()
		p.mu.Unlock()
	}
}

func (p *deliveryPool) startWorker(meta *workerMeta) {
	go func() {
		for jb := range meta.ch {
			if jb.kind == stopWorker {
				p.retire(meta.ch)
				return
			}
			jb.run()
			p.release(meta.ch)
		}
	}()
}

// release puts a worker back into the idle queue
func (p *deliveryPool) release(ch chan job) {
	p.mu.Lock()
	meta, ok := p.metadata[ch]
	if !ok || meta.discarded || meta.enqueued {
		p.mu.Unlock()
		return
	}
	meta.enqueued = true
	meta.lastUsed = time.Now()
	p.idle = append(p.idle, meta)
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *deliveryPool) retire(ch chan job) {
	p.mu.Lock()
	if meta, ok := p.metadata[ch]; ok {
		delete(p.metadata, ch)
		meta.discarded = true
		if p.running > 0 {
			p.running--
		}
	}
	p.mu.Unlock()
	p.cond.Broadcast()
}

func (p *deliveryPool) popIdleLocked() *workerMeta {
	for len(p.idle) > 0 {
		meta := p.idle[0]
		p.idle = p.idle[1:]
		if meta.discarded {
			continue
		}
		meta.enqueued = false
		return meta
	}
	return nil
}

func (p *deliveryPool) purgeStaleWorkers() {
	ticker := time.NewTicker(p.expiry)
	defer ticker.Stop()
	for {
		<-ticker.C
		p.shutdownExpired()
	}
}

// shutdownExpired retires idle workers past the expiry, keeping min alive.
func (p *deliveryPool) shutdownExpired() {
	var stale []*workerMeta
	now := time.Now()

	p.mu.Lock()
	if len(p.idle) == 0 || p.running <= p.min {
		p.mu.Unlock()
		return
	}
	remaining := p.idle[:0]
	for _, meta := range p.idle {
		if meta.discarded {
			continue
		}
		if now.Sub(meta.lastUsed) >= p.expiry && p.running-len(stale) > p.min {
			meta.discarded = true
			meta.enqueued = false
			stale = append(stale, meta)
			continue
		}
		remaining = append(remaining, meta)
	}
	p.idle = remaining
	p.mu.Unlock()

	for _, meta := range stale {
		meta.ch <- job{kind: stopWorker}
	}
}
