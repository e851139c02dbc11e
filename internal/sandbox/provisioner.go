package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrNoSlot is returned when no sandbox slot frees up within the bounded
// wait. Callers map it to SYSTEM_ERROR instead of queueing indefinitely.
var ErrNoSlot = errors.New("no sandbox slot available")

// Provisioner owns a bounded pool of sandbox slots. One Acquire yields
// one fresh box; Release erases it and frees the slot exactly once.
type Provisioner struct {
	backend     Backend
	slots       chan struct{}
	waitTimeout time.Duration

	active   *xsync.MapOf[string, Box]
	acquired *xsync.Counter
	released *xsync.Counter
}

// NewProvisioner creates a pool with the given number of slots. Acquire
// waits at most waitTimeout for a free slot.
func NewProvisioner(backend Backend, slots int, waitTimeout time.Duration) *Provisioner {
	p := &Provisioner{
		backend:     backend,
		slots:       make(chan struct{}, slots),
		waitTimeout: waitTimeout,
		active:      xsync.NewMapOf[string, Box](),
		acquired:    xsync.NewCounter(),
		released:    xsync.NewCounter(),
	}
	for i := 0; i < slots; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Lease is one acquired sandbox. Release is idempotent and must run on
// every exit path; the engine defers it right after acquisition.
type Lease struct {
	ID  string
	Box Box

	prov *Provisioner
	once sync.Once
}

// Acquire blocks for at most the configured wait, then provisions a
// fresh box. Backend failures release the slot before returning.
func (p *Provisioner) Acquire(ctx context.Context) (*Lease, error) {
	timer := time.NewTimer(p.waitTimeout)
	defer timer.Stop()

	select {
	case <-p.slots:
	case <-timer.C:
		return nil, ErrNoSlot
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	box, err := p.backend.NewBox()
	if err != nil {
		p.slots <- struct{}{}
		return nil, fmt.Errorf("failed to provision sandbox: %w", err)
	}

	lease := &Lease{
		ID:   uuid.NewString(),
		Box:  box,
		prov: p,
	}
	p.active.Store(lease.ID, box)
	p.acquired.Inc()
	return lease, nil
}

// Release erases the box and frees the slot. Calling it more than once
// is safe; only the first call does the work.
func (l *Lease) Release() error {
	var err error
	l.once.Do(func() {
		err = l.Box.Erase()
		l.prov.active.Delete(l.ID)
		l.prov.released.Inc()
		l.prov.slots <- struct{}{}
	})
	return err
}

// Available reports whether the sandbox backend currently answers.
func (p *Provisioner) Available() bool {
	return p.backend.Probe() == nil
}

// InUse returns the number of currently leased sandboxes.
func (p *Provisioner) InUse() int {
	return p.active.Size()
}

// Stats returns lifetime acquire/release counts, used by logging and by
// leak checks in tests.
func (p *Provisioner) Stats() (acquired, released int64) {
	return p.acquired.Value(), p.released.Value()
}
