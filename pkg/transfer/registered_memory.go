package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/kvcache-ai/mooncake-te-go/pkg/logging"
)

// Registrar performs single-range registrations. *Engine implements it.
type Registrar interface {
	RegisterLocalMemory(addr unsafe.Pointer, length uint64, location string) error
	UnregisterLocalMemory(addr unsafe.Pointer) error
}

type registration struct {
	addr   unsafe.Pointer
	length uint64
	refs   int

	// done is closed once the native registration finished; err is its
	// result and is only read after done.
	done chan struct{}
	err  error
}

func (r *registration) overlaps(addr unsafe.Pointer, length uint64) bool {
	start, end := uintptr(r.addr), uintptr(r.addr)+uintptr(r.length)
	reqStart, reqEnd := uintptr(addr), uintptr(addr)+uintptr(length)
	return reqStart < end && reqEnd > start
}

// RegisteredMemory tracks reference-counted registrations of address ranges.
// A range is registered as consecutive chunks of at most maxChunk bytes,
// each chunk a separate native registration made in parallel.
//
// Only identical ranges are shared. A range that partially overlaps an
// existing one is rejected with ErrAddressOverlapped.
type RegisteredMemory struct {
	reg      Registrar
	maxChunk uint64
	logger   logging.Logger
	redact   bool

	mu      sync.Mutex
	entries []*registration
}

// NewRegisteredMemory returns an empty registry over reg. A nil logger
// discards records.
func NewRegisteredMemory(reg Registrar, maxChunk uint64, logger logging.Logger, redact bool) *RegisteredMemory {
	if logger == nil {
		logger = logging.Discard()
	}
	return &RegisteredMemory{reg: reg, maxChunk: maxChunk, logger: logger, redact: redact}
}

func (m *RegisteredMemory) chunks(addr unsafe.Pointer, length uint64) []Buffer {
	var out []Buffer
	for off := uint64(0); off < length; off += m.maxChunk {
		n := min(m.maxChunk, length-off)
		out = append(out, Buffer{Addr: unsafe.Add(addr, off), Length: n})
	}
	return out
}

// Add registers [addr, addr+length), or bumps its reference count when the
// identical range is already registered. If any chunk fails, the chunks that
// succeeded are unregistered again and the range is not recorded.
func (m *RegisteredMemory) Add(addr unsafe.Pointer, length uint64, location string) error {
	if addr == nil || length == 0 || m.maxChunk == 0 {
		return fmt.Errorf("%w: add %d bytes (chunk %d)", ErrInvalidArgument, length, m.maxChunk)
	}

	m.mu.Lock()
	for _, r := range m.entries {
		if r.addr == addr && r.length == length && r.refs > 0 {
			r.refs++
			m.mu.Unlock()
			<-r.done
			return r.err
		}
		if r.overlaps(addr, length) {
			m.mu.Unlock()
			return fmt.Errorf("%w: %d bytes at %s", ErrAddressOverlapped, length, m.addrString(addr))
		}
	}
	// Reserve the range before the slow native calls so a concurrent Add of
	// an overlapping range fails instead of racing.
	entry := &registration{addr: addr, length: length, refs: 1, done: make(chan struct{})}
	m.entries = append(m.entries, entry)
	m.mu.Unlock()

	chunks := m.chunks(addr, length)
	ok := make([]bool, len(chunks))
	var g errgroup.Group
	for i, c := range chunks {
		g.Go(func() error {
			if err := m.reg.RegisterLocalMemory(c.Addr, c.Length, location); err != nil {
				return err
			}
			ok[i] = true
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		close(entry.done)
		m.logger.Debug(context.Background(), "registered memory",
			logging.Address("addr", uintptr(addr), m.redact), "bytes", length, "chunks", len(chunks))
		return nil
	}

	for i, c := range chunks {
		if !ok[i] {
			continue
		}
		if uerr := m.reg.UnregisterLocalMemory(c.Addr); uerr != nil {
			m.logger.Warn(context.Background(), "rollback unregister failed",
				logging.Address("addr", uintptr(c.Addr), m.redact), "error", uerr)
		}
	}
	m.drop(entry)
	entry.err = err
	close(entry.done)
	return err
}

// Remove drops one reference to [addr, addr+length). The last reference
// unregisters every chunk; all chunk errors are joined.
func (m *RegisteredMemory) Remove(addr unsafe.Pointer, length uint64) error {
	if addr == nil || length == 0 || m.maxChunk == 0 {
		return fmt.Errorf("%w: remove %d bytes (chunk %d)", ErrInvalidArgument, length, m.maxChunk)
	}

	m.mu.Lock()
	var entry *registration
	for _, r := range m.entries {
		if r.addr == addr && r.length == length && r.refs > 0 {
			entry = r
			break
		}
	}
	if entry == nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d bytes at %s", ErrNotRegistered, length, m.addrString(addr))
	}
	entry.refs--
	last := entry.refs == 0
	m.mu.Unlock()
	if !last {
		return nil
	}
	<-entry.done
	if entry.err != nil {
		return entry.err
	}

	chunks := m.chunks(addr, length)
	errs := make([]error, len(chunks))
	var g errgroup.Group
	for i, c := range chunks {
		g.Go(func() error {
			errs[i] = m.reg.UnregisterLocalMemory(c.Addr)
			return nil
		})
	}
	_ = g.Wait()
	m.drop(entry)

	err := errors.Join(errs...)
	if err == nil {
		m.logger.Debug(context.Background(), "unregistered memory",
			logging.Address("addr", uintptr(addr), m.redact), "bytes", length)
	}
	return err
}

// Len reports the number of distinct registered ranges.
func (m *RegisteredMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *RegisteredMemory) drop(entry *registration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.entries {
		if r == entry {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

func (m *RegisteredMemory) addrString(addr unsafe.Pointer) string {
	if m.redact {
		return logging.Placeholder()
	}
	return fmt.Sprintf("%p", addr)
}
