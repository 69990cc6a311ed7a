package transfer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/kvcache-ai/mooncake-te-go/internal/bindings"
	"github.com/kvcache-ai/mooncake-te-go/pkg/arena"
	"github.com/kvcache-ai/mooncake-te-go/pkg/logging"
)

// Engine is an open transfer engine instance. Methods are safe for
// concurrent use; Close waits for in-flight calls to return.
type Engine struct {
	cfg    Config
	api    nativeAPI
	logger logging.Logger
	mem    *RegisteredMemory

	mu     sync.RWMutex
	handle unsafe.Pointer
}

// Open connects to the metadata service and starts the engine.
func Open(cfg Config) (*Engine, error) {
	return open(cfg, bindingsAPI)
}

func open(cfg Config, api nativeAPI) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	h, err := api.CreateEngine(cfg.MetadataURI, cfg.LocalServerName, cfg.NICPriorityMatrix)
	if err != nil {
		return nil, remapError(err)
	}

	e := &Engine{
		cfg:    cfg,
		api:    api,
		logger: cfg.Logger.With("local_server", cfg.LocalServerName),
		handle: h,
	}
	e.mem = NewRegisteredMemory(e, cfg.MaxChunkSize, e.logger, cfg.RedactAddresses)
	e.logger.Info(context.Background(), "transfer engine opened", "metadata", cfg.MetadataURI)
	return e, nil
}

// Close destroys the native engine. It returns ErrEngineClosed when called
// twice.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handle == nil {
		return ErrEngineClosed
	}
	e.api.DestroyEngine(e.handle)
	e.handle = nil
	e.logger.Info(context.Background(), "transfer engine closed")
	return nil
}

// acquire returns the live handle with the read lock held. The caller must
// call e.mu.RUnlock when done.
func (e *Engine) acquire() (unsafe.Pointer, error) {
	e.mu.RLock()
	if e.handle == nil {
		e.mu.RUnlock()
		return nil, ErrEngineClosed
	}
	return e.handle, nil
}

func (e *Engine) location(loc string) string {
	if loc == "" {
		return e.cfg.Location
	}
	return loc
}

// RegisterLocalMemory makes [addr, addr+length) available as a transfer
// source or destination. An empty location uses Config.Location.
func (e *Engine) RegisterLocalMemory(addr unsafe.Pointer, length uint64, location string) error {
	if addr == nil || length == 0 {
		return fmt.Errorf("%w: register %d bytes at %p", ErrInvalidArgument, length, addr)
	}
	h, err := e.acquire()
	if err != nil {
		return err
	}
	defer e.mu.RUnlock()
	return remapError(e.api.RegisterLocalMemory(h, addr, length, e.location(location)))
}

// UnregisterLocalMemory removes a registration made at addr.
func (e *Engine) UnregisterLocalMemory(addr unsafe.Pointer) error {
	if addr == nil {
		return fmt.Errorf("%w: unregister nil address", ErrInvalidArgument)
	}
	h, err := e.acquire()
	if err != nil {
		return err
	}
	defer e.mu.RUnlock()
	return remapError(e.api.UnregisterLocalMemory(h, addr))
}

// Buffer is one range of a batch registration.
type Buffer struct {
	Addr   unsafe.Pointer
	Length uint64
}

// RegisterLocalMemoryBatch registers several ranges in one native call.
func (e *Engine) RegisterLocalMemoryBatch(bufs []Buffer, location string) error {
	if len(bufs) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidArgument)
	}
	entries := make([]bindings.Buffer, len(bufs))
	for i, b := range bufs {
		if b.Addr == nil || b.Length == 0 {
			return fmt.Errorf("%w: buffer %d", ErrInvalidArgument, i)
		}
		entries[i] = bindings.Buffer{Addr: b.Addr, Length: b.Length}
	}
	h, err := e.acquire()
	if err != nil {
		return err
	}
	defer e.mu.RUnlock()
	return remapError(e.api.RegisterLocalMemoryBatch(h, entries, e.location(location)))
}

// UnregisterLocalMemoryBatch removes several registrations in one call.
func (e *Engine) UnregisterLocalMemoryBatch(addrs []unsafe.Pointer) error {
	if len(addrs) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidArgument)
	}
	h, err := e.acquire()
	if err != nil {
		return err
	}
	defer e.mu.RUnlock()
	return remapError(e.api.UnregisterLocalMemoryBatch(h, addrs))
}

// RegisterArena registers the whole of a, split into MaxChunkSize pieces.
// Registering the same arena again only bumps a reference count. The arena
// must stay open until the matching UnregisterArena.
func (e *Engine) RegisterArena(a *arena.Arena) error {
	if a == nil || a.Released() {
		return fmt.Errorf("%w: arena is nil or released", ErrInvalidArgument)
	}
	err := e.mem.Add(a.Offset(0), uint64(a.Size()), e.cfg.Location)
	runtime.KeepAlive(a)
	return err
}

// UnregisterArena drops one reference taken by RegisterArena and unregisters
// the memory with the last one.
func (e *Engine) UnregisterArena(a *arena.Arena) error {
	if a == nil {
		return fmt.Errorf("%w: nil arena", ErrInvalidArgument)
	}
	err := e.mem.Remove(a.Offset(0), uint64(a.Size()))
	runtime.KeepAlive(a)
	return err
}

// AllocateBatchID reserves a batch able to hold batchSize tasks.
func (e *Engine) AllocateBatchID(batchSize int) (BatchID, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("%w: batch size %d", ErrInvalidArgument, batchSize)
	}
	h, err := e.acquire()
	if err != nil {
		return 0, err
	}
	defer e.mu.RUnlock()
	id, err := e.api.AllocateBatchID(h, batchSize)
	if err != nil {
		return 0, remapError(err)
	}
	return BatchID(id), nil
}

// SubmitTransfer queues reqs on batch. Task IDs are assigned in order,
// starting after the tasks already submitted to the batch.
func (e *Engine) SubmitTransfer(batch BatchID, reqs []Request) error {
	if len(reqs) == 0 {
		return fmt.Errorf("%w: no requests", ErrInvalidArgument)
	}
	entries := make([]bindings.Request, len(reqs))
	for i, r := range reqs {
		if r.Opcode != OpRead && r.Opcode != OpWrite {
			return fmt.Errorf("%w: request %d: %s", ErrInvalidArgument, i, r.Opcode)
		}
		if r.Source == nil || r.Length == 0 {
			return fmt.Errorf("%w: request %d has no source range", ErrInvalidArgument, i)
		}
		entries[i] = bindings.Request{
			Opcode:       int(r.Opcode),
			Source:       r.Source,
			TargetID:     int32(r.Target),
			TargetOffset: r.TargetOffset,
			Length:       r.Length,
		}
	}
	h, err := e.acquire()
	if err != nil {
		return err
	}
	defer e.mu.RUnlock()
	return remapError(e.api.SubmitTransfer(h, uint64(batch), entries))
}

// TransferStatus polls one task once.
func (e *Engine) TransferStatus(batch BatchID, task int) (TaskStatus, error) {
	if task < 0 {
		return TaskStatus{}, fmt.Errorf("%w: task %d", ErrInvalidArgument, task)
	}
	h, err := e.acquire()
	if err != nil {
		return TaskStatus{}, err
	}
	defer e.mu.RUnlock()
	st, err := e.api.GetTransferStatus(h, uint64(batch), task)
	if err != nil {
		return TaskStatus{}, remapError(err)
	}
	return TaskStatus{Status: Status(st.Code), TransferredBytes: st.TransferredBytes}, nil
}

// FreeBatchID releases a batch. The engine refuses while tasks are still in
// flight.
func (e *Engine) FreeBatchID(batch BatchID) error {
	h, err := e.acquire()
	if err != nil {
		return err
	}
	defer e.mu.RUnlock()
	return remapError(e.api.FreeBatchID(h, uint64(batch)))
}

// SegmentID looks up the segment published under name, typically a peer's
// LocalServerName.
func (e *Engine) SegmentID(name string) (SegmentID, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty segment name", ErrInvalidArgument)
	}
	h, err := e.acquire()
	if err != nil {
		return 0, err
	}
	defer e.mu.RUnlock()
	id, err := e.api.GetSegmentID(h, name)
	if err != nil {
		return 0, remapError(err)
	}
	return SegmentID(id), nil
}

// Wait polls tasks [0, tasks) of batch until all of them finish or ctx is
// done.
func (e *Engine) Wait(ctx context.Context, batch BatchID, tasks int) ([]TaskStatus, error) {
	return WaitBatch(ctx, e, batch, tasks, e.cfg.PollInterval)
}

// Transfer runs reqs as one batch and waits for completion. The batch is
// freed on every path.
func (e *Engine) Transfer(ctx context.Context, reqs []Request) (err error) {
	batch, err := e.AllocateBatchID(len(reqs))
	if err != nil {
		return err
	}
	defer func() {
		if ferr := e.FreeBatchID(batch); ferr != nil {
			if !errors.Is(ferr, ErrEngineClosed) {
				e.logger.Warn(ctx, "free batch failed", "batch", uint64(batch), "error", ferr)
			}
			err = errors.Join(err, ferr)
		}
	}()

	if err := e.SubmitTransfer(batch, reqs); err != nil {
		return err
	}
	_, err = e.Wait(ctx, batch, len(reqs))
	return err
}
