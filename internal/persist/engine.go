// Package persist owns the application's state document. It batches
// section patches behind a debounce and a batch timer, stores the result
// in a checksummed envelope, migrates old layouts, and keeps timestamped
// backups it can recover from.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"habitquest/internal/clock"
	"habitquest/internal/state"
	"habitquest/internal/storage"
)

const (
	debounceTimer = "persist:debounce"
	batchTimer    = "persist:batch"
	backupTimer   = "persist:backup"
)

// Migrator rewrites document JSON stored at version from into the layout
// of version to.
type Migrator func(ctx context.Context, from, to string, doc json.RawMessage) (json.RawMessage, error)

// IdentityMigrator accepts every stored layout unchanged.
func IdentityMigrator(_ context.Context, _, _ string, doc json.RawMessage) (json.RawMessage, error) {
	return doc, nil
}

type Options struct {
	Key           string
	SchemaVersion string

	Debounce      time.Duration
	BatchInterval time.Duration

	// CompressionThreshold is the document JSON size above which
	// Compressor is applied. Nil Compressor stores plain data.
	CompressionThreshold int
	Compressor           Compressor

	// MaxRetries is the number of extra write attempts after the first.
	// Attempt n waits n*RetryBackoff; zero RetryBackoff retries at once.
	MaxRetries   int
	RetryBackoff time.Duration

	BackupInterval  time.Duration
	BackupRetention time.Duration

	Migrator Migrator
	Clock    clock.Clock
	Logger   *zap.Logger
	Metrics  *Metrics
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		Key:                  DefaultKey,
		SchemaVersion:        SchemaVersion,
		Debounce:             time.Second,
		BatchInterval:        5 * time.Second,
		CompressionThreshold: 64 << 10,
		MaxRetries:           3,
		RetryBackoff:         100 * time.Millisecond,
		BackupInterval:       24 * time.Hour,
		BackupRetention:      30 * 24 * time.Hour,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Key == "" {
		o.Key = d.Key
	}
	if o.SchemaVersion == "" {
		o.SchemaVersion = d.SchemaVersion
	}
	if o.Debounce <= 0 {
		o.Debounce = d.Debounce
	}
	if o.BatchInterval <= 0 {
		o.BatchInterval = d.BatchInterval
	}
	if o.CompressionThreshold <= 0 {
		o.CompressionThreshold = d.CompressionThreshold
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.BackupInterval <= 0 {
		o.BackupInterval = d.BackupInterval
	}
	if o.BackupRetention <= 0 {
		o.BackupRetention = d.BackupRetention
	}
	if o.Migrator == nil {
		o.Migrator = IdentityMigrator
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Metrics == nil {
		o.Metrics = NewMetrics(nil)
	}
	return o
}

// LoadSource reports where Load found its document.
type LoadSource int

const (
	SourceNone LoadSource = iota
	SourcePrimary
	SourceBackup
)

func (s LoadSource) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceBackup:
		return "backup"
	default:
		return "none"
	}
}

type Engine struct {
	store  storage.Store
	opts   Options
	log    *zap.Logger
	timers *clock.Registry

	mu       sync.Mutex
	base     state.Document
	pending  state.Patch
	lastGood string
	closed   bool

	// Backup bookkeeping. lastBackup is only meaningful once
	// backupKnown is set.
	backups     bool
	backupKnown bool
	lastBackup  time.Time
}

func New(store storage.Store, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("persist: nil store")
	}
	opts = opts.withDefaults()
	return &Engine{
		store:  store,
		opts:   opts,
		log:    opts.Logger.Named("persist"),
		timers: clock.NewRegistry(opts.Clock),
		base:   state.New(),
	}, nil
}

// Key returns the primary storage key.
func (e *Engine) Key() string { return e.opts.Key }

// Start enables periodic backups. A backup is taken whenever the newest
// one is at least BackupInterval old: now if stored data is already due,
// after later flushes, and on every tick of the interval timer. Short
// lived processes therefore still back up once per interval.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.backups = true
	e.backupIfDueLocked(ctx)
	e.timers.Every(backupTimer, e.opts.BackupInterval, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.closed {
			e.backupIfDueLocked(context.Background())
		}
	})
}

// Close flushes pending sections and cancels every timer. The engine
// rejects writes afterwards.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	err := e.flushLocked(ctx)
	e.closed = true
	e.timers.CancelAll()
	return err
}

// Save queues patch for the next flush. The debounce timer restarts on
// every call; the batch timer is armed by the first call after a flush.
// A patch that would make the document invalid is rejected whole.
func (e *Engine) Save(patch state.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enqueueLocked(patch); err != nil {
		return err
	}
	e.timers.After(debounceTimer, e.opts.Debounce, e.onTimer)
	if !e.timers.Pending(batchTimer) {
		e.timers.After(batchTimer, e.opts.BatchInterval, e.onTimer)
	}
	return nil
}

// SaveImmediate queues patch and flushes synchronously.
func (e *Engine) SaveImmediate(ctx context.Context, patch state.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enqueueLocked(patch); err != nil {
		return err
	}
	return e.flushLocked(ctx)
}

// Flush writes pending sections now. It is a no-op with nothing pending.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushLocked(ctx)
}

// Current returns the document as it will be after the next flush.
func (e *Engine) Current() state.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.Apply(e.base)
}

// HasPending reports whether sections are waiting to be flushed.
func (e *Engine) HasPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.pending.IsEmpty()
}

func (e *Engine) enqueueLocked(patch state.Patch) error {
	if e.closed {
		return ErrClosed
	}
	next := e.pending.Merge(patch)
	if err := next.Apply(e.base).Validate(); err != nil {
		return &Error{Kind: KindValidationFailed, Op: "save", Err: err}
	}
	e.pending = next
	return nil
}

func (e *Engine) onTimer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err := e.flushLocked(context.Background()); err != nil {
		e.log.Error("flush failed; pending sections kept",
			zap.Error(err),
			zap.Strings("sections", e.pending.Sections()))
		e.timers.After(batchTimer, e.opts.BatchInterval, e.onTimer)
	}
}

func (e *Engine) flushLocked(ctx context.Context) error {
	e.timers.Cancel(debounceTimer)
	e.timers.Cancel(batchTimer)
	if e.pending.IsEmpty() {
		return nil
	}

	doc := e.pending.Apply(e.base)
	raw, err := e.seal(doc)
	if err != nil {
		e.opts.Metrics.Flushes.WithLabelValues("serialization_failed").Inc()
		return err
	}
	if err := e.write(ctx, e.opts.Key, raw); err != nil {
		e.opts.Metrics.Flushes.WithLabelValues(string(KindOf(err))).Inc()
		return err
	}

	e.opts.Metrics.Flushes.WithLabelValues("ok").Inc()
	e.opts.Metrics.DocumentBytes.Set(float64(len(raw)))
	e.log.Debug("flushed document",
		zap.Strings("sections", e.pending.Sections()),
		zap.Int("bytes", len(raw)))
	e.base = doc
	e.pending = state.Patch{}
	e.lastGood = raw
	if e.backups {
		e.backupIfDueLocked(ctx)
	}
	return nil
}

// seal serializes doc into a stored envelope at the current version.
func (e *Engine) seal(doc state.Document) (string, error) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return "", &Error{Kind: KindSerializationFailed, Op: "flush", Err: err}
	}
	raw, err := sealEnvelope(docJSON, e.opts.SchemaVersion, e.opts.Clock.Now(),
		e.opts.Compressor, e.opts.CompressionThreshold)
	if err != nil {
		return "", &Error{Kind: KindSerializationFailed, Op: "flush", Err: err}
	}
	return raw, nil
}

// write stores value under key, retrying failed attempts with linear
// backoff.
func (e *Engine) write(ctx context.Context, key, value string) error {
	var err error
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			e.opts.Metrics.WriteRetries.Inc()
			if e.opts.RetryBackoff > 0 {
				e.opts.Clock.Sleep(time.Duration(attempt) * e.opts.RetryBackoff)
			}
		}
		if cerr := ctx.Err(); cerr != nil {
			return &Error{Kind: KindWriteFailed, Op: "write " + key, Err: cerr}
		}
		if err = e.store.Set(ctx, key, value); err == nil {
			return nil
		}
		e.log.Debug("store write failed",
			zap.String("key", key),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	kind := KindWriteFailed
	if errors.Is(err, storage.ErrQuotaExceeded) {
		kind = KindQuotaExceeded
	}
	return &Error{Kind: kind, Op: "write " + key, Err: err}
}
