package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"habitquest/internal/state"
)

// Backup identifies one stored snapshot.
type Backup struct {
	Key       string
	CreatedAt time.Time
}

func backupPrefix(key string) string { return key + "_backup_" }

// CreateBackup snapshots the last stored envelope and sweeps backups
// older than the retention window.
func (e *Engine) CreateBackup(ctx context.Context) (Backup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, err := e.backupSourceLocked(ctx)
	if err != nil {
		return Backup{}, err
	}
	return e.writeBackupLocked(ctx, e.opts.Key, raw)
}

// backupSourceLocked prefers the stored envelope, which another process
// may have rewritten since this engine last flushed. An unreadable or
// corrupt stored value falls back to the last envelope this engine saw.
func (e *Engine) backupSourceLocked(ctx context.Context) (string, error) {
	stored, ok, err := e.store.Get(ctx, e.opts.Key)
	if err == nil && ok {
		if _, _, oerr := openEnvelope(stored); oerr == nil {
			return stored, nil
		} else if e.lastGood == "" {
			return "", oerr
		}
	}
	if e.lastGood != "" {
		return e.lastGood, nil
	}
	if err != nil {
		return "", fmt.Errorf("backup read: %w", err)
	}
	return "", ErrNoData
}

// backupIfDueLocked writes a backup when none exists yet or the newest is
// at least BackupInterval old. Failures are logged.
func (e *Engine) backupIfDueLocked(ctx context.Context) {
	if !e.backupKnown {
		backups, err := e.listBackups(ctx, e.opts.Key)
		if err != nil {
			e.log.Warn("backup check skipped", zap.Error(err))
			return
		}
		if n := len(backups); n > 0 {
			e.lastBackup = backups[n-1].CreatedAt
		}
		e.backupKnown = true
	}
	now := e.opts.Clock.Now()
	if !e.lastBackup.IsZero() && now.Sub(e.lastBackup) < e.opts.BackupInterval {
		return
	}
	raw, err := e.backupSourceLocked(ctx)
	if errors.Is(err, ErrNoData) {
		return
	}
	if err == nil {
		_, err = e.writeBackupLocked(ctx, e.opts.Key, raw)
	}
	if err != nil {
		e.log.Warn("periodic backup failed", zap.Error(err))
	}
}

// ListBackups returns the engine key's backups, oldest first.
func (e *Engine) ListBackups(ctx context.Context) ([]Backup, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listBackups(ctx, e.opts.Key)
}

// Reset deletes the primary document and every backup and drops pending
// sections.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.timers.Cancel(debounceTimer)
	e.timers.Cancel(batchTimer)
	backups, err := e.listBackups(ctx, e.opts.Key)
	if err != nil {
		return err
	}
	for _, b := range backups {
		if err := e.store.Delete(ctx, b.Key); err != nil {
			return fmt.Errorf("backup delete: %w", err)
		}
	}
	if err := e.store.Delete(ctx, e.opts.Key); err != nil {
		return fmt.Errorf("document delete: %w", err)
	}
	e.pending = state.Patch{}
	e.base = state.New()
	e.lastGood = ""
	e.lastBackup = time.Time{}
	e.backupKnown = true
	e.log.Info("reset stored data", zap.Int("backups_deleted", len(backups)))
	return nil
}

func (e *Engine) writeBackupLocked(ctx context.Context, key, raw string) (Backup, error) {
	now := e.opts.Clock.Now()
	millis := now.UnixMilli()
	// Two snapshots inside one millisecond get consecutive keys.
	for {
		_, exists, err := e.store.Get(ctx, backupPrefix(key)+strconv.FormatInt(millis, 10))
		if err != nil {
			return Backup{}, fmt.Errorf("backup probe: %w", err)
		}
		if !exists {
			break
		}
		millis++
	}
	b := Backup{Key: backupPrefix(key) + strconv.FormatInt(millis, 10), CreatedAt: time.UnixMilli(millis)}
	if err := e.write(ctx, b.Key, raw); err != nil {
		return Backup{}, err
	}
	e.opts.Metrics.Backups.Inc()
	if b.CreatedAt.After(e.lastBackup) {
		e.lastBackup = b.CreatedAt
	}
	e.log.Info("backup created", zap.String("backup", b.Key))
	e.pruneLocked(ctx, key, now)
	return b, nil
}

// pruneLocked deletes backups older than the retention window. Failures
// are logged; they never fail the backup that triggered the sweep.
func (e *Engine) pruneLocked(ctx context.Context, key string, now time.Time) {
	backups, err := e.listBackups(ctx, key)
	if err != nil {
		e.log.Warn("retention sweep skipped", zap.Error(err))
		return
	}
	cutoff := now.Add(-e.opts.BackupRetention)
	for _, b := range backups {
		if !b.CreatedAt.Before(cutoff) {
			continue
		}
		if err := e.store.Delete(ctx, b.Key); err != nil {
			e.log.Warn("could not delete expired backup", zap.String("backup", b.Key), zap.Error(err))
			continue
		}
		e.log.Debug("expired backup deleted", zap.String("backup", b.Key))
	}
}

func (e *Engine) listBackups(ctx context.Context, key string) ([]Backup, error) {
	keys, err := e.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("backup list: %w", err)
	}
	prefix := backupPrefix(key)
	var out []Backup
	for _, k := range keys {
		suffix, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		millis, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Backup{Key: k, CreatedAt: time.UnixMilli(millis)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
