package persist

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"habitquest/internal/state"
)

var errNotStored = errors.New("no stored value")

// Load reads the document under key. Unreadable or invalid data, or a
// missing primary when backups exist, is recovered from the newest usable
// backup, which is written back to key. Load returns nil and SourceNone
// when nothing usable exists; it never fails.
//
// Loading the engine's own key also makes the result the base that later
// flushes build on.
func (e *Engine) Load(ctx context.Context, key string) (*state.Document, LoadSource) {
	e.mu.Lock()
	defer e.mu.Unlock()

	source := SourcePrimary
	doc, raw, err := e.readKey(ctx, key)
	if err != nil {
		if !errors.Is(err, errNotStored) {
			e.log.Warn("stored document unusable; trying backups",
				zap.String("key", key),
				zap.String("kind", string(KindOf(err))),
				zap.Error(err))
		}
		doc, raw, err = e.recoverKey(ctx, key)
		if err != nil {
			if !errors.Is(err, errNotStored) {
				e.log.Error("no usable document or backup", zap.String("key", key), zap.Error(err))
			}
			return nil, SourceNone
		}
		source = SourceBackup
	}

	if key == e.opts.Key {
		e.base = doc.Clone()
		e.lastGood = raw
	}
	return &doc, source
}

func (e *Engine) readKey(ctx context.Context, key string) (state.Document, string, error) {
	raw, ok, err := e.store.Get(ctx, key)
	if err != nil {
		return state.Document{}, "", &Error{Kind: KindCorrupt, Op: "read " + key, Err: err}
	}
	if !ok {
		return state.Document{}, "", errNotStored
	}
	return e.open(ctx, key, raw, true)
}

// open decodes a stored value, migrating it when its version differs.
// The returned string is what key now holds.
func (e *Engine) open(ctx context.Context, key, raw string, snapshot bool) (state.Document, string, error) {
	docJSON, version, err := openEnvelope(raw)
	if err != nil {
		return state.Document{}, "", err
	}
	if version == e.opts.SchemaVersion {
		doc, err := decodeDocument(docJSON)
		return doc, raw, err
	}
	return e.migrate(ctx, key, raw, version, docJSON, snapshot)
}

// migrate snapshots raw as a backup, runs the migrator and rewrites key at
// the current version. If the snapshot or the migrator fails the document
// is served as stored and key is left alone.
func (e *Engine) migrate(ctx context.Context, key, raw, from string, docJSON []byte, snapshot bool) (state.Document, string, error) {
	log := e.log.With(zap.String("key", key), zap.String("from", from), zap.String("to", e.opts.SchemaVersion))
	if snapshot {
		if _, err := e.writeBackupLocked(ctx, key, raw); err != nil {
			log.Warn("pre-migration snapshot failed; serving stored version", zap.Error(err))
			doc, derr := decodeDocument(docJSON)
			return doc, raw, derr
		}
	}

	migrated, err := e.opts.Migrator(ctx, from, e.opts.SchemaVersion, docJSON)
	if err != nil {
		log.Error("migration failed; serving stored version",
			zap.Error(&Error{Kind: KindMigrationFailed, Op: "migrate", Err: err}))
		doc, derr := decodeDocument(docJSON)
		return doc, raw, derr
	}
	doc, err := decodeDocument(migrated)
	if err != nil {
		return state.Document{}, "", err
	}

	out, err := e.seal(doc)
	if err != nil {
		log.Warn("could not re-seal migrated document", zap.Error(err))
		return doc, raw, nil
	}
	if err := e.write(ctx, key, out); err != nil {
		log.Warn("could not store migrated document", zap.Error(err))
		return doc, raw, nil
	}
	log.Info("migrated stored document")
	return doc, out, nil
}

// recoverKey walks backups newest first and restores the first one that
// decodes.
func (e *Engine) recoverKey(ctx context.Context, key string) (state.Document, string, error) {
	backups, err := e.listBackups(ctx, key)
	if err != nil {
		return state.Document{}, "", err
	}
	if len(backups) == 0 {
		return state.Document{}, "", errNotStored
	}

	var lastErr error
	for i := len(backups) - 1; i >= 0; i-- {
		b := backups[i]
		raw, ok, err := e.store.Get(ctx, b.Key)
		if err != nil || !ok {
			lastErr = err
			continue
		}
		doc, stored, err := e.open(ctx, key, raw, false)
		if err != nil {
			e.log.Debug("backup unusable", zap.String("backup", b.Key), zap.Error(err))
			lastErr = err
			continue
		}
		if stored == raw {
			if err := e.write(ctx, key, raw); err != nil {
				e.log.Warn("could not restore backup to primary key", zap.String("backup", b.Key), zap.Error(err))
			}
		}
		e.opts.Metrics.Recoveries.Inc()
		e.log.Info("recovered document from backup", zap.String("backup", b.Key))
		return doc, stored, nil
	}
	if lastErr == nil {
		lastErr = errors.New("all backups unreadable")
	}
	return state.Document{}, "", lastErr
}
