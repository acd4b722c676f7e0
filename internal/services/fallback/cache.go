// Package fallback implements the degraded-mode mirror store. When the
// object store fails with a transport-class error, writes are absorbed
// here under the remote key schema and replayed only on an explicit
// reconcile call. Reads never consult the mirror.
package fallback

import (
	"context"
	"encoding/json"
	"time"

	"assessment-backend/internal/common/database"
	apperrors "assessment-backend/internal/common/errors"
	"assessment-backend/internal/common/logger"
	"assessment-backend/internal/common/metrics"
	"assessment-backend/internal/common/storage"
)

const keyPrefix = "fallback:"

// Entry is one absorbed write, stored verbatim so reconciliation can
// replay it against the remote store.
type Entry struct {
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	AbsorbedAt  time.Time `json:"absorbedAt"`
}

// ReconcileReport summarizes one explicit reconciliation pass.
type ReconcileReport struct {
	Replayed []string `json:"replayed"`
	Failed   []string `json:"failed"`
}

type Cache struct {
	redis  *database.RedisClient
	store  storage.ObjectStore
	logger logger.Logger
	clock  func() time.Time
}

func New(redis *database.RedisClient, store storage.ObjectStore, log logger.Logger) *Cache {
	return &Cache{
		redis:  redis,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "fallback-cache"}),
		clock:  time.Now,
	}
}

// Absorb mirrors a failed remote write. The component label identifies
// which service activated the fallback, for metrics only.
func (c *Cache) Absorb(ctx context.Context, component, key, contentType string, body []byte) error {
	entry := Entry{
		Key:         key,
		ContentType: contentType,
		Body:        body,
		AbsorbedAt:  c.clock().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	// No expiry: an absorbed write must survive until reconciled.
	if err := c.redis.Set(ctx, keyPrefix+key, data, 0); err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}

	metrics.FallbackActivations.WithLabelValues(component).Inc()
	c.logger.Warn("write absorbed by fallback cache", map[string]interface{}{
		"key":       key,
		"component": component,
		"bytes":     len(body),
	})
	return nil
}

// Pending returns the remote keys with an absorbed write awaiting replay.
func (c *Cache) Pending(ctx context.Context) ([]string, error) {
	raw, err := c.redis.Keys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, k[len(keyPrefix):])
	}
	return keys, nil
}

// Degraded reports whether any absorbed write is awaiting replay.
func (c *Cache) Degraded(ctx context.Context) bool {
	keys, err := c.Pending(ctx)
	return err == nil && len(keys) > 0
}

// Reconcile replays every absorbed write against the remote store.
// Entries that replay successfully are removed from the mirror; failures
// stay behind for the next pass. Reconciliation is never triggered
// implicitly: a stale mirrored write must not clobber a newer remote
// document without an operator asking for it.
func (c *Cache) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	pending, err := c.Pending(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{Replayed: []string{}, Failed: []string{}}
	for _, key := range pending {
		raw, err := c.redis.Get(ctx, keyPrefix+key)
		if err != nil {
			report.Failed = append(report.Failed, key)
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			c.logger.Error("dropping undecodable fallback entry", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			_ = c.redis.Del(ctx, keyPrefix+key)
			report.Failed = append(report.Failed, key)
			continue
		}

		if err := c.store.Put(ctx, entry.Key, entry.Body, entry.ContentType); err != nil {
			metrics.ReconcileReplays.WithLabelValues("failed").Inc()
			report.Failed = append(report.Failed, key)
			continue
		}

		if err := c.redis.Del(ctx, keyPrefix+key); err != nil {
			c.logger.Warn("replayed entry could not be cleared from mirror", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		metrics.ReconcileReplays.WithLabelValues("replayed").Inc()
		report.Replayed = append(report.Replayed, key)
	}

	c.logger.Info("reconciliation pass finished", map[string]interface{}{
		"replayed": len(report.Replayed),
		"failed":   len(report.Failed),
	})
	return report, nil
}
