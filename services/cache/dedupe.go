package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dealmungchi/xidmetlercrawler/logger"
)

// seenTTL bounds how long a run's markers live in a shared store
const seenTTL = 24 * time.Hour

// Dedupe remembers which listing ids a single run has already recorded.
// Keys are namespaced by run id, so separate runs never see each other
type Dedupe struct {
	store CacheService
	runID string
	log   *logger.Logger

	// fallback tracks ids whose store round-trip failed
	fallback map[string]struct{}
}

// NewDedupe creates a run-scoped dedupe view over store
func NewDedupe(store CacheService, runID string) *Dedupe {
	return &Dedupe{
		store:    store,
		runID:    runID,
		log:      logger.ForCache(),
		fallback: make(map[string]struct{}),
	}
}

func (d *Dedupe) key(id string) string {
	return fmt.Sprintf("xidmetler:%s:seen:%s", d.runID, id)
}

// Claim marks id as recorded and reports whether this is its first claim.
// When the store is unreachable the claim is kept in process memory instead
func (d *Dedupe) Claim(id string) bool {
	if _, ok := d.fallback[id]; ok {
		return false
	}

	key := d.key(id)
	_, err := d.store.Get(key)
	switch {
	case err == nil:
		return false
	case !errors.Is(err, ErrCacheMiss):
		d.log.Warn().Err(err).Str("listing_id", id).Msg("Dedupe lookup failed")
		d.fallback[id] = struct{}{}
		return true
	}

	if err := d.store.Set(key, []byte("1"), seenTTL); err != nil {
		d.log.Warn().Err(err).Str("listing_id", id).Msg("Dedupe store failed")
		d.fallback[id] = struct{}{}
	}
	return true
}

// Release forgets a claim. The worker uses it when a record could not be kept
func (d *Dedupe) Release(id string) {
	delete(d.fallback, id)
	if err := d.store.Delete(d.key(id)); err != nil {
		d.log.Debug().Err(err).Str("listing_id", id).Msg("Dedupe release failed")
	}
}
