// Package optimistic synthesizes speculative placeholder records for
// queued mutations so the UI reflects an offline write immediately,
// before the server has confirmed it.
package optimistic

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/moniehq/moniesync/internal/cache"
	"github.com/moniehq/moniesync/internal/ident"
	"github.com/moniehq/moniesync/internal/logging"
	"github.com/moniehq/moniesync/internal/models"
	"github.com/moniehq/moniesync/internal/store"
)

// resourceHandler binds one entity family to its path predicate and
// typed payload decoder. The registry below is the closed set of
// resources the applier recognizes; order matters, first match wins.
type resourceHandler struct {
	entity models.EntityType
	match  func(path string) bool
	decode func(body []byte) (models.CreatePayload, error)
}

func handlers() []resourceHandler {
	return []resourceHandler{
		{
			entity: models.EntityTransaction,
			match: func(path string) bool {
				return strings.Contains(path, "/transactions") && !strings.Contains(path, "planned")
			},
			decode: decodeInto[models.TransactionCreate],
		},
		{
			entity: models.EntityPlannedTransaction,
			match: func(path string) bool {
				return strings.Contains(path, "/planned-transactions")
			},
			decode: decodeInto[models.PlannedTransactionCreate],
		},
		{
			entity: models.EntityCurrencyExchange,
			match: func(path string) bool {
				return strings.Contains(path, "/currency-exchanges")
			},
			decode: decodeInto[models.CurrencyExchangeCreate],
		},
		{
			entity: models.EntityCategory,
			match: func(path string) bool {
				return strings.Contains(path, "/categories")
			},
			decode: decodeInto[models.CategoryCreate],
		},
		{
			entity: models.EntityBudgetPeriod,
			match: func(path string) bool {
				return strings.Contains(path, "/budget-periods")
			},
			decode: decodeInto[models.BudgetPeriodCreate],
		},
	}
}

func decodeInto[T models.CreatePayload](body []byte) (models.CreatePayload, error) {
	var payload T
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// categoryReferencer is implemented by payloads that point at a
// category by id and want it denormalized into the placeholder.
type categoryReferencer interface {
	ReferencedCategory() (int64, bool)
}

// Applier builds and removes placeholder records. Both the query cache
// and the display cache are injected at construction time.
type Applier struct {
	cache   *cache.QueryCache
	display *store.DisplayCache
}

// NewApplier wires an Applier.
func NewApplier(qc *cache.QueryCache, display *store.DisplayCache) *Applier {
	return &Applier{cache: qc, display: display}
}

// Apply inspects a mutation and, for recognized creation requests,
// injects a placeholder into the query cache and the display cache.
// It returns nil for anything it does not handle: non-POST methods,
// unknown resource paths, and undecodable bodies.
func (a *Applier) Apply(method, path string, body []byte) *models.OptimisticData {
	if method != http.MethodPost {
		return nil
	}

	for _, h := range handlers() {
		if !h.match(path) {
			continue
		}

		payload, err := h.decode(body)
		if err != nil {
			logging.Warn("skipping optimistic update, body does not match schema", map[string]interface{}{
				"entity": string(h.entity),
				"path":   path,
				"error":  err.Error(),
			})
			return nil
		}
		return a.apply(h.entity, payload, body)
	}

	logging.Debug("no optimistic handler for path", map[string]interface{}{"path": path})
	return nil
}

func (a *Applier) apply(entity models.EntityType, payload models.CreatePayload, body []byte) *models.OptimisticData {
	var record models.Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil
	}

	tempID := ident.NewTempID()
	scopeID := payload.PeriodID()

	record["id"] = tempID
	record[models.FieldOffline] = true
	record[models.FieldTempID] = tempID

	if ref, ok := payload.(categoryReferencer); ok {
		if categoryID, has := ref.ReferencedCategory(); has {
			if category := a.resolveCategory(scopeID, categoryID); category != nil {
				record["category"] = category
			} else {
				record["category"] = nil
				logging.Debug("category not resolvable from cache, placeholder keeps nil category", map[string]interface{}{
					"category_id": categoryID,
					"period_id":   scopeID,
				})
			}
		}
	}

	cacheKey := cache.Key(entity, scopeID)

	a.cache.UpdateMatching(cacheKey, func(records []models.Record) []models.Record {
		return append([]models.Record{record}, records...)
	})

	a.display.Put(models.DisplayCacheItem{
		TempID:  tempID,
		Entity:  entity,
		ScopeID: scopeID,
		Payload: record,
	})

	return &models.OptimisticData{
		CacheKey: cacheKey,
		TempID:   tempID,
		Payload:  record,
	}
}

// resolveCategory looks the referenced category up in the period-scoped
// category list, if the UI has already cached one. Best effort only.
func (a *Applier) resolveCategory(periodID, categoryID int64) models.Record {
	categories, ok := a.cache.Get(cache.Key(models.EntityCategory, periodID))
	if !ok {
		return nil
	}
	for _, c := range categories {
		if id, ok := recordID(c); ok && id == categoryID {
			return c.Clone()
		}
	}
	return nil
}

// Remove deletes the placeholder carrying tempID from every cache entry
// under cacheKey and from the display cache. It must run exactly once
// per queued request, whatever the replay outcome.
func (a *Applier) Remove(cacheKey, tempID string) {
	a.cache.UpdateMatching(cacheKey, func(records []models.Record) []models.Record {
		kept := records[:0]
		for _, r := range records {
			if r.TempID() != tempID {
				kept = append(kept, r)
			}
		}
		return kept
	})
	a.display.RemoveByTempID(tempID)
}

// recordID reads a numeric id out of a cached record. JSON decoding
// yields float64 for numbers.
func recordID(r models.Record) (int64, bool) {
	switch v := r["id"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}
