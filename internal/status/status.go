// Package status filters a model's provider mappings against the
// administrative mapping-status store. Operators flip a mapping to
// inactive there to pull it from selection without a catalog change.
package status

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/modelgate/modelgate/internal/apierr"
	"github.com/modelgate/modelgate/internal/catalog"
	"github.com/modelgate/modelgate/internal/models"
	"gorm.io/gorm"
)

// LookupFunc fetches the administrative status records for one model,
// keyed by provider id.
type LookupFunc func(ctx context.Context, db *gorm.DB, modelID string) (map[string]string, error)

// Filter drops deactivated and administratively disabled mappings from a
// model definition. It performs exactly one store lookup per call and
// holds no cache; callers that need caching wrap it.
type Filter struct {
	db     *gorm.DB
	lookup LookupFunc
	nowFn  func() time.Time
}

// NewFilter constructs a Filter backed by the application database.
func NewFilter(db *gorm.DB) *Filter {
	return &Filter{db: db, lookup: LookupStatuses, nowFn: time.Now}
}

// NewFilterWithLookup constructs a Filter with injected dependencies.
func NewFilterWithLookup(db *gorm.DB, lookup LookupFunc, nowFn func() time.Time) *Filter {
	if lookup == nil {
		lookup = LookupStatuses
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Filter{db: db, lookup: lookup, nowFn: nowFn}
}

// Apply returns def with ineligible mappings removed. Mappings past
// their deactivation time are always dropped. Unless includeInactive is
// set, mappings with an administrative record other than "active" are
// dropped too; a missing record defaults to active.
func (f *Filter) Apply(ctx context.Context, def catalog.ModelDefinition, includeInactive bool) (catalog.ModelDefinition, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	now := f.nowFn()

	statuses, errLookup := f.lookup(ctx, f.db, def.ID)
	if errLookup != nil {
		if errors.Is(errLookup, context.DeadlineExceeded) || errors.Is(errLookup, context.Canceled) {
			return catalog.ModelDefinition{}, apierr.NewTransientError("mapping status lookup", errLookup)
		}
		return catalog.ModelDefinition{}, errLookup
	}

	kept := make([]catalog.ProviderModelMapping, 0, len(def.Mappings))
	for _, mapping := range def.Mappings {
		if mapping.Deactivated(now) {
			continue
		}
		if includeInactive {
			kept = append(kept, mapping)
			continue
		}
		recorded, ok := statuses[strings.ToLower(mapping.ProviderID)]
		if !ok || recorded == models.MappingStatusActive {
			kept = append(kept, mapping)
		}
	}

	filtered := def
	filtered.Mappings = kept
	return filtered, nil
}

// LookupStatuses loads the status records for modelID from the store.
func LookupStatuses(ctx context.Context, db *gorm.DB, modelID string) (map[string]string, error) {
	if db == nil {
		return nil, nil
	}
	var rows []models.MappingStatus
	if errFind := db.WithContext(ctx).
		Where("model_id = ?", strings.TrimSpace(modelID)).
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		provider := strings.ToLower(strings.TrimSpace(row.ProviderID))
		if provider == "" {
			continue
		}
		out[provider] = strings.ToLower(strings.TrimSpace(row.Status))
	}
	return out, nil
}
