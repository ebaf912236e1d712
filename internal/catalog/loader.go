package catalog

import (
	"context"
	"fmt"
	"time"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/common/metrics"
	"menu-recommender/internal/models"
)

// Source reads the full menu dataset. Implementations return a
// DATA_INTEGRITY_VIOLATION StandardError for unusable data and
// CATALOG_LOAD_FAILED for transport failures.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.MenuItem, error)
}

// Load reads source once and returns an unpublished Store.
func Load(ctx context.Context, source Source) (*Store, error) {
	items, err := source.Load(ctx)
	if err != nil {
		if _, ok := errors.AsStandardError(err); !ok {
			err = errors.NewCatalogLoadFailedError(source.Name(), err)
		}
		return nil, err
	}
	return NewStore(source.Name(), items), nil
}

// Loader builds Stores from a Source and publishes them through a Holder.
type Loader struct {
	source Source
	holder *Holder
	logger logger.Logger
}

func NewLoader(source Source, holder *Holder, log logger.Logger) *Loader {
	return &Loader{
		source: source,
		holder: holder,
		logger: log.WithFields(map[string]interface{}{"component": "catalog", "source": source.Name()}),
	}
}

// Reload loads a fresh Store and swaps it in. On error the Store in service is left untouched.
func (l *Loader) Reload(ctx context.Context) (*Store, error) {
	start := time.Now()

	store, err := Load(ctx, l.source)
	if err != nil {
		l.logger.Error("catalog load failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	previous := l.holder.Swap(store)
	metrics.CatalogItemsLoaded.WithLabelValues(l.source.Name()).Set(float64(store.Len()))

	fields := map[string]interface{}{
		"items":      store.Len(),
		"regions":    len(store.Regions()),
		"durationMs": time.Since(start).Milliseconds(),
	}
	if previous != nil {
		fields["previousItems"] = previous.Len()
	}
	l.logger.Info("catalog loaded", fields)

	return store, nil
}

// Holder returns the holder this loader publishes to.
func (l *Loader) Holder() *Holder {
	return l.holder
}

func integrityError(source string, format string, args ...interface{}) error {
	return errors.NewDataIntegrityError(source, fmt.Sprintf(format, args...))
}
