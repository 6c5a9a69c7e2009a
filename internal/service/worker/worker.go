package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"nitro/markdown-safe-html/internal/service"
)

// Provider validates the links it has authority over.
type Provider interface {
	Authority(uri string) bool
	Valid(ctx context.Context, filePath, uri string) (bool, error)
}

type workerError struct {
	units []workerErrorUnit
}

func (w workerError) Error() string {
	if len(w.units) == 1 {
		return w.units[0].Error()
	}

	msgs := make([]string, 0, len(w.units))
	for _, unit := range w.units {
		msgs = append(msgs, unit.Error())
	}
	return fmt.Sprintf("multiple errors detected ('%s')", strings.Join(msgs, "', '"))
}

type workerErrorUnit struct {
	err   error
	entry service.Entry
}

func (u workerErrorUnit) Error() string {
	return fmt.Sprintf("link '%s' at '%s': %s", u.entry.Link, u.entry.Path, u.err.Error())
}

// Worker checks the entries with the first provider that claims authority over the link. Entries without a provider
// are left out of the result.
type Worker struct {
	Providers []Provider
	Logger    logrus.FieldLogger
}

// Process the entries.
func (w Worker) Process(ctx context.Context, entries []service.Entry) ([]service.Entry, error) {
	if len(w.Providers) == 0 {
		return nil, errors.New("missing 'providers'")
	}
	logger := w.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var (
		units  []workerErrorUnit
		result = make([]service.Entry, 0, len(entries))
	)
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		provider := w.provider(entry.Link)
		if provider == nil {
			logger.WithFields(logrus.Fields{"path": entry.Path, "link": entry.Link}).Debug("no provider for the link")
			continue
		}

		valid, err := provider.Valid(ctx, entry.Path, entry.Link)
		var enhanced service.EnhancedError
		switch {
		case errors.As(err, &enhanced):
			entry.FailReason = enhanced.PrettyPrint
		case err != nil:
			units = append(units, workerErrorUnit{err: err, entry: entry})
			continue
		}
		entry.Valid = valid
		result = append(result, entry)

		logger.WithFields(logrus.Fields{
			"path":      entry.Path,
			"link":      entry.Link,
			"valid":     valid,
			"processed": i + 1,
			"total":     len(entries),
		}).Debug("entry processed")
	}

	if len(units) > 0 {
		return nil, workerError{units: units}
	}
	return result, nil
}

func (w Worker) provider(uri string) Provider {
	for _, provider := range w.Providers {
		if provider.Authority(uri) {
			return provider
		}
	}
	return nil
}
