package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/appgauge/appgauge/internal/domain"
)

// idShaped matches canonical application identifiers: lowercase hex digits
// and hyphens only. Human-readable names virtually always contain other
// characters, so a match is worth one cheap direct lookup before paying
// for a full-list fetch.
var idShaped = regexp.MustCompile(`^[0-9a-f-]+$`)

// ApplicationReader is the slice of the gateway the resolver needs.
type ApplicationReader interface {
	ListApplications(ctx context.Context) ([]domain.Application, error)
	GetApplication(ctx context.Context, id string) (*domain.Application, error)
}

// Resolver translates a caller-supplied string, either a canonical ID or a
// human-friendly application name, into a canonical application ID so that
// downstream gateway calls always use IDs.
//
// Resolution policy: name matching is exact after case folding, never
// fuzzy or prefix-based. When two applications share a name, the first
// list match wins; callers needing a guarantee must pass the ID.
type Resolver struct {
	reader ApplicationReader
	logger *slog.Logger
}

// NewResolver creates a Resolver over the given gateway slice.
func NewResolver(reader ApplicationReader, logger *slog.Logger) *Resolver {
	return &Resolver{
		reader: reader,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve returns the canonical application ID for idOrName. Fails with
// domain.NotFoundError carrying the original input when nothing matches.
func (r *Resolver) Resolve(ctx context.Context, idOrName string) (string, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return "", &domain.InvalidInputError{Param: "idOrName", Reason: "must not be empty"}
	}

	if idShaped.MatchString(idOrName) {
		_, err := r.reader.GetApplication(ctx, idOrName)
		if err == nil {
			return idOrName, nil
		}
		if !domain.IsNotFound(err) {
			// Credential or upstream failures are not resolution
			// misses; surface them unchanged.
			return "", err
		}
		r.logger.Debug("Direct ID lookup missed, falling back to name match",
			slog.String("input", idOrName))
	}

	apps, err := r.reader.ListApplications(ctx)
	if err != nil {
		return "", err
	}
	for _, app := range apps {
		if strings.EqualFold(app.Name, idOrName) {
			return app.ID, nil
		}
	}
	return "", &domain.NotFoundError{Resource: "application", ID: idOrName}
}
