package remediation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/types"
)

// DefaultWriteTimeout bounds each individual metadata write.
const DefaultWriteTimeout = 10 * time.Second

// Writer stores one field for a target under one convention. It returns
// ErrNotApplicable when the convention has nowhere to put the field.
type Writer interface {
	Name() string
	Write(ctx context.Context, target types.RemediationTarget, field Field, value string) error
}

// nativeWriter writes the store's own SEO fields. Terms have no native title.
type nativeWriter struct {
	store MetaStore
}

func (w nativeWriter) Name() string { return string(ConventionNative) }

func (w nativeWriter) Write(ctx context.Context, target types.RemediationTarget, field Field, value string) error {
	if target.IsTerm() && field == FieldTitle {
		return ErrNotApplicable
	}
	return w.store.SetNativeField(ctx, target, field, value)
}

// metaWriter writes a convention's meta key.
type metaWriter struct {
	convention Convention
	store      MetaStore
}

func (w metaWriter) Name() string { return string(w.convention) }

func (w metaWriter) Write(ctx context.Context, target types.RemediationTarget, field Field, value string) error {
	key, ok := MetaKey(w.convention, field)
	if !ok {
		return ErrNotApplicable
	}
	return w.store.SetMeta(ctx, target, key, value)
}

// MetadataAdapter fans every write out to all configured writers.
type MetadataAdapter struct {
	writers []Writer
	timeout time.Duration
	logger  *slog.Logger
}

// NewMetadataAdapter builds an adapter writing the native field plus every
// detected convention.
func NewMetadataAdapter(store MetaStore, conventions []Convention) *MetadataAdapter {
	writers := []Writer{nativeWriter{store: store}}
	for _, c := range conventions {
		if c == ConventionNative {
			continue
		}
		writers = append(writers, metaWriter{convention: c, store: store})
	}
	return NewMetadataAdapterWithWriters(writers...)
}

// NewMetadataAdapterWithWriters builds an adapter over explicit writers.
func NewMetadataAdapterWithWriters(writers ...Writer) *MetadataAdapter {
	return &MetadataAdapter{
		writers: writers,
		timeout: DefaultWriteTimeout,
		logger:  logging.New("metadata"),
	}
}

// Writers returns the names of the configured writers in order.
func (a *MetadataAdapter) Writers() []string {
	names := make([]string, len(a.writers))
	for i, w := range a.writers {
		names[i] = w.Name()
	}
	return names
}

// WriteTitle writes the SEO title for target.
func (a *MetadataAdapter) WriteTitle(ctx context.Context, target types.RemediationTarget, value string) error {
	return a.write(ctx, target, FieldTitle, value)
}

// WriteDescription writes the meta description for target.
func (a *MetadataAdapter) WriteDescription(ctx context.Context, target types.RemediationTarget, value string) error {
	return a.write(ctx, target, FieldDescription, value)
}

// Write writes any field. Every writer is attempted; the write succeeds when
// at least one writer stored the value.
func (a *MetadataAdapter) Write(ctx context.Context, target types.RemediationTarget, field Field, value string) error {
	return a.write(ctx, target, field, value)
}

func (a *MetadataAdapter) write(ctx context.Context, target types.RemediationTarget, field Field, value string) error {
	var (
		errs      []error
		succeeded int
	)
	for _, w := range a.writers {
		wctx, cancel := context.WithTimeout(ctx, a.timeout)
		err := w.Write(wctx, target, field, value)
		cancel()

		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrNotApplicable):
		default:
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
		}
	}

	if succeeded == 0 {
		if len(errs) == 0 {
			return &WriteError{Field: field, Message: fmt.Sprintf("no writer can store %s for %s", field, target.Kind)}
		}
		return &WriteError{Field: field, Message: "all writers failed", Cause: errors.Join(errs...)}
	}
	if len(errs) > 0 {
		a.logger.Warn("partial metadata write", "field", field, "entity_id", target.ID,
			"succeeded", succeeded, "error", errors.Join(errs...))
	}
	return nil
}
