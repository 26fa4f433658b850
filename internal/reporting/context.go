package reporting

import (
	"context"
	"maps"
	"time"

	"github.com/Amund211/japa/internal/strutils"
)

type reportingMetaContextKey struct{}

// Request metadata attached to error reports
type ReportingMeta struct {
	tags      map[string]string
	extras    map[string]string
	devotee   string
	startedAt time.Time
}

// A copy of the metadata in ctx that is safe to modify
func MetaFromContext(ctx context.Context) ReportingMeta {
	meta, _ := ctx.Value(reportingMetaContextKey{}).(ReportingMeta)

	meta.tags = maps.Clone(meta.tags)
	if meta.tags == nil {
		meta.tags = map[string]string{}
	}
	meta.extras = maps.Clone(meta.extras)
	if meta.extras == nil {
		meta.extras = map[string]string{}
	}
	return meta
}

func updateMeta(ctx context.Context, update func(meta *ReportingMeta)) context.Context {
	meta := MetaFromContext(ctx)
	update(&meta)
	return context.WithValue(ctx, reportingMetaContextKey{}, meta)
}

func setStartedAtInContext(ctx context.Context, startedAt time.Time) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.startedAt = startedAt
	})
}

func AddExtrasToContext(ctx context.Context, extras map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.extras, extras)
	})
}

func AddTagsToContext(ctx context.Context, tags map[string]string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		maps.Copy(meta.tags, tags)
	})
}

// Identify the devotee a request acts on. Only the masked phone is kept.
func SetDevoteeInContext(ctx context.Context, phone string) context.Context {
	return updateMeta(ctx, func(meta *ReportingMeta) {
		meta.devotee = strutils.MaskPhone(phone)
	})
}
