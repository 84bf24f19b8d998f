package remediation

import (
	"context"
	"fmt"
	"strings"
)

// Convention is a metadata storage scheme used by an SEO plugin.
type Convention string

// Convention constants. ConventionNative is the store's own field and is
// always written.
const (
	ConventionNative   Convention = "native"
	ConventionYoast    Convention = "yoast"
	ConventionRankMath Convention = "rankmath"
	ConventionAIOSEO   Convention = "aioseo"
	ConventionSEOPress Convention = "seopress"
)

// Field is a semantic metadata field.
type Field string

// Field constants
const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
)

// pluginDirs maps plugin directory names to the convention they install.
var pluginDirs = map[string]Convention{
	"wordpress-seo":         ConventionYoast,
	"wordpress-seo-premium": ConventionYoast,
	"seo-by-rank-math":      ConventionRankMath,
	"all-in-one-seo-pack":   ConventionAIOSEO,
	"wp-seopress":           ConventionSEOPress,
}

// metaKeys is the fixed key table per convention.
var metaKeys = map[Convention]map[Field]string{
	ConventionYoast: {
		FieldTitle:       "_yoast_wpseo_title",
		FieldDescription: "_yoast_wpseo_metadesc",
	},
	ConventionRankMath: {
		FieldTitle:       "rank_math_title",
		FieldDescription: "rank_math_description",
	},
	ConventionAIOSEO: {
		FieldTitle:       "_aioseo_title",
		FieldDescription: "_aioseo_description",
	},
	ConventionSEOPress: {
		FieldTitle:       "_seopress_titles_title",
		FieldDescription: "_seopress_titles_desc",
	},
}

// MetaKey returns the meta key a convention uses for a field.
func MetaKey(c Convention, f Field) (string, bool) {
	key, ok := metaKeys[c][f]
	return key, ok
}

// DetectConventions runs the capability query once and returns the active
// plugin conventions in a stable order. Native is not included.
func DetectConventions(ctx context.Context, src PluginSource) ([]Convention, error) {
	plugins, err := src.ActivePlugins(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active plugins: %w", err)
	}

	active := make(map[Convention]bool)
	for _, plugin := range plugins {
		dir, _, _ := strings.Cut(strings.TrimSpace(plugin), "/")
		if c, ok := pluginDirs[strings.ToLower(dir)]; ok {
			active[c] = true
		}
	}

	var out []Convention
	for _, c := range []Convention{ConventionYoast, ConventionRankMath, ConventionAIOSEO, ConventionSEOPress} {
		if active[c] {
			out = append(out, c)
		}
	}
	return out, nil
}
