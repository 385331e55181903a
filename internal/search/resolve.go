package search

import (
	"context"
	"slices"
	"strings"

	"github.com/koopa0/lessonbank/internal/ingest"
)

type filterKind int

const (
	filterCategory filterKind = iota
	filterSubcategory
)

type filterTarget struct {
	Kind  filterKind
	Value string
}

// resolveFilterTarget decides whether a category argument names a broad
// category or a finer subcategory. A value is treated as a subcategory
// only when it looks like one (hyphenated, and not itself an umbrella
// category name) and at least one lesson in the namespace actually uses
// it as a subcategory; everything else filters the category column, so
// an unknown hyphenated value degrades to a category filter instead of
// silently matching nothing on the wrong column.
func (e *Engine) resolveFilterTarget(ctx context.Context, ns Namespace, value string) (filterTarget, error) {
	if !strings.Contains(value, "-") || slices.Contains(ingest.KnownCategories(), value) {
		return filterTarget{Kind: filterCategory, Value: value}, nil
	}
	inUse, err := e.store.SubcategoryInUse(ctx, ns.Generic, ns.Project, value)
	if err != nil {
		return filterTarget{}, err
	}
	if inUse {
		return filterTarget{Kind: filterSubcategory, Value: value}, nil
	}
	return filterTarget{Kind: filterCategory, Value: value}, nil
}
