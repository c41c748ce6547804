// Package listing builds one page of a resource collection from a request's optional
// filter, sort and pagination parameters.
//
// Every listable resource is described once by a Spec: which query parameters filter
// which columns (substring or exact match), which sort keys map to which columns, the
// page size defaults and the relations to eager-load. Spec.Parse turns raw query
// parameters into a Request, rejecting anything outside the Spec, and Find runs it.
//
// Nothing a client sends reaches SQL as an identifier: filter and sort columns always
// come from the Spec, and filter values are bound parameters.
package listing

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/trentd187/hockey-league/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reserved query parameter names. Everything else is either a declared filter or ignored.
const (
	ParamSort    = "sort"
	ParamOrder   = "order"
	ParamPerPage = "per_page"
	ParamPage    = "page"
)

// Match selects how a filter compares its column to the requested value.
type Match int

const (
	// Contains is a case-sensitive substring match (SQL LIKE '%value%').
	Contains Match = iota
	// EqualsID is exact equality against a positive integer identifier.
	EqualsID
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Filter declares one filterable query parameter.
type Filter struct {
	Param  string // Query parameter name, e.g. "division_id"
	Column string // Column it filters
	Match  Match
}

// Spec describes how a collection may be listed.
type Spec struct {
	Filters        []Filter
	Sortable       map[string]string // Sort key accepted from the client -> column
	DefaultSort    string            // Sort key used when the client sends none
	DefaultPerPage int
	MaxPerPage     int      // Larger per_page values are clamped to this
	Preload        []string // Relations eager-loaded for every row
}

// Condition is a parsed filter ready to be applied.
type Condition struct {
	Column string
	Match  Match
	Value  any
}

// SortSpec is the single ORDER BY applied to the page.
type SortSpec struct {
	Column string
	Order  Order
}

// PageSpec selects which slice of the collection to return. Number is 1-based.
type PageSpec struct {
	Number int
	Size   int
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt instead of wrapping for page numbers near the int limit.
func (p PageSpec) Offset() int {
	if p.Size > 0 && p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// Request is the parsed, validated form of a list call's query parameters.
type Request struct {
	Filters []Condition
	Sort    SortSpec
	Page    PageSpec
}

// Page is one page of results plus the metadata clients need to fetch the others.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// Parse validates raw query parameters against s.
//
// Unknown sort keys, an order other than asc/desc, non-positive or non-numeric
// per_page/page values and non-numeric id filters are reported as field errors.
// Empty filter values are treated as absent. Parameters s does not declare are
// ignored.
func (s Spec) Parse(params map[string]string) validation.Result[Request] {
	errs := validation.Errors{}
	req := Request{
		Sort: SortSpec{Column: s.Sortable[s.DefaultSort], Order: Asc},
		Page: PageSpec{Number: 1, Size: s.DefaultPerPage},
	}

	for _, f := range s.Filters {
		raw, ok := params[f.Param]
		if !ok || raw == "" {
			continue
		}
		switch f.Match {
		case EqualsID:
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				errs.Add(f.Param, fmt.Sprintf("The %s field must be a positive integer.", validation.Label(f.Param)))
				continue
			}
			req.Filters = append(req.Filters, Condition{Column: f.Column, Match: f.Match, Value: id})
		default:
			req.Filters = append(req.Filters, Condition{Column: f.Column, Match: f.Match, Value: raw})
		}
	}

	if key, ok := params[ParamSort]; ok && key != "" {
		column, allowed := s.Sortable[key]
		if !allowed {
			errs.Add(ParamSort, fmt.Sprintf("The selected sort is invalid. Allowed values: %s.", strings.Join(s.sortKeys(), ", ")))
		} else {
			req.Sort.Column = column
		}
	}

	if raw, ok := params[ParamOrder]; ok && raw != "" {
		switch Order(strings.ToLower(raw)) {
		case Asc:
			req.Sort.Order = Asc
		case Desc:
			req.Sort.Order = Desc
		default:
			errs.Add(ParamOrder, "The selected order is invalid. Allowed values: asc, desc.")
		}
	}

	if raw, ok := params[ParamPerPage]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs.Add(ParamPerPage, "The per page field must be a positive integer.")
		} else {
			req.Page.Size = min(n, s.MaxPerPage)
		}
	}

	if raw, ok := params[ParamPage]; ok && raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs.Add(ParamPage, "The page field must be a positive integer.")
		} else {
			req.Page.Number = n
		}
	}

	if len(errs) > 0 {
		return validation.Fail[Request](errs)
	}
	return validation.Ok(req)
}

// sortKeys lists the accepted sort keys in a stable order for error messages.
func (s Spec) sortKeys() []string {
	keys := make([]string, 0, len(s.Sortable))
	for key := range s.Sortable {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Find runs req against the collection of T and returns the requested page.
// The total is counted with the same filters, independent of the page size.
func Find[T any](ctx context.Context, db *gorm.DB, spec Spec, req Request) (Page[T], error) {
	// scoped builds a fresh statement each time: a GORM chain that has already executed
	// Count must not be reused for Find.
	scoped := func() *gorm.DB {
		return Apply(db.WithContext(ctx).Model(new(T)), req.Filters)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return Page[T]{}, fmt.Errorf("count: %w", err)
	}

	query := scoped()
	for _, relation := range spec.Preload {
		query = query.Preload(relation)
	}
	query = query.Order(clause.OrderByColumn{
		Column: clause.Column{Name: req.Sort.Column},
		Desc:   req.Sort.Order == Desc,
	})
	if req.Sort.Column != "id" {
		// Tiebreaker so rows with equal sort values do not move between pages.
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}

	page := Page[T]{
		Data:        make([]T, 0, req.Page.Size),
		CurrentPage: req.Page.Number,
		PerPage:     req.Page.Size,
		Total:       total,
		LastPage:    lastPage(total, req.Page.Size),
	}
	if int64(req.Page.Offset()) >= total {
		// Past the last row: nothing to fetch.
		return page, nil
	}
	if err := query.Limit(req.Page.Size).Offset(req.Page.Offset()).Find(&page.Data).Error; err != nil {
		return Page[T]{}, fmt.Errorf("find: %w", err)
	}
	return page, nil
}

// Apply adds the WHERE clauses for conds to query.
func Apply(query *gorm.DB, conds []Condition) *gorm.DB {
	for _, cond := range conds {
		column := clause.Column{Name: cond.Column}
		switch cond.Match {
		case EqualsID:
			query = query.Where(clause.Eq{Column: column, Value: cond.Value})
		default:
			pattern := "%" + escapeLike(fmt.Sprint(cond.Value)) + "%"
			query = query.Where(clause.Expr{SQL: `? LIKE ? ESCAPE '\'`, Vars: []any{column, pattern}})
		}
	}
	return query
}

// escapeLike makes LIKE treat %, _ and the escape character itself literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func lastPage(total int64, size int) int {
	if size <= 0 || total == 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
