package listing

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trentd187/hockey-league/internal/models"
	"github.com/trentd187/hockey-league/internal/testing/testdb"
	"github.com/trentd187/hockey-league/internal/validation"
)

var clubSpec = Spec{
	Filters: []Filter{
		{Param: "name", Column: "name", Match: Contains},
		{Param: "division_id", Column: "division_id", Match: EqualsID},
	},
	Sortable:       map[string]string{"id": "id", "name": "name", "foundation_year": "foundation_year"},
	DefaultSort:    "id",
	DefaultPerPage: 5,
	MaxPerPage:     100,
	Preload:        []string{"Division"},
}

func parseErrors(t *testing.T, params map[string]string) validation.Errors {
	t.Helper()
	result := clubSpec.Parse(params)
	require.False(t, result.Valid(), "expected %v to be rejected", params)
	return result.Errors()
}

func TestParse_Defaults(t *testing.T) {
	req, err := clubSpec.Parse(map[string]string{}).Unwrap()
	require.NoError(t, err)

	assert.Empty(t, req.Filters)
	assert.Equal(t, SortSpec{Column: "id", Order: Asc}, req.Sort)
	assert.Equal(t, PageSpec{Number: 1, Size: 5}, req.Page)
}

func TestParse_AllParameters(t *testing.T) {
	req, err := clubSpec.Parse(map[string]string{
		"name":        "Bar",
		"division_id": "3",
		"sort":        "foundation_year",
		"order":       "DESC",
		"per_page":    "20",
		"page":        "2",
		"unrelated":   "ignored",
	}).Unwrap()
	require.NoError(t, err)

	assert.Equal(t, []Condition{
		{Column: "name", Match: Contains, Value: "Bar"},
		{Column: "division_id", Match: EqualsID, Value: uint64(3)},
	}, req.Filters)
	assert.Equal(t, SortSpec{Column: "foundation_year", Order: Desc}, req.Sort)
	assert.Equal(t, PageSpec{Number: 2, Size: 20}, req.Page)
	assert.Equal(t, 20, req.Page.Offset())
}

func TestParse_EmptyFilterIsAbsent(t *testing.T) {
	req, err := clubSpec.Parse(map[string]string{"name": "", "division_id": ""}).Unwrap()
	require.NoError(t, err)
	assert.Empty(t, req.Filters)
}

func TestParse_ClampsPerPage(t *testing.T) {
	req, err := clubSpec.Parse(map[string]string{"per_page": "1000"}).Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 100, req.Page.Size)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		field  string
	}{
		{"unknown sort key", map[string]string{"sort": "coach_photo"}, "sort"},
		{"sql in sort", map[string]string{"sort": "id; DROP TABLE clubs"}, "sort"},
		{"bad order", map[string]string{"order": "sideways"}, "order"},
		{"zero per_page", map[string]string{"per_page": "0"}, "per_page"},
		{"negative per_page", map[string]string{"per_page": "-5"}, "per_page"},
		{"text per_page", map[string]string{"per_page": "ten"}, "per_page"},
		{"zero page", map[string]string{"page": "0"}, "page"},
		{"text id filter", map[string]string{"division_id": "abc"}, "division_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseErrors(t, tt.params)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestParse_SortErrorListsAllowedKeys(t *testing.T) {
	errs := parseErrors(t, map[string]string{"sort": "nope"})
	assert.Equal(t, []string{"The selected sort is invalid. Allowed values: foundation_year, id, name."}, errs["sort"])
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestLastPage(t *testing.T) {
	assert.Equal(t, 1, lastPage(0, 5))
	assert.Equal(t, 1, lastPage(5, 5))
	assert.Equal(t, 2, lastPage(6, 5))
	assert.Equal(t, 4, lastPage(16, 5))
}

// seedClubs creates two divisions and the clubs named in years (name -> foundation year).
func seedClubs(t *testing.T, tdb *testdb.TestDB) (models.Division, models.Division) {
	t.Helper()
	east := models.Division{Name: "East"}
	west := models.Division{Name: "West"}
	tdb.Create(&east, &west)

	clubs := []models.Club{
		{Name: "Barys", FoundationYear: 1999, DivisionID: east.ID},
		{Name: "Avangard", FoundationYear: 1950, DivisionID: east.ID},
		{Name: "Sibir", FoundationYear: 1962, DivisionID: west.ID},
		{Name: "Traktor", FoundationYear: 1947, DivisionID: west.ID},
		{Name: "barracuda", FoundationYear: 2001, DivisionID: west.ID},
		{Name: "Metallurg", FoundationYear: 1950, DivisionID: east.ID},
		{Name: "100% Club", FoundationYear: 2010, DivisionID: east.ID},
	}
	for i := range clubs {
		clubs[i].CoachFirstName = "First"
		clubs[i].CoachLastName = "Last"
		tdb.Create(&clubs[i])
	}
	return east, west
}

func find(t *testing.T, tdb *testdb.TestDB, params map[string]string) Page[models.Club] {
	t.Helper()
	req, err := clubSpec.Parse(params).Unwrap()
	require.NoError(t, err)
	page, err := Find[models.Club](tdb.Context(), tdb.DB, clubSpec, req)
	require.NoError(t, err)
	return page
}

func names(clubs []models.Club) []string {
	out := make([]string, len(clubs))
	for i, c := range clubs {
		out[i] = c.Name
	}
	return out
}

func TestFind_PaginatesWithTotal(t *testing.T) {
	tdb := testdb.New(t)
	seedClubs(t, tdb)

	first := find(t, tdb, map[string]string{"per_page": "3"})
	assert.Len(t, first.Data, 3)
	assert.Equal(t, int64(7), first.Total)
	assert.Equal(t, 1, first.CurrentPage)
	assert.Equal(t, 3, first.PerPage)
	assert.Equal(t, 3, first.LastPage)
	assert.Equal(t, []string{"Barys", "Avangard", "Sibir"}, names(first.Data))

	last := find(t, tdb, map[string]string{"per_page": "3", "page": "3"})
	assert.Equal(t, []string{"100% Club"}, names(last.Data))
	assert.Equal(t, int64(7), last.Total)

	beyond := find(t, tdb, map[string]string{"per_page": "3", "page": "9"})
	assert.Empty(t, beyond.Data)
	assert.NotNil(t, beyond.Data)
	assert.Equal(t, int64(7), beyond.Total)
}

func TestPageSpec_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, PageSpec{Number: 1, Size: 100}.Offset())
	assert.Equal(t, math.MaxInt, PageSpec{Number: math.MaxInt, Size: 100}.Offset())
	assert.Equal(t, math.MaxInt, PageSpec{Number: math.MaxInt/100 + 2, Size: 100}.Offset())
	assert.Equal(t, math.MaxInt-1, PageSpec{Number: math.MaxInt, Size: 1}.Offset())
}

func TestFind_HugePageIsEmpty(t *testing.T) {
	tdb := testdb.New(t)
	seedClubs(t, tdb)

	page := find(t, tdb, map[string]string{"per_page": "100", "page": strconv.Itoa(math.MaxInt)})
	assert.Empty(t, page.Data)
	assert.NotNil(t, page.Data)
	assert.Equal(t, math.MaxInt, page.CurrentPage)
	assert.Equal(t, int64(7), page.Total)
	assert.Equal(t, 1, page.LastPage)
}

func TestFind_DefaultPageSize(t *testing.T) {
	tdb := testdb.New(t)
	seedClubs(t, tdb)

	page := find(t, tdb, map[string]string{})
	assert.Len(t, page.Data, 5)
	assert.Equal(t, 2, page.LastPage)
}

func TestFind_SubstringIsCaseSensitive(t *testing.T) {
	tdb := testdb.New(t)
	seedClubs(t, tdb)

	page := find(t, tdb, map[string]string{"name": "bar"})
	assert.Equal(t, []string{"barracuda"}, names(page.Data))
	assert.Equal(t, int64(1), page.Total)

	page = find(t, tdb, map[string]string{"name": "Bar"})
	assert.Equal(t, []string{"Barys"}, names(page.Data))
}

func TestFind_WildcardsMatchLiterally(t *testing.T) {
	tdb := testdb.New(t)
	seedClubs(t, tdb)

	page := find(t, tdb, map[string]string{"name": "%"})
	assert.Equal(t, []string{"100% Club"}, names(page.Data))

	page = find(t, tdb, map[string]string{"name": "_"})
	assert.Empty(t, page.Data)
}

func TestFind_ExactFilterAndPreload(t *testing.T) {
	tdb := testdb.New(t)
	_, west := seedClubs(t, tdb)

	page := find(t, tdb, map[string]string{"division_id": "2", "per_page": "10"})
	assert.Equal(t, []string{"Sibir", "Traktor", "barracuda"}, names(page.Data))
	for _, club := range page.Data {
		require.NotNil(t, club.Division)
		assert.Equal(t, west.Name, club.Division.Name)
	}
}

func TestFind_SortsWithIDTiebreaker(t *testing.T) {
	tdb := testdb.New(t)
	seedClubs(t, tdb)

	asc := find(t, tdb, map[string]string{"sort": "foundation_year", "per_page": "10"})
	assert.Equal(t, []string{"Traktor", "Avangard", "Metallurg", "Sibir", "Barys", "barracuda", "100% Club"}, names(asc.Data))

	desc := find(t, tdb, map[string]string{"sort": "foundation_year", "order": "desc", "per_page": "10"})
	years := make([]int, len(desc.Data))
	for i, club := range desc.Data {
		years[i] = club.FoundationYear
	}
	assert.IsNonIncreasing(t, years)
	// Equal years keep ascending id order in both directions.
	assert.Equal(t, []string{"100% Club", "barracuda", "Barys", "Sibir", "Avangard", "Metallurg", "Traktor"}, names(desc.Data))
}
