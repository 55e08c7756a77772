package search

import (
	"strconv"

	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
)

// Attributes are the user ids resolved from mapper: and curator: values.
type Attributes struct {
	MapperIDs  []int64
	CuratorIDs []int64
}

// Compile builds the index filter for a request. Visibility is always part
// of the top-level conjunction. Inconsistent bounds such as minNps > maxNps
// are compiled as given and simply match nothing.
func Compile(req *request.Search, attrs Attributes, vis playlist.Visibility) filter.Expr {
	parts := []filter.Expr{visibilityFilter(vis)}

	if !req.IncludeEmpty() {
		parts = append(parts, filter.Or(
			filter.Range(playlist.FieldTotalMaps, filter.Exclusive(0), nil),
			filter.Equals(playlist.FieldType, string(playlist.TypeSearch)),
		))
	}

	// A playlist matches when its nps span overlaps the requested window.
	if lo := req.MinNps(); lo != nil {
		parts = append(parts, filter.Range(playlist.FieldMaxNps, filter.Inclusive(*lo), nil))
	}
	if hi := req.MaxNps(); hi != nil {
		parts = append(parts, filter.Range(playlist.FieldMinNps, nil, filter.Inclusive(*hi)))
	}

	if req.From() != nil || req.To() != nil {
		var lower, upper *filter.Bound
		if from := req.From(); from != nil {
			lower = filter.Inclusive(float64(from.Unix()))
		}
		if to := req.To(); to != nil {
			upper = filter.Inclusive(float64(to.Unix()))
		}
		parts = append(parts, filter.Range(playlist.FieldCreated, lower, upper))
	}

	if e, ok := anyID(playlist.FieldMapperIDs, attrs.MapperIDs); ok {
		parts = append(parts, e)
	}
	if e, ok := anyID(playlist.FieldCuratorID, attrs.CuratorIDs); ok {
		parts = append(parts, e)
	}

	if c := req.Curated(); c != nil {
		curated := filter.Exists(playlist.FieldCurated)
		if !*c {
			curated = filter.Not(curated)
		}
		parts = append(parts, curated)
	}
	if v := req.Verified(); v != nil {
		parts = append(parts, filter.Equals(playlist.FieldVerified, strconv.FormatBool(*v)))
	}

	return filter.AllOf(parts...)
}

// visibilityFilter admits anonymous-allowed types plus the viewer's own playlists.
func visibilityFilter(vis playlist.Visibility) filter.Expr {
	var terms []filter.Expr
	for _, t := range playlist.AnonymousTypes() {
		terms = append(terms, filter.Equals(playlist.FieldType, string(t)))
	}
	if id, ok := vis.Viewer(); ok {
		terms = append(terms, filter.Equals(playlist.FieldOwnerID, strconv.FormatInt(id, 10)))
	}
	e, _ := filter.AnyOf(terms...)
	return e
}

func anyID(field string, ids []int64) (filter.Expr, bool) {
	terms := make([]filter.Expr, len(ids))
	for i, id := range ids {
		terms[i] = filter.Equals(field, strconv.FormatInt(id, 10))
	}
	return filter.AnyOf(terms...)
}
