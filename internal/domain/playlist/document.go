package playlist

import (
	"strconv"
	"strings"
	"time"
)

// Index field names of a playlist search document.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldType        = "type"
	FieldOwnerID     = "owner_id"
	FieldCuratorID   = "curator_id"
	FieldMapperIDs   = "mapper_ids"
	FieldVerified    = "verified"
	FieldTotalMaps   = "total_maps"
	FieldMinNps      = "min_nps"
	FieldMaxNps      = "max_nps"
	FieldCreated     = "created"
	FieldCurated     = "curated"
	FieldVoteScore   = "vote_score"
)

// Document is the denormalized form of a playlist kept in the search index.
type Document struct {
	ID          int64
	OwnerID     int64
	CuratorID   *int64
	Name        string
	Description string
	Type        Type
	CreatedAt   time.Time
	CuratedAt   *time.Time
	TotalMaps   int
	MinNps      float64
	MaxNps      float64
	VoteScore   float64
	Verified    bool
	MapperIDs   []int64
	Deleted     bool
}

// Fields renders the document as flat index hash fields. Absent optional
// values are omitted so that presence filters work.
func (d *Document) Fields() map[string]string {
	f := map[string]string{
		FieldID:          strconv.FormatInt(d.ID, 10),
		FieldName:        d.Name,
		FieldDescription: d.Description,
		FieldType:        string(d.Type),
		FieldOwnerID:     strconv.FormatInt(d.OwnerID, 10),
		FieldVerified:    strconv.FormatBool(d.Verified),
		FieldTotalMaps:   strconv.Itoa(d.TotalMaps),
		FieldMinNps:      formatFloat(d.MinNps),
		FieldMaxNps:      formatFloat(d.MaxNps),
		FieldCreated:     strconv.FormatInt(d.CreatedAt.Unix(), 10),
		FieldVoteScore:   formatFloat(d.VoteScore),
	}
	if d.CuratorID != nil {
		f[FieldCuratorID] = strconv.FormatInt(*d.CuratorID, 10)
	}
	if d.CuratedAt != nil {
		f[FieldCurated] = strconv.FormatInt(d.CuratedAt.Unix(), 10)
	}
	if len(d.MapperIDs) > 0 {
		ids := make([]string, len(d.MapperIDs))
		for i, id := range d.MapperIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		f[FieldMapperIDs] = strings.Join(ids, ",")
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
