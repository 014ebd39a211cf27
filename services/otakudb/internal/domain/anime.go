// Package domain holds the anime catalog record and the names of its fields.
package domain

// Field names double as JSON keys and column names.
const (
	FieldID         = "id"
	FieldUID        = "uid"
	FieldTitle      = "title"
	FieldSynopsis   = "synopsis"
	FieldGenre      = "genre"
	FieldAired      = "aired"
	FieldEpisodes   = "episodes"
	FieldMembers    = "members"
	FieldPopularity = "popularity"
	FieldRanked     = "ranked"
	FieldScore      = "score"
	FieldImgURL     = "img_url"
	FieldLink       = "link"
)

// Columns lists every column of the animes table in declaration order.
var Columns = []string{
	FieldID, FieldUID, FieldTitle, FieldSynopsis, FieldGenre, FieldAired,
	FieldEpisodes, FieldMembers, FieldPopularity, FieldRanked, FieldScore,
	FieldImgURL, FieldLink,
}

// Immutable reports whether a field can only be written when the record is created.
func Immutable(name string) bool {
	return name == FieldID || name == FieldUID
}

// Anime is one catalog record. Nil pointers are stored as NULL.
type Anime struct {
	ID         int64    `json:"id"`
	UID        int64    `json:"uid"`
	Title      string   `json:"title"`
	Synopsis   *string  `json:"synopsis"`
	Genre      []string `json:"genre"`
	Aired      *string  `json:"aired"`
	Episodes   *int64   `json:"episodes"`
	Members    *int64   `json:"members"`
	Popularity *int64   `json:"popularity"`
	Ranked     *int64   `json:"ranked"`
	Score      *float64 `json:"score"`
	ImgURL     *string  `json:"img_url"`
	Link       *string  `json:"link"`
}

// Field is one validated input value. Value is nil (no value), int64, float64,
// string or []string depending on the field.
type Field struct {
	Name  string
	Value any
}

// NewAnime builds a record from validated create fields.
func NewAnime(fields []Field) Anime {
	var a Anime
	for _, f := range fields {
		a.Apply(f)
	}
	if a.Genre == nil {
		a.Genre = []string{}
	}
	return a
}

// Apply overwrites the field named by f. Unknown names are ignored.
func (a *Anime) Apply(f Field) {
	switch f.Name {
	case FieldID:
		if v, ok := f.Value.(int64); ok {
			a.ID = v
		}
	case FieldUID:
		if v, ok := f.Value.(int64); ok {
			a.UID = v
		}
	case FieldTitle:
		if v, ok := f.Value.(string); ok {
			a.Title = v
		}
	case FieldGenre:
		if v, ok := f.Value.([]string); ok {
			a.Genre = append([]string(nil), v...)
		}
	case FieldSynopsis:
		a.Synopsis = stringPtr(f.Value)
	case FieldAired:
		a.Aired = stringPtr(f.Value)
	case FieldImgURL:
		a.ImgURL = stringPtr(f.Value)
	case FieldLink:
		a.Link = stringPtr(f.Value)
	case FieldEpisodes:
		a.Episodes = intPtr(f.Value)
	case FieldMembers:
		a.Members = intPtr(f.Value)
	case FieldPopularity:
		a.Popularity = intPtr(f.Value)
	case FieldRanked:
		a.Ranked = intPtr(f.Value)
	case FieldScore:
		if v, ok := f.Value.(float64); ok {
			a.Score = &v
		} else {
			a.Score = nil
		}
	}
}

func stringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func intPtr(v any) *int64 {
	if n, ok := v.(int64); ok {
		return &n
	}
	return nil
}
