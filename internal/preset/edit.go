package preset

import (
	"math"
	"strconv"
	"strings"
)

// Field names used in Rejected records.
const (
	FieldPreSilence  = "pre_silence_ms"
	FieldPostSilence = "post_silence_ms"
)

// Edit holds values as a user typed them in a configuration form. A nil
// field was not touched.
type Edit struct {
	PreSilenceMS  *int64
	PostSilenceMS *int64
	SkipSubpaths  *string
}

// Rejected records a duration the user entered that could not be stored.
// The field keeps its previous value.
type Rejected struct {
	Field    string `json:"field"`
	Value    int64  `json:"value"`
	Restored uint32 `json:"restored"`
}

// ParseEdit builds an Edit from form text. Empty duration text leaves the
// field untouched; text that is not an integer becomes -1 so Apply rejects
// it.
func ParseEdit(pre, post, skip string) Edit {
	return Edit{
		PreSilenceMS:  parseDuration(pre),
		PostSilenceMS: parseDuration(post),
		SkipSubpaths:  &skip,
	}
}

func parseDuration(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v = -1
	}
	return &v
}

// Apply returns a copy of p with e applied. Durations outside the u32
// range are reverted to the value in p and reported; that is not an error.
func (p Params) Apply(e Edit) (Params, []Rejected) {
	out := p.Clone()
	var rejected []Rejected

	restore := func(field string, v *int64, dst *uint32) {
		if v == nil {
			return
		}
		if *v < 0 || *v > math.MaxUint32 {
			rejected = append(rejected, Rejected{Field: field, Value: *v, Restored: *dst})
			return
		}
		*dst = uint32(*v)
	}
	restore(FieldPreSilence, e.PreSilenceMS, &out.PreSilenceMS)
	restore(FieldPostSilence, e.PostSilenceMS, &out.PostSilenceMS)

	if e.SkipSubpaths != nil {
		out.SkipSubpaths = SplitSubpaths(*e.SkipSubpaths, Separator)
	}
	return out, rejected
}
