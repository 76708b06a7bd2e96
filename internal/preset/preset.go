package preset

import (
	"slices"

	"github.com/google/uuid"
)

// OwnerID tags preset blobs that belong to the silence stage. Hosts store
// blobs from many components side by side and route them by this value.
var OwnerID = uuid.MustParse("750fbc09-5337-42d5-9a0f-9e76611d7ec2")

const (
	DefaultPostSilenceMS = 2000
	DefaultPreSilenceMS  = 0

	// Separator joins skip fragments in the serialized form.
	Separator = ';'
)

// Params is the full configuration of the silence stage.
type Params struct {
	PostSilenceMS uint32   // silence appended after a track ends
	PreSilenceMS  uint32   // silence inserted before a track's first chunk
	SkipSubpaths  []string // tracks whose path contains any of these get no silence
}

// Default returns the compiled-in configuration.
func Default() Params {
	return Params{
		PostSilenceMS: DefaultPostSilenceMS,
		PreSilenceMS:  DefaultPreSilenceMS,
	}
}

// Equal reports whether both parameter sets are identical, including
// fragment order. A nil and an empty fragment list compare equal.
func (p Params) Equal(o Params) bool {
	return p.PostSilenceMS == o.PostSilenceMS &&
		p.PreSilenceMS == o.PreSilenceMS &&
		slices.Equal(p.SkipSubpaths, o.SkipSubpaths)
}

// Clone returns a copy that shares no memory with p.
func (p Params) Clone() Params {
	p.SkipSubpaths = slices.Clone(p.SkipSubpaths)
	return p
}

// Blob is a serialized preset as held by the host.
type Blob struct {
	Owner uuid.UUID
	Data  []byte
}

// NewBlob encodes p and tags it with OwnerID.
func NewBlob(p Params) Blob {
	return Blob{Owner: OwnerID, Data: Encode(p)}
}

// DefaultBlob is the preset a host should offer when none is stored.
func DefaultBlob() Blob {
	return NewBlob(Default())
}
