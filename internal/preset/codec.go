package preset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Version tags of the versioned layout. Encode writes 5 and Decode only
// reads 6, so Decode(Encode(p)) fails with a FormatError. Stored presets
// in the wild depend on both tags staying as they are.
const (
	EncodeVersion uint32 = 5
	DecodeVersion uint32 = 6
)

const (
	legacyPostOnlySize = 4  // post_ms
	legacyPostPreSize  = 8  // post_ms, pre_ms
	versionedHeader    = 12 // version, post_ms, pre_ms
)

// ErrFormat matches every decode failure via errors.Is.
var ErrFormat = errors.New("preset: invalid format")

// FormatError describes why a blob could not be decoded.
type FormatError struct {
	Size    int
	Version uint32 // only set when a version tag was read
	Reason  string
}

func (e *FormatError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("preset: %s (size %d, version %d)", e.Reason, e.Size, e.Version)
	}
	return fmt.Sprintf("preset: %s (size %d)", e.Reason, e.Size)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// Decode parses any of the three historical layouts:
//
//	4 bytes   post_ms
//	8 bytes   post_ms, pre_ms
//	>8 bytes  version, post_ms, pre_ms, subpaths (';'-joined, NUL or end terminated)
//
// All integers are little-endian u32. The versioned layout must carry
// DecodeVersion; any other tag, EncodeVersion included, is rejected.
func Decode(data []byte) (Params, error) {
	le := binary.LittleEndian
	size := len(data)

	switch {
	case size == 0:
		return Params{}, &FormatError{Size: size, Reason: "empty preset"}

	case size == legacyPostOnlySize:
		return Params{PostSilenceMS: le.Uint32(data)}, nil

	case size == legacyPostPreSize:
		return Params{
			PostSilenceMS: le.Uint32(data[0:4]),
			PreSilenceMS:  le.Uint32(data[4:8]),
		}, nil

	case size > legacyPostPreSize:
		version := le.Uint32(data[0:4])
		if version != DecodeVersion {
			return Params{}, &FormatError{Size: size, Version: version, Reason: "unsupported version"}
		}
		if size < versionedHeader {
			return Params{}, &FormatError{Size: size, Version: version, Reason: "truncated header"}
		}

		raw := data[versionedHeader:]
		if i := bytes.IndexByte(raw, 0); i >= 0 {
			raw = raw[:i]
		}
		return Params{
			PostSilenceMS: le.Uint32(data[4:8]),
			PreSilenceMS:  le.Uint32(data[8:12]),
			SkipSubpaths:  SplitSubpaths(string(raw), Separator),
		}, nil
	}

	return Params{}, &FormatError{Size: size, Reason: "unrecognized length"}
}

// Encode always writes the versioned layout, tagged EncodeVersion, with no
// trailing NUL. Decode does not accept its output.
func Encode(p Params) []byte {
	joined := JoinSubpaths(p.SkipSubpaths, Separator)

	buf := make([]byte, versionedHeader, versionedHeader+len(joined))
	binary.LittleEndian.PutUint32(buf[0:4], EncodeVersion)
	binary.LittleEndian.PutUint32(buf[4:8], p.PostSilenceMS)
	binary.LittleEndian.PutUint32(buf[8:12], p.PreSilenceMS)
	return append(buf, joined...)
}

// SplitSubpaths splits raw on sep. Empty fragments are dropped and
// whitespace is kept.
func SplitSubpaths(raw string, sep byte) []string {
	var out []string
	for len(raw) > 0 {
		i := strings.IndexByte(raw, sep)
		if i < 0 {
			out = append(out, raw)
			break
		}
		if i > 0 {
			out = append(out, raw[:i])
		}
		raw = raw[i+1:]
	}
	return out
}

// JoinSubpaths is the inverse of SplitSubpaths for fragments that do not
// contain sep.
func JoinSubpaths(fragments []string, sep byte) string {
	return strings.Join(fragments, string(sep))
}
