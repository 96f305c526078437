package ntfs

import "fmt"

// DataRun is one run of a non-resident attribute's run list. OffsetDelta
// is the signed cluster distance from the previous run's start; a delta
// of zero marks a sparse run with no backing clusters.
type DataRun struct {
	OffsetDelta int64
	Length      uint64
}

// DecodeDataRuns decodes an NTFS run list. Each run starts with a header
// byte whose low nibble is the width of the little-endian length field
// and whose high nibble is the width of the sign-extended offset delta.
// A header byte of 0x00 terminates the list.
func DecodeDataRuns(b []byte) ([]DataRun, error) {
	var runs []DataRun
	i := 0
	for {
		if i >= len(b) {
			return nil, fmt.Errorf("%w: run list missing terminator", ErrInvalidDataRun)
		}
		header := b[i]
		if header == 0 {
			return runs, nil
		}
		i++
		lengthWidth := int(header & 0x0F)
		offsetWidth := int(header >> 4)
		if lengthWidth == 0 || lengthWidth > 8 || offsetWidth > 8 {
			return nil, fmt.Errorf("%w: bad run header 0x%02X", ErrInvalidDataRun, header)
		}
		if i+lengthWidth+offsetWidth > len(b) {
			return nil, fmt.Errorf("%w: truncated run fields", ErrInvalidDataRun)
		}

		var length uint64
		for j := 0; j < lengthWidth; j++ {
			length |= uint64(b[i+j]) << (8 * j)
		}
		i += lengthWidth

		var delta int64
		for j := 0; j < offsetWidth; j++ {
			delta |= int64(b[i+j]) << (8 * j)
		}
		if offsetWidth > 0 && b[i+offsetWidth-1]&0x80 != 0 {
			// Sign-extend from the declared width.
			for j := offsetWidth; j < 8; j++ {
				delta |= int64(0xFF) << (8 * j)
			}
		}
		i += offsetWidth

		runs = append(runs, DataRun{OffsetDelta: delta, Length: length})
	}
}

// EncodeDataRuns encodes a run list with minimal field widths, the exact
// inverse of DecodeDataRuns.
func EncodeDataRuns(runs []DataRun) []byte {
	out := make([]byte, 0, 4*len(runs)+1)
	for _, r := range runs {
		lengthWidth := unsignedWidth(r.Length)
		offsetWidth := signedWidth(r.OffsetDelta)
		out = append(out, byte(offsetWidth<<4|lengthWidth))
		for j := 0; j < lengthWidth; j++ {
			out = append(out, byte(r.Length>>(8*j)))
		}
		for j := 0; j < offsetWidth; j++ {
			out = append(out, byte(uint64(r.OffsetDelta)>>(8*j)))
		}
	}
	return append(out, 0)
}

// Extent is an absolute cluster range reconstructed from a run list.
type Extent struct {
	Cluster  uint64
	Clusters uint64
	Sparse   bool
}

// RunExtents resolves a run list's relative deltas into absolute cluster
// extents, accumulating from an implicit starting offset of zero.
func RunExtents(runs []DataRun) ([]Extent, error) {
	extents := make([]Extent, 0, len(runs))
	var cluster int64
	for _, r := range runs {
		if r.OffsetDelta == 0 {
			extents = append(extents, Extent{Clusters: r.Length, Sparse: true})
			continue
		}
		cluster += r.OffsetDelta
		if cluster < 0 {
			return nil, fmt.Errorf("%w: run list walks below cluster 0", ErrInvalidDataRun)
		}
		extents = append(extents, Extent{Cluster: uint64(cluster), Clusters: r.Length})
	}
	return extents, nil
}

// unsignedWidth is the minimal byte count holding v, at least 1.
func unsignedWidth(v uint64) int {
	w := 1
	for v > 0xFF {
		v >>= 8
		w++
	}
	return w
}

// signedWidth is the minimal byte count from which sign extension
// reproduces v; zero for v == 0 (the sparse-run convention).
func signedWidth(v int64) int {
	if v == 0 {
		return 0
	}
	for w := 1; w < 8; w++ {
		shift := uint(64 - 8*w)
		if v<<shift>>shift == v {
			return w
		}
	}
	return 8
}
