package zip

import (
	"time"
)

// ExtraField is one tagged auxiliary block attached to a header. Order within
// a header's extra area is significant; fields injected by the writer (zip64,
// extended timestamp) are placed before caller-supplied ones.
type ExtraField struct {
	ID   uint16
	Data []byte
}

// packExtra flattens fields into the on-wire extra area: 16-bit ID, 16-bit
// payload length, payload, repeated.
func packExtra(fields []ExtraField) []byte {
	if len(fields) == 0 {
		return nil
	}
	n := 0
	for _, f := range fields {
		n += 4 + len(f.Data)
	}
	buf := make([]byte, n)
	b := writeBuf(buf)
	for _, f := range fields {
		b.uint16(f.ID)
		b.uint16(uint16(len(f.Data)))
		copy(b, f.Data)
		b = b[len(f.Data):]
	}
	return buf
}

const (
	modifiedBit = 1 << 0
	accessedBit = 1 << 1
	createdBit  = 1 << 2
)

// timestampExtra builds the extended-timestamp field (0x5455) in both header
// variants. The local variant carries every present time; the central variant
// carries the same flag byte but only the modification time, per convention.
// A zero time is absent.
func timestampExtra(modified, accessed, created time.Time) (local, central ExtraField) {
	var flags uint8
	if !modified.IsZero() {
		flags |= modifiedBit
	}
	if !accessed.IsZero() {
		flags |= accessedBit
	}
	if !created.IsZero() {
		flags |= createdBit
	}

	appendUnix := func(p []byte, t time.Time) []byte {
		var u [4]byte
		b := writeBuf(u[:])
		b.uint32(uint32(t.Unix()))
		return append(p, u[:]...)
	}

	lp := append(make([]byte, 0, 13), flags)
	cp := append(make([]byte, 0, 5), flags)
	if flags&modifiedBit != 0 {
		lp = appendUnix(lp, modified)
		cp = appendUnix(cp, modified)
	}
	if flags&accessedBit != 0 {
		lp = appendUnix(lp, accessed)
	}
	if flags&createdBit != 0 {
		lp = appendUnix(lp, created)
	}
	return ExtraField{ID: extTimeExtraID, Data: lp}, ExtraField{ID: extTimeExtraID, Data: cp}
}

// zip64Extra builds the zip64 extended-information field (0x0001). The caller
// supplies the values in the order the header variant requires: uncompressed
// size then compressed size for a local header, plus the local header offset
// for a central directory header. Disk start number is never populated.
func zip64Extra(values ...uint64) ExtraField {
	buf := make([]byte, 8*len(values))
	b := writeBuf(buf)
	for _, v := range values {
		b.uint64(v)
	}
	return ExtraField{ID: zip64ExtraID, Data: buf}
}
