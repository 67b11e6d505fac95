package zip

import "encoding/binary"

// writeBuf is the write-direction twin of the classic readBuf helper: each
// call stores a little-endian value and advances the slice.
type writeBuf []byte

func (b *writeBuf) uint8(v uint8) {
	(*b)[0] = v
	*b = (*b)[1:]
}

func (b *writeBuf) uint16(v uint16) {
	binary.LittleEndian.PutUint16(*b, v)
	*b = (*b)[2:]
}

func (b *writeBuf) uint32(v uint32) {
	binary.LittleEndian.PutUint32(*b, v)
	*b = (*b)[4:]
}

func (b *writeBuf) uint64(v uint64) {
	binary.LittleEndian.PutUint64(*b, v)
	*b = (*b)[8:]
}

// narrow32 collapses v to the 32-bit sentinel once it no longer fits the
// legacy field; the true value then lives in a zip64 structure.
func narrow32(v uint64) uint32 {
	if v >= uint32max {
		return uint32max
	}
	return uint32(v)
}

// narrow16 is the 16-bit analogue, used for entry counts.
func narrow16(v uint64) uint16 {
	if v >= uint16max {
		return uint16max
	}
	return uint16(v)
}

// localHeader carries every field of a local file header, already resolved to
// its on-wire presentation (sentinels applied by the caller).
type localHeader struct {
	readerVersion    uint16
	flags            uint16
	method           uint16
	modTime          uint16
	modDate          uint16
	crc32            uint32
	compressedSize   uint32
	uncompressedSize uint32
	name             string
	extra            []byte
}

func (h *localHeader) encode() []byte {
	buf := make([]byte, fileHeaderLen, fileHeaderLen+len(h.name)+len(h.extra))
	b := writeBuf(buf)
	b.uint32(fileHeaderSignature)
	b.uint16(h.readerVersion)
	b.uint16(h.flags)
	b.uint16(h.method)
	b.uint16(h.modTime)
	b.uint16(h.modDate)
	b.uint32(h.crc32)
	b.uint32(h.compressedSize)
	b.uint32(h.uncompressedSize)
	b.uint16(uint16(len(h.name)))
	b.uint16(uint16(len(h.extra)))
	buf = append(buf, h.name...)
	return append(buf, h.extra...)
}

// encodeDescriptor builds the trailing data descriptor. The sizes are 8 bytes
// wide when the entry uses the zip64 layout, 4 bytes otherwise.
func encodeDescriptor(crc uint32, compressed, uncompressed uint64, zip64 bool) []byte {
	var buf []byte
	if zip64 {
		buf = make([]byte, dataDescriptor64Len)
	} else {
		buf = make([]byte, dataDescriptorLen)
	}
	b := writeBuf(buf)
	b.uint32(dataDescriptorSignature)
	b.uint32(crc)
	if zip64 {
		b.uint64(compressed)
		b.uint64(uncompressed)
	} else {
		b.uint32(uint32(compressed))
		b.uint32(uint32(uncompressed))
	}
	return buf
}

// centralRecord is the fully resolved snapshot of one archive member, kept in
// the directory accumulator until Close flushes it.
type centralRecord struct {
	creatorVersion   uint16
	readerVersion    uint16
	flags            uint16
	method           uint16
	modTime          uint16
	modDate          uint16
	crc32            uint32
	compressedSize   uint32
	uncompressedSize uint32
	internalAttrs    uint16
	externalAttrs    uint32
	offset           uint32
	name             string
	extra            []byte
	comment          string
}

func (r *centralRecord) encode() []byte {
	buf := make([]byte, directoryHeaderLen, directoryHeaderLen+len(r.name)+len(r.extra)+len(r.comment))
	b := writeBuf(buf)
	b.uint32(directoryHeaderSignature)
	b.uint16(r.creatorVersion)
	b.uint16(r.readerVersion)
	b.uint16(r.flags)
	b.uint16(r.method)
	b.uint16(r.modTime)
	b.uint16(r.modDate)
	b.uint32(r.crc32)
	b.uint32(r.compressedSize)
	b.uint32(r.uncompressedSize)
	b.uint16(uint16(len(r.name)))
	b.uint16(uint16(len(r.extra)))
	b.uint16(uint16(len(r.comment)))
	b.uint16(0) // disk number start
	b.uint16(r.internalAttrs)
	b.uint32(r.externalAttrs)
	b.uint32(r.offset)
	buf = append(buf, r.name...)
	buf = append(buf, r.extra...)
	return append(buf, r.comment...)
}

// directoryEnd holds the true 64-bit totals; encode narrows them to the legacy
// field widths, substituting sentinels where they no longer fit.
type directoryEnd struct {
	records uint64
	size    uint64
	offset  uint64
	comment string
}

func (d *directoryEnd) encode() []byte {
	buf := make([]byte, directoryEndLen, directoryEndLen+len(d.comment))
	b := writeBuf(buf)
	b.uint32(directoryEndSignature)
	b.uint16(0)                 // number of this disk
	b.uint16(0)                 // disk where the directory starts
	b.uint16(narrow16(d.records))
	b.uint16(narrow16(d.records))
	b.uint32(narrow32(d.size))
	b.uint32(narrow32(d.offset))
	b.uint16(uint16(len(d.comment)))
	return append(buf, d.comment...)
}

// encodeDirectory64End builds the zip64 end of central directory record with
// the unnarrowed totals.
func encodeDirectory64End(records, size, offset uint64, creatorOS uint8) []byte {
	buf := make([]byte, directory64EndLen)
	b := writeBuf(buf)
	b.uint32(directory64EndSignature)
	b.uint64(directory64EndLen - 12) // length excluding signature and this field
	b.uint16(uint16(creatorOS)<<8 | zipVersion45)
	b.uint16(zipVersion45)
	b.uint32(0)       // number of this disk
	b.uint32(0)       // disk where the directory starts
	b.uint64(records) // entries on this disk
	b.uint64(records) // entries total
	b.uint64(size)
	b.uint64(offset)
	return buf
}

// encodeDirectory64Locator points readers at the zip64 end record, which sits
// at endOffset, immediately before the locator itself.
func encodeDirectory64Locator(endOffset uint64) []byte {
	buf := make([]byte, directory64LocLen)
	b := writeBuf(buf)
	b.uint32(directory64LocSignature)
	b.uint32(0) // disk holding the zip64 end record
	b.uint64(endOffset)
	b.uint32(1) // total number of disks
	return buf
}
