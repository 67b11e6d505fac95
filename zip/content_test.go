package zip

import (
	"bytes"
	"hash/crc32"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
)

// pattern builds n deterministic bytes, long enough to span block boundaries.
func pattern(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	return buf
}

func TestStoreCopy(t *testing.T) {
	src := pattern(blockSize + 3)
	var dst bytes.Buffer
	res, err := storeCopy(&dst, bytes.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(dst.Bytes(), src) {
		t.Error("stored bytes differ from the source")
	}
	if res.uncompressed != uint64(len(src)) || res.compressed != uint64(len(src)) {
		t.Errorf("sizes = %d/%d, want %d", res.compressed, res.uncompressed, len(src))
	}
	if want := crc32.ChecksumIEEE(src); res.crc32 != want {
		t.Errorf("crc = %08x, want %08x", res.crc32, want)
	}
}

func TestDeflateCopy(t *testing.T) {
	src := bytes.Repeat([]byte("compressible content "), 100000)
	var dst bytes.Buffer
	res, err := deflateCopy(&dst, bytes.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if res.compressed != uint64(dst.Len()) {
		t.Errorf("compressed count = %d, sink has %d", res.compressed, dst.Len())
	}
	if res.uncompressed != uint64(len(src)) {
		t.Errorf("uncompressed count = %d, want %d", res.uncompressed, len(src))
	}
	if res.compressed >= res.uncompressed {
		t.Errorf("repetitive input did not shrink: %d -> %d", res.uncompressed, res.compressed)
	}
	if want := crc32.ChecksumIEEE(src); res.crc32 != want {
		t.Errorf("crc = %08x, want %08x", res.crc32, want)
	}

	fr := flate.NewReader(bytes.NewReader(dst.Bytes()))
	defer fr.Close()
	back, err := io.ReadAll(fr)
	if err != nil {
		t.Fatalf("inflating output: %v", err)
	}
	if !bytes.Equal(back, src) {
		t.Error("inflated bytes differ from the source")
	}
}

func TestDeflateCopyEmpty(t *testing.T) {
	var dst bytes.Buffer
	res, err := deflateCopy(&dst, bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if res.uncompressed != 0 {
		t.Errorf("uncompressed = %d", res.uncompressed)
	}
	// Even an empty stream flushes a final block.
	if res.compressed == 0 || dst.Len() == 0 {
		t.Error("empty deflate stream produced no bytes")
	}
}

func TestSpool(t *testing.T) {
	sf, crc, size, err := spool(strings.NewReader("spooled once"))
	if err != nil {
		t.Fatal(err)
	}
	if size != 12 {
		t.Errorf("size = %d, want 12", size)
	}
	if want := crc32.ChecksumIEEE([]byte("spooled once")); crc != want {
		t.Errorf("crc = %08x, want %08x", crc, want)
	}
	back, err := io.ReadAll(sf)
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != "spooled once" {
		t.Errorf("replayed %q", back)
	}
	if err := sf.Close(); err != nil {
		t.Errorf("closing spool: %v", err)
	}
}

func TestCountWriter(t *testing.T) {
	var dst bytes.Buffer
	cw := &countWriter{w: &dst}
	for _, chunk := range []string{"ab", "", "cdef"} {
		if _, err := io.WriteString(cw, chunk); err != nil {
			t.Fatal(err)
		}
	}
	if cw.count != 6 {
		t.Errorf("count = %d, want 6", cw.count)
	}
}
