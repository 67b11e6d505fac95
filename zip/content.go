package zip

import (
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// countWriter wraps the sink and is the single point of truth for the number
// of bytes physically flushed to it.
type countWriter struct {
	w     io.Writer
	count int64
}

func (w *countWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.count += int64(n)
	return n, err
}

// contentResult is what every content path reports back: the running CRC and
// both byte counts, accumulated without holding the content in memory.
type contentResult struct {
	crc32        uint32
	compressed   uint64
	uncompressed uint64
}

// storeCopy streams src to dst verbatim in bounded blocks, accumulating the
// CRC and byte count as it goes.
func storeCopy(dst io.Writer, src io.Reader) (contentResult, error) {
	var res contentResult
	buf := make([]byte, blockSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			res.crc32 = crc32.Update(res.crc32, crc32.IEEETable, buf[:n])
			res.uncompressed += uint64(n)
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return res, errors.Wrap(werr, "zip: write stored content")
			}
		}
		if err == io.EOF {
			res.compressed = res.uncompressed
			return res, nil
		}
		if err != nil {
			return res, errors.Wrap(err, "zip: read content")
		}
	}
}

// deflateCopy streams src through an incremental deflate encoder into dst,
// block by block. Closing the encoder flushes its internal buffer; those
// trailing bytes count toward the compressed size.
func deflateCopy(dst io.Writer, src io.Reader) (contentResult, error) {
	var res contentResult
	cw := &countWriter{w: dst}
	fw, err := flate.NewWriter(cw, flate.DefaultCompression)
	if err != nil {
		return res, errors.Wrap(err, "zip: init deflate encoder")
	}
	buf := make([]byte, blockSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			res.crc32 = crc32.Update(res.crc32, crc32.IEEETable, buf[:n])
			res.uncompressed += uint64(n)
			if _, werr := fw.Write(buf[:n]); werr != nil {
				return res, errors.Wrap(werr, "zip: deflate content")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return res, errors.Wrap(rerr, "zip: read content")
		}
	}
	if err := fw.Close(); err != nil {
		return res, errors.Wrap(err, "zip: finish deflate stream")
	}
	res.compressed = uint64(cw.count)
	return res, nil
}

// spool copies src to a temporary file, accumulating CRC and size on the way
// in. Store mode needs both before the local header can be written, so an
// unsized stream is materialized once here and replayed to the sink after the
// header. The caller owns the returned file and must close it; closing also
// unlinks it.
func spool(src io.Reader) (*spoolFile, uint32, uint64, error) {
	f, err := os.CreateTemp("", "streamzip-spool-*")
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "zip: create spool file")
	}
	sf := &spoolFile{f: f}
	res, err := storeCopy(f, src)
	if err != nil {
		sf.Close()
		return nil, 0, 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		sf.Close()
		return nil, 0, 0, errors.Wrap(err, "zip: rewind spool file")
	}
	return sf, res.crc32, res.uncompressed, nil
}

type spoolFile struct {
	f *os.File
}

func (s *spoolFile) Read(p []byte) (int, error) { return s.f.Read(p) }

func (s *spoolFile) Close() error {
	name := s.f.Name()
	err := s.f.Close()
	if rerr := os.Remove(name); err == nil {
		err = rerr
	}
	return err
}
