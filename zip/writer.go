package zip

import (
	"bytes"
	"hash/crc32"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlgorithm     = errors.New("zip: unsupported compression algorithm")
	ErrInvalidName   = errors.New("zip: invalid entry name")
	ErrClosed        = errors.New("zip: writer is closed")
	ErrZip64Disabled = errors.New("zip: entry requires zip64 but zip64 is disabled")
)

// Writer serializes a sequence of items into a single ZIP archive, writing
// strictly forward to a non-seekable sink. Per-item headers are emitted
// immediately; the central directory is buffered and flushed by Close.
//
// A Writer is a single-owner object: it must not be used from more than one
// goroutine at a time.
type Writer struct {
	sink    io.Writer
	cw      *countWriter
	dir     []*centralRecord
	zip64   bool
	version uint16
	closed  bool
	log     logrus.FieldLogger
}

// Options configures a Writer.
type Options struct {
	// DisableZip64 refuses zip64 structures entirely. Writing an entry whose
	// size or offset needs them then fails with ErrZip64Disabled.
	DisableZip64 bool

	// Logger receives debug traces of each structural record emitted. Nil
	// means discard.
	Logger logrus.FieldLogger
}

// New returns a Writer streaming an archive to w, with zip64 support enabled.
func New(w io.Writer) *Writer {
	return NewWriterOptions(w, Options{})
}

// NewWriterOptions returns a Writer streaming an archive to w.
func NewWriterOptions(w io.Writer, opts Options) *Writer {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	zw := &Writer{
		sink:    w,
		cw:      &countWriter{w: w},
		zip64:   !opts.DisableZip64,
		version: zipVersion20,
		log:     log,
	}
	if zw.zip64 {
		zw.version = zipVersion45
	}
	return zw
}

// Item describes one archive member. Name uses forward slashes; a trailing
// slash denotes a directory. Content comes from Data when non-nil, otherwise
// from Content; both nil means an empty entry.
type Item struct {
	Name string

	// Modified, Accessed and Created populate the extended-timestamp extra
	// field; zero values are absent. Modified additionally stamps the MS-DOS
	// date and time fields of the headers (falling back to the current time
	// when zero).
	Modified time.Time
	Accessed time.Time
	Created  time.Time

	// Method is Store or Deflate.
	Method uint16

	// ExternalAttrs is platform specific; the high 16 bits conventionally
	// hold UNIX permission bits.
	ExternalAttrs uint32

	// CreatorOS is the producing system for the central directory's
	// version-made-by field. The zero value is treated as UNIX.
	CreatorOS uint8

	// ASCII marks the content as line-oriented text in the internal
	// attributes.
	ASCII bool

	// Comment is attached to the central directory record. It must stay
	// below 64 KiB; this is not validated.
	Comment string

	// Extra and CentralExtra are caller-supplied extra fields for the local
	// and central headers. Writer-injected fields go in front of them.
	Extra        []ExtraField
	CentralExtra []ExtraField

	// Size declares the uncompressed size when Content is a stream. It is
	// ignored when Data is set; values <= 0 mean unknown.
	Size int64

	Data    []byte
	Content io.Reader
}

func (it *Item) creatorOS() uint8 {
	if it.CreatorOS == 0 {
		return creatorUnix
	}
	return it.CreatorOS
}

// checkName rejects names that would escape the extraction root: absolute
// paths, parent traversal segments, and "./" prefixes.
func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasPrefix(name, "./") {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return errors.Wrapf(ErrInvalidName, "%q", name)
		}
	}
	return nil
}

// WriteItem emits one archive member: local header, extra fields, content and,
// for Deflate, the trailing data descriptor. The matching central directory
// record is buffered until Close. Errors are fatal to the whole archive;
// there is no partial-item recovery.
func (w *Writer) WriteItem(item *Item) error {
	if w.closed {
		return ErrClosed
	}
	if err := checkName(item.Name); err != nil {
		return err
	}
	switch item.Method {
	case Store, Deflate:
	default:
		return errors.Wrapf(ErrAlgorithm, "method %d", item.Method)
	}

	var (
		crc     uint32
		usize   uint64
		content io.Reader
		cleanup io.Closer
	)
	switch {
	case item.Data != nil:
		usize = uint64(len(item.Data))
		content = bytes.NewReader(item.Data)
		if item.Method == Store {
			crc = crc32.ChecksumIEEE(item.Data)
		}
	case item.Content != nil:
		if item.Size > 0 {
			usize = uint64(item.Size)
		}
		content = item.Content
		if item.Method == Store {
			// Store needs CRC and size before the header goes out, so an
			// unsized stream is materialized once to a spool and replayed.
			sf, c, n, err := spool(item.Content)
			if err != nil {
				return err
			}
			crc, usize, content, cleanup = c, n, sf, sf
		}
	}
	if cleanup != nil {
		defer cleanup.Close()
	}

	offset := uint64(w.cw.count)
	zip64 := usize > zip64Limit || offset > zip64Limit
	if zip64 && !w.zip64 {
		return errors.Wrapf(ErrZip64Disabled, "%q", item.Name)
	}

	var flags uint16
	if item.Method == Deflate {
		// Sizes and CRC land in the trailing data descriptor.
		flags |= descriptorFlag
	}
	if nameRequiresUTF8(item.Name) || nameRequiresUTF8(item.Comment) {
		flags |= utf8Flag
	}

	mod := item.Modified
	if mod.IsZero() {
		mod = time.Now()
	}
	modTime, modDate := timeToMsDos(mod)

	// Assemble the local extra area: zip64 first, then the timestamp field,
	// then whatever the caller supplied.
	localExtras := item.Extra
	var tsLocal, tsCentral ExtraField
	hasTimes := !item.Modified.IsZero() || !item.Accessed.IsZero() || !item.Created.IsZero()
	if hasTimes {
		tsLocal, tsCentral = timestampExtra(item.Modified, item.Accessed, item.Created)
		localExtras = append([]ExtraField{tsLocal}, localExtras...)
	}
	if zip64 {
		// In Deflate mode the true sizes are unknown here; the zip64 field
		// carries zero placeholders and the descriptor carries the truth.
		var zsize, zcsize uint64
		if item.Method == Store {
			zsize, zcsize = usize, usize
		}
		localExtras = append([]ExtraField{zip64Extra(zsize, zcsize)}, localExtras...)
	}

	hdr := &localHeader{
		readerVersion: w.version,
		flags:         flags,
		method:        item.Method,
		modTime:       modTime,
		modDate:       modDate,
		name:          item.Name,
		extra:         packExtra(localExtras),
	}
	if item.Method == Store {
		hdr.crc32 = crc
		if zip64 {
			hdr.compressedSize = uint32max
			hdr.uncompressedSize = uint32max
		} else {
			hdr.compressedSize = uint32(usize)
			hdr.uncompressedSize = uint32(usize)
		}
	} else if zip64 {
		hdr.compressedSize = uint32max
		hdr.uncompressedSize = uint32max
	}
	if err := w.emit(hdr.encode(), "local header"); err != nil {
		return err
	}
	w.log.WithFields(logrus.Fields{
		"name":   item.Name,
		"offset": offset,
		"method": item.Method,
		"zip64":  zip64,
	}).Debug("zip: local header written")

	if content == nil {
		content = bytes.NewReader(nil)
	}
	var res contentResult
	var err error
	switch item.Method {
	case Store:
		res, err = storeCopy(w.cw, content)
	case Deflate:
		res, err = deflateCopy(w.cw, content)
	}
	if err != nil {
		return err
	}

	if item.Method == Deflate {
		if err := w.emit(encodeDescriptor(res.crc32, res.compressed, res.uncompressed, zip64), "data descriptor"); err != nil {
			return err
		}
		w.log.WithFields(logrus.Fields{
			"name":         item.Name,
			"crc32":        res.crc32,
			"compressed":   res.compressed,
			"uncompressed": res.uncompressed,
		}).Debug("zip: data descriptor written")
	}

	centralExtras := item.CentralExtra
	if hasTimes {
		centralExtras = append([]ExtraField{tsCentral}, centralExtras...)
	}
	if zip64 {
		centralExtras = append([]ExtraField{zip64Extra(res.uncompressed, res.compressed, offset)}, centralExtras...)
	}

	rec := &centralRecord{
		creatorVersion: uint16(item.creatorOS())<<8 | w.version,
		readerVersion:  w.version,
		flags:          flags,
		method:         item.Method,
		modTime:        modTime,
		modDate:        modDate,
		crc32:          res.crc32,
		externalAttrs:  item.ExternalAttrs,
		name:           item.Name,
		extra:          packExtra(centralExtras),
		comment:        item.Comment,
	}
	if item.ASCII {
		rec.internalAttrs = asciiAttr
	}
	if zip64 {
		rec.compressedSize = uint32max
		rec.uncompressedSize = uint32max
		rec.offset = uint32max
	} else {
		rec.compressedSize = narrow32(res.compressed)
		rec.uncompressedSize = narrow32(res.uncompressed)
		rec.offset = uint32(offset)
	}
	w.dir = append(w.dir, rec)
	return nil
}

// Close flushes the buffered central directory, emits the end records and
// closes the sink if it implements io.Closer. The Writer is unusable
// afterwards.
func (w *Writer) Close() error {
	return w.CloseWithComment("")
}

// CloseWithComment is Close with an archive-level comment attached to the end
// of central directory record.
func (w *Writer) CloseWithComment(comment string) error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	start := uint64(w.cw.count)
	for _, rec := range w.dir {
		if err := w.emit(rec.encode(), "central directory"); err != nil {
			return err
		}
	}
	end := uint64(w.cw.count)
	records := uint64(len(w.dir))
	w.log.WithFields(logrus.Fields{
		"records": records,
		"offset":  start,
		"length":  end - start,
	}).Debug("zip: central directory flushed")

	if w.zip64 {
		// Emitted unconditionally under the zip64 policy: the aggregate
		// directory size or entry count can overflow the legacy fields even
		// when no single entry did.
		if err := w.emit(encodeDirectory64End(records, end-start, start, creatorUnix), "zip64 end of central directory"); err != nil {
			return err
		}
		if err := w.emit(encodeDirectory64Locator(end), "zip64 end of central directory locator"); err != nil {
			return err
		}
	}

	eocd := &directoryEnd{records: records, size: end - start, offset: start, comment: comment}
	if err := w.emit(eocd.encode(), "end of central directory"); err != nil {
		return err
	}
	w.log.WithField("size", w.cw.count).Debug("zip: archive finalized")

	if c, ok := w.sink.(io.Closer); ok {
		return errors.Wrap(c.Close(), "zip: close sink")
	}
	return nil
}

func (w *Writer) emit(rec []byte, what string) error {
	if _, err := w.cw.Write(rec); err != nil {
		return errors.Wrap(err, "zip: write "+what)
	}
	return nil
}

// nameRequiresUTF8 reports whether s needs the UTF-8 general purpose flag:
// valid UTF-8 that is not plain CP-437-compatible ASCII.
func nameRequiresUTF8(s string) bool {
	require := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		// Forbid 0x7e and 0x5c since EUC-KR and Shift-JIS replace those
		// characters with localized currency and overline characters.
		if r < 0x20 || r > 0x7d || r == 0x5c {
			if !utf8.ValidRune(r) || (r == utf8.RuneError && size == 1) {
				return false
			}
			require = true
		}
	}
	return require
}

// timeToMsDos converts t to the 2-second-resolution MS-DOS time and date pair
// used by the fixed header fields.
func timeToMsDos(t time.Time) (dosTime, dosDate uint16) {
	year := t.Year() - 1980
	if year < 0 {
		year = 0
	}
	dosDate = uint16(year<<9 | int(t.Month())<<5 | t.Day())
	dosTime = uint16(t.Hour()<<11 | t.Minute()<<5 | t.Second()/2)
	return dosTime, dosDate
}
