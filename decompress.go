package metabarcoding

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"io"
	"os"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type Compression byte

const (
	CompressionInvalid Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZip
	CompressionXZ
	CompressionBZip2
)

var byteCodeSigs = map[Compression][]byte{
	CompressionGzip:  {0x1f, 0x8b, 0x08},
	CompressionZip:   {0x50, 0x4b, 0x03, 0x04},
	CompressionXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	CompressionBZip2: {0x42, 0x5a, 0x68},
}

// DetectCompression attempts to detect the compression of a stream by checking
// its leading bytes against a set of known signatures. Byte code signatures
// from https://stackoverflow.com/a/19127748/199475
//
// Streams shorter than the longest signature (including empty ones) are
// reported as uncompressed.
func DetectCompression(r io.Reader) (Compression, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return CompressionInvalid, err
	}
	buff = buff[:n]

	for c, sig := range byteCodeSigs {
		if bytes.HasPrefix(buff, sig) {
			return c, nil
		}
	}

	return CompressionNone, nil
}

// OpenDecompressed opens the file at path and, if it is compressed with one of
// the known formats, returns a reader over its decompressed contents. For zip
// archives, the first entry is read. Closing the returned reader closes the
// underlying file.
func OpenDecompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	c, err := DetectCompression(f)
	if err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	// Reset the original reader
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, pfx.Err(err)
	}

	var r io.Reader
	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}
		return &stackedReadCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case CompressionZip:
		zr := zipstream.NewReader(f)
		if _, err := zr.Next(); err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}
		r = zr
	case CompressionBZip2:
		r = bzip2.NewReader(f)
	case CompressionXZ:
		xr, err := xz.NewReader(f, 0)
		if err != nil {
			f.Close()
			return nil, pfx.Err(err)
		}
		r = xr
	default:
		// Nothing detected. We assume this is uncompressed.
		return f, nil
	}

	return &stackedReadCloser{Reader: r, closers: []io.Closer{f}}, nil
}

// stackedReadCloser closes every layer of a decompression stack, innermost
// first.
type stackedReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReadCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
