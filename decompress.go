package flowcompass

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZlib
	DataTypeBZip2
	DataTypeLZW
)

func (d DataType) String() string {
	switch d {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZlib:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	case DataTypeLZW:
		return "lzw"
	}

	return "invalid"
}

// Byte code signatures from https://stackoverflow.com/a/19127748/199475
var byteCodeSigs = []struct {
	DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeLZW, []byte{0x1f, 0x9d}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
}

// isZlibHeader reports whether b opens with a deflate zlib header: CM 8 with
// a window of at most 32K, and CMF*256+FLG divisible by 31.
func isZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	cmf, flg := b[0], b[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}

	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// DetectDataType identifies the compression of a stream from its leading
// bytes without consuming them.
func DetectDataType(r *bufio.Reader) (DataType, error) {
	buff, err := r.Peek(6)
	if err != nil && err != io.EOF {
		return DataTypeInvalid, err
	}

	for _, candidate := range byteCodeSigs {
		if bytes.HasPrefix(buff, candidate.sig) {
			return candidate.DataType, nil
		}
	}

	if isZlibHeader(buff) {
		return DataTypeZlib, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompress wraps rc in the decompressor matching its contents. Closing
// the result closes rc. Zip archives are read from their first entry only.
// Unix compress (.Z) streams are recognized but not supported.
func MaybeDecompress(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)

	dt, err := DetectDataType(br)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	switch dt {
	case DataTypeGzip:
		r, err = gzip.NewReader(br)
	case DataTypeZip:
		zr := zipstream.NewReader(br)
		if _, err = zr.Next(); err == nil {
			r = zr
		}
	case DataTypeBZip2:
		r = bzip2.NewReader(br)
	case DataTypeXZ:
		r, err = xz.NewReader(br, 0)
	case DataTypeZlib:
		r, err = zlib.NewReader(br)
	case DataTypeLZW:
		err = fmt.Errorf("%s compressed input is not supported", dt)
	default:
		r = br
	}
	if err != nil {
		return nil, err
	}

	return &stackedReadCloser{Reader: r, closer: rc}, nil
}

// stackedReadCloser reads from a decompressor but closes the stream beneath
// it.
type stackedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (c *stackedReadCloser) Close() error {
	if rc, ok := c.Reader.(io.Closer); ok {
		rc.Close()
	}

	return c.closer.Close()
}
