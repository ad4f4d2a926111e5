package flowcompass

import (
	"bufio"
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// PeekDelimiter determines the delimiter from the first few kilobytes of br
// without consuming them. Tabs win whenever the header line contains one,
// since exported event tables are usually tab-delimited and their header
// names may contain commas.
func PeekDelimiter(br *bufio.Reader) (rune, error) {
	sample, err := br.Peek(16 * 1024)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return 0, err
	}

	firstLine := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		firstLine = sample[:i]
	}
	if bytes.IndexByte(firstLine, '\t') >= 0 {
		return '\t', nil
	}

	return DetermineDelimiter(bytes.NewReader(sample)), nil
}
