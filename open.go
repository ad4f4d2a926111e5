package flowcompass

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// SplitGSPath splits gs://bucket/path/to/object into its bucket and object
// names.
func SplitGSPath(path string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it starts with
// gs:// and a client is available, and from the local filesystem otherwise.
func MaybeOpenFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, fmt.Errorf("%s is a Google Storage path, but no storage client was provided", path)
		}

		bucketName, pathName, err := SplitGSPath(path)
		if err != nil {
			return nil, err
		}

		rdr, err := client.Bucket(bucketName).Object(pathName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return rdr, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}

// OpenInput opens path locally or from Google Storage and transparently
// decompresses it. Closing the result closes the underlying file or object.
func OpenInput(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	raw, err := MaybeOpenFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, err
	}

	rc, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rc, nil
}

// OpenTable opens a delimited text table and returns a buffered reader over
// its (decompressed) contents together with the detected delimiter.
func OpenTable(ctx context.Context, path string, client *storage.Client) (*bufio.Reader, rune, io.Closer, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, 0, nil, err
	}

	br := bufio.NewReaderSize(rc, 64*1024)
	delim, err := PeekDelimiter(br)
	if err != nil {
		rc.Close()
		return nil, 0, nil, fmt.Errorf("%s: %w", path, err)
	}

	return br, delim, rc, nil
}
