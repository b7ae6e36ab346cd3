package storage

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joshuapare/heapkit/internal/format"
)

// FileOptions configures OpenFile.
type FileOptions struct {
	// ReadOnly maps the file read-only; mutating calls fail with ErrReadOnly.
	ReadOnly bool

	// NoCreate fails instead of creating a missing file.
	NoCreate bool
}

// openHeapFile opens path and makes sure it starts with a valid preamble,
// writing a fresh one (logical size 0, null version) into a new or empty file.
func openHeapFile(path string, opts FileOptions) (*os.File, format.Preamble, error) {
	flag := os.O_RDWR
	if opts.ReadOnly {
		flag = os.O_RDONLY
	} else if !opts.NoCreate {
		flag |= os.O_CREATE
	}

	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, format.Preamble{}, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, format.Preamble{}, err
	}

	if st.Size() == 0 {
		if opts.ReadOnly {
			_ = f.Close()
			return nil, format.Preamble{}, fmt.Errorf("storage: empty heap file: %s", path)
		}
		pre := format.Preamble{Layout: format.LayoutVersion}
		b := make([]byte, format.PreambleSize)
		format.PutPreamble(b, pre)
		if _, err := f.WriteAt(b, 0); err != nil {
			_ = f.Close()
			return nil, format.Preamble{}, fmt.Errorf("storage: write preamble: %w", err)
		}
		return f, pre, nil
	}

	b := make([]byte, format.PreambleSize)
	if _, err := f.ReadAt(b, 0); err != nil && !errors.Is(err, io.EOF) {
		_ = f.Close()
		return nil, format.Preamble{}, fmt.Errorf("storage: read preamble: %w", err)
	}
	pre, err := format.ParsePreamble(b)
	if err != nil {
		_ = f.Close()
		return nil, format.Preamble{}, fmt.Errorf("storage: %s: %w", path, err)
	}
	if end := int64(format.PreambleSize) + int64(pre.Size); end > st.Size() {
		_ = f.Close()
		return nil, format.Preamble{}, fmt.Errorf(
			"storage: %s: logical size %d beyond file size %d: %w",
			path, pre.Size, st.Size(), format.ErrTruncated,
		)
	}
	return f, pre, nil
}

func checkRange(off int64, n int, size int64) bool {
	return off >= 0 && n >= 0 && off <= size && int64(n) <= size-off
}
