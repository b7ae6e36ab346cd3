//go:build linux || freebsd

package dirty

import (
	"context"

	"golang.org/x/sys/unix"
)

// flushRanges flushes individual dirty ranges to disk.
//
// On Linux and other Unix systems, msync() can handle sub-slices correctly.
func (t *Tracker) flushRanges(ctx context.Context, data []byte) error {
	for _, r := range t.coalesce() {
		// The preamble page is flushed by FlushHeaderAndMeta.
		if r.Off == 0 {
			if r.Len <= t.pageSize {
				continue
			}
			r.Off, r.Len = t.pageSize, r.Len-t.pageSize
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		start := int(r.Off)
		end := min(int(r.Off+r.Len), len(data))
		if start >= end {
			continue
		}
		if err := unix.Msync(data[start:end], unix.MS_SYNC); err != nil {
			return err
		}
	}
	return nil
}

// msync flushes a memory region to disk.
func msync(data []byte) error {
	return unix.Msync(data, unix.MS_SYNC)
}

// fdatasync performs file descriptor sync.
//
// On Linux/FreeBSD, fdatasync() provides sufficient guarantees.
// The fullfsync parameter is ignored.
func fdatasync(fd int, _ bool) error {
	return unix.Fdatasync(fd)
}
