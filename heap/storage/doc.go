// Package storage provides the flat, growable byte range a heap lives in.
//
// # Overview
//
// A Storage is a contiguous address space addressed by integer offset, with a
// monotonically advancing version marker. The allocator above only ever asks
// it to grow (SetSize), read and write byte ranges. A null version (Version
// returning ok == false) tells the layer above that the region has never been
// initialized.
//
// # Implementations
//
// Mem: a growable byte slice, used by tests and for ephemeral heaps.
//
// File: a heap file. The first 4KB hold a preamble (magic, layout version,
// version marker, logical size); the logical address space follows it. On
// unix the file is mapped read-write and every write is recorded in a
// dirty.Tracker so Flush only syncs pages that changed. Other platforms fall
// back to positioned reads and writes on the *os.File.
//
// # Thread Safety
//
// Storage instances are not thread-safe. The heap is single-writer; callers
// serialize access externally.
package storage
