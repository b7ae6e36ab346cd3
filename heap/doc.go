// Package heap opens heapkit stores: a span allocator inside a storage
// region, holding trees of strings, lists and dictionaries.
//
// # Overview
//
// A Store ties a storage.Storage to an alloc.Heap. The first time a storage
// is opened (its version marker is still null) the heap is created and the
// marker set; afterwards the heap is loaded from the persisted header.
//
//	s, err := heap.OpenFile("data.heap", nil)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	root, err := s.PutString("hello")
//	if err != nil {
//	    return err
//	}
//	text, err := s.ReadString(root)
//
// # Concurrency
//
// A Store and every tree opened from it must be used by one goroutine at a
// time. Nothing is locked internally; callers that share a Store wrap it in
// their own mutex.
//
// # Durability
//
// Writes go straight to storage. For file storage they reach the disk on
// Flush or Close. There is no journal: a crash in the middle of an operation
// can leave the heap inconsistent, which Check reports.
package heap
