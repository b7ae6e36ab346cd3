// Package tree implements AVL mechanics over nodes stored in a heap.
//
// A tree is anchored by a root alloc whose payload is a single child pointer,
// so the top node is replaced the same way as any other child. Every node
// carries its two children, its parent, the depth of its subtree and the
// number of items in its subtree; the item count a node contributes on its
// own is supplied by a Shape.
//
// Directions name in-order traversal: Backward walks towards the first node,
// Forward towards the last. The Backward child is the left child.
//
// All structural operations leave the tree balanced and its aggregates
// current before they return.
package tree
