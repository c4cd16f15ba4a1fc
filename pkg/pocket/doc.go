// Package pocket implements the in-memory settings tree for the Smeagol
// store. A Pocket is a mapping from string keys to scalar values, lists,
// or nested sub-pockets. Every mutation emits the pocket's OnChanged
// signal, which is chained upward through the parent pockets so that a
// change anywhere in the tree reaches the root; a persistent root (see
// pkg/store) connects its save routine to that signal.
package pocket
