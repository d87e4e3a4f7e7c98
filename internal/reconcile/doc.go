// Package reconcile overlays stored annotations on generated addresses and
// maps in-session edits back onto the canonical collection.
//
// Every function here is pure: inputs are never mutated and the returned
// slices are fresh copies.
package reconcile
