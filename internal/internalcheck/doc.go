// Package internalcheck holds repository policy tests.
//
// The checks load the module with golang.org/x/tools/go/packages and inspect
// its syntax. They guard the C boundary: every exported entry point must be a
// thin shim into an operation wrapped by the boundary package, and only the
// packages that own C allocations may use cgo.
//
// # Internal Use Only
//
// This package has no API. It exists for its tests.
package internalcheck
