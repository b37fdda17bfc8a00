// Package boundary is the cgo-free core of the C ABI: error codes, the error
// classifier and the recovery wrappers every exported function runs through.
//
// # Design Principles
//
//  1. Containment: every exported call runs inside Run, RunPtr or Release.
//     A panic never unwinds into a C frame; it becomes CodeInternal.
//
//  2. Uniform errors: failures are reported through a Reporter (the C error
//     descriptor) as a stable Code plus a human-readable message. Classify is
//     total and never fails.
//
//  3. Sentinels: a failed call returns the zero value of its result type,
//     which is NULL for pointers.
//
//  4. No state: the only package-level value is the logger, set once when the
//     library is configured.
//
// Keeping this package free of import "C" lets it be tested on any platform.
package boundary
