// Command libobjinfo is the objinfo C library. Build it with
//
//	go build -buildmode=c-shared -o libobjinfo.so ./cmd/libobjinfo
//
// and include the generated libobjinfo.h, which pulls in
// include/objinfo_types.h.
//
// Every exported function reports failures through an optional
// objinfo_error_t, returns NULL or zero on failure, and never lets a Go panic
// reach the caller. Each pointer result has exactly one matching free
// function; passing NULL to any free function is a no-op.
//
// Configuration is read on the first call from the file named by
// OBJINFO_CONFIG and from OBJINFO_* environment variables.
package main

func main() {}
