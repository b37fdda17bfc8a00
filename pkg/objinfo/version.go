package objinfo

// Version is populated at build time via
// -ldflags "-X github.com/hsiuhsiu/objinfo-go/pkg/objinfo.Version=...".
var Version = "v0.0.0-in-progress"
