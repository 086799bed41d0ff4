package cpg

// Version is the library version, overridable at build time via
// -ldflags "-X github.com/paulsava/cpg.Version=...".
var Version = "0.1.0"
