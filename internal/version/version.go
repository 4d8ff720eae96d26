// internal/version/version.go
package version

// Version is the build version, overridable at link time:
//
//	go build -ldflags "-X epgsim/internal/version.Version=v1.2.3"
var Version = "dev"
