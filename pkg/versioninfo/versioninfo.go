// Package versioninfo carries build identification, set at link time via
// -ldflags "-X github.com/brk3/fifty/pkg/versioninfo.Version=...".
package versioninfo

var (
	Version   = "dev"
	BuildDate = "unknown"
)

type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
}
