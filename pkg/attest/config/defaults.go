// Package config provides configuration management for the attest checksum
// tool.
package config

// Default configuration values for attest.
const (
	// DefaultPath is the default root to process when none is specified.
	DefaultPath = "."

	// DefaultOutput is the default report format.
	DefaultOutput = "pretty"

	// DefaultWorkers is the default hashing worker count; zero selects
	// one worker per CPU.
	DefaultWorkers = 0

	// DefaultConfigDir is the default configuration directory path.
	DefaultConfigDir = "~/.config/attest"
)

// DefaultExcludeDirs contains directory names skipped by default. These are
// filesystem metadata directories that carry no user content.
var DefaultExcludeDirs = []string{
	"$RECYCLE.BIN",
	"System Volume Information",
}

// DefaultExcludeFiles contains file name patterns skipped by default.
// Checksum artifacts are excluded so manifests never track other manifests.
var DefaultExcludeFiles = []string{
	"desktop.ini",
	"*.sha256",
}
