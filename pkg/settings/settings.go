// Package settings provides build metadata, run configuration and context
// helpers shared by the kvgrid CLI and its packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "kvgrid"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds the commit hash, version and build timestamp of the binary.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Input describes where the rows of a run come from.
type Input struct {
	FromStdin bool
	Path      string
}

// Run holds the settings of a single execution.
type Run struct {
	MinLogLevel int8
	Input       Input
	IsQuiet     bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams returns the defaults for a CLI run: info logging, input from
// stdin, colors on, exit on error.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Input:       Input{FromStdin: true},
		IsQuiet:     false,
		NoColor:     false,
		ExitOnError: true,
	}
}

// InputName describes the input for logs and messages.
func (r *Run) InputName() string {
	if r == nil || r.Input.Path == "" {
		return "stdin"
	}
	return r.Input.Path
}
