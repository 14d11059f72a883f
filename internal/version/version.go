package version

import "runtime/debug"

// Build-time parameters set via -ldflags
var (
	Version = "devel"
	Commit  = "unknown"
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if Version == "devel" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && Commit == "unknown" {
			Commit = s.Value
		}
	}
}
