// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/Sumatoshi-tech/importonly/pkg/version.Version=v1.0.0"
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "<unknown>"

// Build metadata. Values left empty by the linker are filled from the
// module build info by InitBinaryVersion.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

// InitBinaryVersion fills unset metadata from the embedded build info.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		fillUnknown()

		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" {
		Version = info.Main.Version
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "" {
				Date = s.Value
			}
		}
	}

	fillUnknown()
}

func fillUnknown() {
	for _, v := range []*string{&Version, &Commit, &Date} {
		if *v == "" {
			*v = unknown
		}
	}
}

// String renders "name version (commit: c, built: d)".
func String(name string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", name, Version, Commit, Date)
}
