package main

import (
	_ "embed"
	"runtime/debug"
	"strings"

	"github.com/broady/mxapi"
)

//go:embed VERSION
var embeddedVersion string

// Version returns the version string.
//
// Installed binaries report their module version. Development builds report
// "devel-<VERSION>", with "+<revision>" appended when the VCS revision is
// known.
func Version() string {
	base := strings.TrimSpace(embeddedVersion)
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return base
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	if rev := buildSetting(info, "vcs.revision"); len(rev) >= 7 {
		return "devel-" + base + "+" + rev[:7]
	}
	return "devel-" + base
}

func buildSetting(info *debug.BuildInfo, key string) string {
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// matrixVersions lists the Matrix versions path selection understands.
func matrixVersions() string {
	vs := make([]string, len(mxapi.KnownVersions))
	for i, v := range mxapi.KnownVersions {
		vs[i] = v.String()
	}
	return strings.Join(vs, ", ")
}
