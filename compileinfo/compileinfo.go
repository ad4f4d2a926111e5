// Package compileinfo reports which commit a flowcompass binary was built
// from, so that count matrices can be traced back to the code that made them.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	commit := c.Commit
	if commit == "" {
		commit = "(unknown)"
	}

	return fmt.Sprintf("%s (%s) was built with %s at commit %v at time %v.%s", c.Binary, c.Package, c.GoVersion, commit, c.CommitTime, mod)
}

func Get() CompileInfo {
	out := CompileInfo{Binary: filepath.Base(os.Args[0])}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// Fprint writes the build information as a single line.
func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s\n", Get())
}

// QuietEnv names the environment variable that, when non-empty, stops
// Announce from printing.
const QuietEnv = "FLOWCOMPASS_QUIET_BUILDINFO"

// Announce prints the build line to w unless getenv(QuietEnv) is set.
func Announce(w io.Writer, getenv func(string) string) {
	if getenv(QuietEnv) != "" {
		return
	}

	Fprint(w)
}
