// Package compileinfoprint is blank-imported by every flowcompass tool so that
// each run's log starts with the build that produced it. Setting
// FLOWCOMPASS_QUIET_BUILDINFO silences the line.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/flowcompass/compileinfo"
)

func init() {
	compileinfo.Announce(os.Stderr, os.Getenv)
}
