package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Report which build of yapper this is.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// releaseVersion is stamped by the release build:
//
//	go build -ldflags "-X github.com/doismellburning/yapper/src.releaseVersion=1.0"
//
// Development builds identify themselves by VCS revision alone.
var releaseVersion = "dev"

func versionString(verbose bool) string {
	var revision = "unknown"
	var builtAt = "unknown"
	var dirty bool

	var bi, ok = debug.ReadBuildInfo()
	if ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.time":
				builtAt = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
	}

	if dirty {
		revision += "+dirty"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "yapper %s (%s, built %s)\n", releaseVersion, revision, builtAt)

	if verbose && ok {
		fmt.Fprintf(&b, "\n%+v\n", bi)
	}

	return b.String()
}

func printVersion(verbose bool) {
	fmt.Print(versionString(verbose))
}
