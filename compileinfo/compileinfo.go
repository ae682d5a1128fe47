// Package compileinfo reports the VCS state a binary was built from, so that
// a background artifact can be traced to the code that produced it.
package compileinfo

import (
	"fmt"
	"path"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

type CompileInfo struct {
	Package    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

// Binary is the last element of the package path, e.g. buildbackground.
func (c CompileInfo) Binary() string {
	if c.Package == "" {
		return "(unknown)"
	}
	return path.Base(c.Package)
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("This %s binary was built with %s at commit %v at time %v.%s", c.Binary(), c.GoVersion, c.Commit, c.CommitTime, mod)
}

// Fields returns the build information for structured logging.
func (c CompileInfo) Fields() logrus.Fields {
	return logrus.Fields{
		"binary":   c.Binary(),
		"go":       c.GoVersion,
		"commit":   c.Commit,
		"modified": c.Modified,
	}
}

func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{}
	}

	return fromBuildInfo(z)
}

func fromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		GoVersion: z.GoVersion,
		Package:   z.Path,
	}
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
