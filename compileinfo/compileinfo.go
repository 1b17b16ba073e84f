// Package compileinfo reports how the running binary was built.
package compileinfo

import (
	"fmt"
	"io"
	"runtime/debug"

	"go.uber.org/zap"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Package == "" {
		return "metabarcoding (no build information)"
	}

	out := fmt.Sprintf("%s %s, built with %s", c.Package, c.Version, c.GoVersion)
	if c.Commit != "" {
		out += fmt.Sprintf(" at commit %s (%s)", c.Commit, c.CommitTime)
	}
	if c.Modified {
		out += ", with uncommitted changes"
	}

	return out
}

// Fields returns the build information as structured log fields.
func (c CompileInfo) Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", c.Version),
		zap.String("go", c.GoVersion),
		zap.String("commit", c.Commit),
		zap.Bool("modified", c.Modified),
	}
}

func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	out.Version = z.Main.Version
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

// Fprint writes the build information of the running binary to w.
func Fprint(w io.Writer) error {
	_, err := fmt.Fprintln(w, Get())
	return err
}
