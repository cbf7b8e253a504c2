// Package soinfo ships the default fixture profiles used by the offline
// provider.
package soinfo

import (
	"embed"
	"errors"
	"io/fs"
	"os"
)

//go:embed fixtures/profiles.yaml
var fixtureFiles embed.FS

// Fixtures holds profiles.yaml at its root.
var Fixtures fs.FS = func() fs.FS {
	sub, err := fs.Sub(fixtureFiles, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}()

// OverlayFS serves files from dir when they exist there and from base
// otherwise. A blank dir serves base unchanged.
func OverlayFS(dir string, base fs.FS) fs.FS {
	if dir == "" {
		return base
	}
	return layered{top: os.DirFS(dir), base: base}
}

type layered struct {
	top, base fs.FS
}

func (l layered) Open(name string) (fs.File, error) {
	f, err := l.top.Open(name)
	switch {
	case err == nil:
		return f, nil
	case errors.Is(err, fs.ErrNotExist):
		return l.base.Open(name)
	default:
		return nil, err
	}
}
