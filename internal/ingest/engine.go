package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Engine loads module descriptions from a filesystem.
type Engine struct {
	FS      billy.Filesystem
	Options Options
}

func NewEngine(fsys billy.Filesystem, opts Options) *Engine {
	return &Engine{FS: fsys, Options: opts}
}

// Ingest loads a module description, or every .json file below a
// directory in lexical order.
func (e *Engine) Ingest(path string) ([]*Unit, error) {
	info, err := e.FS.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		u, err := e.Load(path)
		if err != nil {
			return nil, err
		}
		return []*Unit{u}, nil
	}

	var files []string
	err = util.Walk(e.FS, path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && filepath.Ext(p) == ".json" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	sort.Strings(files)

	units := make([]*Unit, 0, len(files))
	for _, f := range files {
		u, err := e.Load(f)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	if len(units) == 0 {
		log.Printf("ingest: no module descriptions under %s", path)
	}
	return units, nil
}

// Load reads and decodes one module description.
func (e *Engine) Load(path string) (*Unit, error) {
	data, err := util.ReadFile(e.FS, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(path, data, e.Options)
}
