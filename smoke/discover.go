// Package smoke performs a quick self-check of a Go source tree: every package is
// loaded and its runnable examples are executed.
package smoke

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/mod/modfile"
)

// DefaultExcludes are directory names never descended into.
var DefaultExcludes = []string{"vendor", "third_party", "testdata", "_examples"}

// Unit is one discovered package.
type Unit struct {
	Dir        string
	ImportPath string
	Sources    []string // non-test .go files, doc.go excluded
	Tests      []string // _test.go files
	FileCount  int      // every regular file in Dir, used for progress
}

// Inventory is the result of a discovery walk.
type Inventory struct {
	Units      []Unit
	TotalFiles int // every regular file in the walked directories, package or not
}

// Discoverer enumerates the units to smoke test.
type Discoverer interface {
	Discover(ctx context.Context) (*Inventory, error)
}

var _ Discoverer = (*GoPackageDiscoverer)(nil)

// GoPackageDiscoverer walks a Go module rooted at Root. Hidden directories, nested
// modules and any directory whose name or root-relative path is excluded are skipped.
type GoPackageDiscoverer struct {
	Root    string
	Exclude []string
}

// ModulePath reads the module path from the go.mod in root.
func ModulePath(root string) (string, error) {
	goModPath := filepath.Join(root, "go.mod")
	content, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	modFile, err := modfile.Parse(goModPath, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod: %w", err)
	}
	if modFile.Module == nil || modFile.Module.Mod.Path == "" {
		return "", fmt.Errorf("could not find module name in go.mod")
	}
	return modFile.Module.Mod.Path, nil
}

func (d *GoPackageDiscoverer) excluded(rel, name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	for _, ex := range slices.Concat(DefaultExcludes, d.Exclude) {
		ex = strings.Trim(filepath.ToSlash(ex), "/")
		if ex == name || ex == rel {
			return true
		}
	}
	return false
}

// Discover implements Discoverer. Units are returned in lexical directory order.
func (d *GoPackageDiscoverer) Discover(ctx context.Context) (*Inventory, error) {
	root, err := filepath.Abs(d.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", d.Root, err)
	}
	modulePath, err := ModulePath(root)
	if err != nil {
		return nil, err
	}

	inv := &Inventory{}
	err = filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel != "." {
			if d.excluded(rel, entry.Name()) {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(p, "go.mod")); err == nil {
				return filepath.SkipDir
			}
		}

		unit, err := scanDir(p)
		if err != nil {
			return err
		}
		if len(unit.Sources) == 0 && len(unit.Tests) == 0 {
			inv.TotalFiles += unit.FileCount
			return nil
		}
		unit.ImportPath = modulePath
		if rel != "." {
			unit.ImportPath = path.Join(modulePath, rel)
		}
		inv.Units = append(inv.Units, *unit)
		inv.TotalFiles += unit.FileCount
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return inv, nil
}

func scanDir(dir string) (*Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read package directory: %w", err)
	}
	unit := &Unit{Dir: dir}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		unit.FileCount++
		name := entry.Name()
		switch {
		case !strings.HasSuffix(name, ".go"):
		case strings.HasSuffix(name, "_test.go"):
			unit.Tests = append(unit.Tests, filepath.Join(dir, name))
		case name == "doc.go":
		default:
			unit.Sources = append(unit.Sources, filepath.Join(dir, name))
		}
	}
	return unit, nil
}
