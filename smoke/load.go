package smoke

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/doc"
	"go/parser"
	"go/token"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

// UnitLoader loads a unit and reports everything that keeps it from compiling.
type UnitLoader interface {
	Load(ctx context.Context, u Unit) error
}

// LoadMode asks go/packages for a parsed and type checked package.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes

var _ UnitLoader = (*TypeCheckLoader)(nil)

// TypeCheckLoader loads units with go/packages. Syntax errors, type errors and
// unresolvable imports, in the unit or in anything it imports, fail the load.
type TypeCheckLoader struct{}

func (l *TypeCheckLoader) Load(ctx context.Context, u Unit) error {
	if len(u.Sources) == 0 {
		return nil
	}
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     u.Dir,
	}, ".")
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", u.ImportPath, err)
	}

	var errs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	})
	return errors.Join(errs...)
}

// FindExamples returns the names of the runnable examples in the unit's test
// files, that is examples carrying an output comment.
func FindExamples(u Unit) ([]string, error) {
	fset := token.NewFileSet()
	files := make([]*ast.File, 0, len(u.Tests))
	for _, file := range u.Tests {
		f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(file), err)
		}
		files = append(files, f)
	}

	var names []string
	for _, ex := range doc.Examples(files...) {
		if ex.Output == "" && !ex.EmptyOutput {
			continue
		}
		name := "Example"
		if ex.Name != "" {
			name += ex.Name
		}
		names = append(names, name)
	}
	return names, nil
}
