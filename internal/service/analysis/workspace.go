package analysis

import (
	"context"

	"github.com/panbanda/metriculator/internal/fileproc"
	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/ast/treesitter"
	"github.com/panbanda/metriculator/pkg/metrics"
	"github.com/panbanda/metriculator/pkg/model"
	"github.com/panbanda/metriculator/pkg/traversal"
)

// Workspace is a single scope tree holding every analyzed file under a
// workspace root.
type Workspace struct {
	Tree      *model.Tree
	Structure *metrics.Structure
	Linkage   *metrics.Linkage
	Events    *traversal.Recorder
	Errors    []FileError
}

// BuildWorkspace parses files in parallel and then grafts each translation
// unit under one workspace root, in file order. A file whose traversal fails
// is reported and its partial scopes stay in the tree.
func (s *Service) BuildWorkspace(ctx context.Context, name string, files []string, opts Options) (*Workspace, error) {
	if _, err := s.visitorOptions(); err != nil {
		return nil, err
	}

	popts := fileproc.Options{
		Workers:     s.config.Analysis.Workers,
		MaxFileSize: s.config.Analysis.MaxFileSize,
		OnProgress:  opts.OnProgress,
	}
	units, errs := fileproc.MapFiles(ctx, files, popts, func(prov *treesitter.Provider, path string) (ast.TranslationUnit, error) {
		return prov.Parse(path)
	})

	ws := &Workspace{
		Tree:      model.NewTree(model.NewWorkspace(name)),
		Structure: metrics.NewStructure(),
		Linkage:   metrics.NewLinkage(),
		Events:    &traversal.Recorder{},
	}
	if errs != nil {
		for _, e := range errs.Errors {
			ws.Errors = append(ws.Errors, FileError{Path: e.Path, Error: e.Err.Error()})
		}
	}

	if err := ctx.Err(); err != nil {
		return ws, err
	}
	for _, tu := range units {
		if err := s.graft(ws, tu); err != nil {
			s.logger.Warn("traversal failed", "path", tu.FilePath(), "error", err)
			ws.Errors = append(ws.Errors, FileError{Path: tu.FilePath(), Error: err.Error()})
		}
	}
	ws.Structure.Finish(ws.Tree, ws.Tree.Root())
	return ws, nil
}

func (s *Service) graft(ws *Workspace, tu ast.TranslationUnit) error {
	file, err := model.NewFile(tu)
	if err != nil {
		return err
	}
	id, err := ws.Tree.AddChild(ws.Tree.Root(), file)
	if err != nil {
		return err
	}
	vopts, err := s.visitorOptions(ws.Structure, ws.Linkage, ws.Events)
	if err != nil {
		return err
	}
	vopts = append(vopts, traversal.WithScope(id))
	return traversal.New(ws.Tree, vopts...).Traverse(tu)
}

// BuildTree builds the scope tree of a single file. The returned linkage
// matches declarations against definitions within that file only.
func (s *Service) BuildTree(path string) (*model.Tree, *metrics.Linkage, error) {
	prov := treesitter.New()
	defer prov.Close()

	tu, err := prov.Parse(path)
	if err != nil {
		return nil, nil, err
	}
	root, err := model.NewFile(tu)
	if err != nil {
		return nil, nil, err
	}
	tree := model.NewTree(root)
	linkage := metrics.NewLinkage()
	vopts, err := s.visitorOptions(linkage)
	if err != nil {
		return nil, nil, err
	}
	if err := traversal.New(tree, vopts...).Traverse(tu); err != nil {
		return nil, nil, err
	}
	return tree, linkage, nil
}
