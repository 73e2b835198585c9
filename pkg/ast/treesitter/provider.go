package treesitter

import (
	"fmt"

	"github.com/panbanda/metriculator/pkg/ast"
	"github.com/panbanda/metriculator/pkg/parser"
)

// Ensure Provider implements ast.Provider.
var _ ast.Provider = (*Provider)(nil)

// Provider implements ast.Provider using tree-sitter. A Provider wraps a
// single parser and is not safe for concurrent use.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Parse reads and parses a file.
func (p *Provider) Parse(path string) (ast.TranslationUnit, error) {
	if parser.DetectLanguage(path) == parser.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Convert(result), nil
}

// ParseSource parses in-memory content as if it were read from path.
func (p *Provider) ParseSource(path string, source []byte) (ast.TranslationUnit, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	result, err := p.parser.Parse(source, lang, path)
	if err != nil {
		return nil, err
	}
	return Convert(result), nil
}

// Language returns the detected language for a file path.
func (p *Provider) Language(path string) ast.Language {
	return ast.Language(parser.DetectLanguage(path))
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}
