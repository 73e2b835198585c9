// Package output renders command results as text, Markdown, JSON or TOON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	toon "github.com/toon-format/toon-go"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatTOON     Format = "toon"
)

var formatNames = map[string]Format{
	"text":     FormatText,
	"txt":      FormatText,
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"toon":     FormatTOON,
}

// ParseFormat maps a flag or config value to a Format. Unknown values
// fall back to text.
func ParseFormat(s string) Format {
	if f, ok := formatNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return FormatText
}

// Renderable is a result that knows its human-readable layouts. Machine
// formats encode RenderData.
type Renderable interface {
	RenderText(w io.Writer, colored bool) error
	RenderMarkdown(w io.Writer) error
	RenderData() any
}

// Formatter writes results to stdout, a file or any writer.
type Formatter struct {
	format  Format
	out     io.Writer
	closer  io.Closer
	colored bool
}

// NewFormatter writes to path, or to stdout when path is empty. File output
// is never colored.
func NewFormatter(format Format, path string, colored bool) (*Formatter, error) {
	if path == "" {
		return NewWriterFormatter(format, os.Stdout, colored), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	fm := NewWriterFormatter(format, f, false)
	fm.closer = f
	return fm, nil
}

// NewWriterFormatter writes to w.
func NewWriterFormatter(format Format, w io.Writer, colored bool) *Formatter {
	return &Formatter{format: format, out: w, colored: colored}
}

// Close closes the output file, if any.
func (f *Formatter) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

func (f *Formatter) Writer() io.Writer { return f.out }
func (f *Formatter) Format() Format    { return f.format }
func (f *Formatter) Colored() bool     { return f.colored }

// Output encodes v. Renderable values choose their own text and Markdown
// layout; anything else is emitted as JSON in those formats.
func (f *Formatter) Output(v any) error {
	r, renderable := v.(Renderable)
	if renderable {
		v = r.RenderData()
	}

	switch f.format {
	case FormatJSON:
		return writeJSON(f.out, v)
	case FormatTOON:
		return writeTOON(f.out, v)
	case FormatMarkdown:
		if renderable {
			return r.RenderMarkdown(f.out)
		}
		if _, err := io.WriteString(f.out, "```json\n"); err != nil {
			return err
		}
		if err := writeJSON(f.out, v); err != nil {
			return err
		}
		_, err := io.WriteString(f.out, "```\n")
		return err
	default:
		if renderable {
			return r.RenderText(f.out, f.colored)
		}
		return writeJSON(f.out, v)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTOON(w io.Writer, v any) error {
	out, err := MarshalTOON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", out)
	return err
}

// MarshalTOON encodes v as TOON. The value goes through encoding/json
// first, so json tags and MarshalJSON methods shape the result.
func MarshalTOON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return toon.Marshal(doc, toon.WithIndent(2))
}

// heading prints title underlined with mark.
func heading(w io.Writer, title, mark string, c *color.Color) {
	if c != nil {
		c.Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(mark, len(title)))
}

func boldIf(colored bool, attrs ...color.Attribute) *color.Color {
	if !colored {
		return nil
	}
	return color.New(append([]color.Attribute{color.Bold}, attrs...)...)
}

// Table is a titled grid. Data, when set, replaces the grid in machine
// formats.
type Table struct {
	Title   string     `json:"-"`
	Headers []string   `json:"-"`
	Rows    [][]string `json:"-"`
	Footer  []string   `json:"-"`
	Data    any        `json:"data,omitempty"`
}

func NewTable(title string, headers []string, rows [][]string, footer []string, data any) *Table {
	return &Table{Title: title, Headers: headers, Rows: rows, Footer: footer, Data: data}
}

// RenderData returns Data, or one header-keyed map per row.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i := 0; i < len(t.Headers) && i < len(row); i++ {
			rec[t.Headers[i]] = row[i]
		}
		records = append(records, rec)
	}
	return records
}

var leftAligned = tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}}

func borderless(w io.Writer) *tablewriter.Table {
	header := leftAligned
	header.Formatting = tw.CellFormatting{AutoFormat: tw.On}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: header,
			Row:    leftAligned,
			Footer: leftAligned,
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders:  tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{Separators: tw.Separators{BetweenColumns: tw.Off}},
		}),
	)
}

func (t *Table) RenderText(w io.Writer, colored bool) error {
	if t.Title != "" {
		heading(w, t.Title, "=", boldIf(colored))
		fmt.Fprintln(w)
	}

	table := borderless(w)
	table.Header(t.Headers)
	if err := table.Bulk(t.Rows); err != nil {
		return fmt.Errorf("table %q: %w", t.Title, err)
	}
	if len(t.Footer) > 0 {
		table.Footer(t.Footer)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("table %q: %w", t.Title, err)
	}
	fmt.Fprintln(w)
	return nil
}

func markdownRow(w io.Writer, cells []string) {
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	markdownRow(w, t.Headers)
	rule := make([]string, len(t.Headers))
	for i := range rule {
		rule[i] = "---"
	}
	markdownRow(w, rule)
	for _, row := range t.Rows {
		markdownRow(w, row)
	}
	if len(t.Footer) > 0 {
		markdownRow(w, t.Footer)
	}
	fmt.Fprintln(w)
	return nil
}

// Section is free text with optional nested sections.
type Section struct {
	Title    string    `json:"title,omitempty"`
	Content  string    `json:"content,omitempty"`
	Sections []Section `json:"sections,omitempty"`
	Data     any       `json:"data,omitempty"`
}

func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return s
}

func (s *Section) RenderText(w io.Writer, colored bool) error {
	s.text(w, colored, "=")
	return nil
}

func (s *Section) text(w io.Writer, colored bool, mark string) {
	if s.Title != "" {
		heading(w, s.Title, mark, boldIf(colored))
	}
	if s.Content != "" {
		fmt.Fprintln(w, s.Content)
	}
	for i := range s.Sections {
		fmt.Fprintln(w)
		s.Sections[i].text(w, colored, "-")
	}
}

func (s *Section) RenderMarkdown(w io.Writer) error {
	s.markdown(w, 2)
	return nil
}

func (s *Section) markdown(w io.Writer, level int) {
	if s.Title != "" {
		fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", level), s.Title)
	}
	if s.Content != "" {
		fmt.Fprintf(w, "%s\n\n", s.Content)
	}
	for i := range s.Sections {
		s.Sections[i].markdown(w, level+1)
	}
}

// Report is an ordered list of renderables under one title.
type Report struct {
	Title    string       `json:"title,omitempty"`
	Sections []Renderable `json:"-"`
	Data     any          `json:"data,omitempty"`
}

func (r *Report) RenderData() any {
	if r.Data != nil {
		return r.Data
	}
	sections := make([]any, 0, len(r.Sections))
	for _, s := range r.Sections {
		sections = append(sections, s.RenderData())
	}
	return map[string]any{"title": r.Title, "sections": sections}
}

func (r *Report) RenderText(w io.Writer, colored bool) error {
	if r.Title != "" {
		heading(w, r.Title, "=", boldIf(colored, color.FgCyan))
		fmt.Fprintln(w)
	}
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := s.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) RenderMarkdown(w io.Writer) error {
	if r.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", r.Title)
	}
	for _, s := range r.Sections {
		if err := s.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) message(c *color.Color, prefix, format string, args ...any) {
	if f.colored {
		c.Fprintf(f.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(f.out, prefix+format+"\n", args...)
}

func (f *Formatter) Success(format string, args ...any) {
	f.message(color.New(color.FgGreen), "", format, args...)
}

func (f *Formatter) Warning(format string, args ...any) {
	f.message(color.New(color.FgYellow), "WARNING: ", format, args...)
}

func (f *Formatter) Error(format string, args ...any) {
	f.message(color.New(color.FgRed), "ERROR: ", format, args...)
}

func (f *Formatter) Info(format string, args ...any) {
	f.message(color.New(color.FgCyan), "", format, args...)
}

// SeverityColor colors text by violation severity.
func SeverityColor(severity, text string) string {
	switch strings.ToLower(severity) {
	case "error":
		return color.RedString(text)
	case "warning":
		return color.YellowString(text)
	case "ok":
		return color.GreenString(text)
	}
	return text
}
