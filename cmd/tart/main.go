// Command tart annotates sentences with labeled token ranges and reviews
// saved annotation files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/theSKAILab/TART/internal/app"
	"github.com/theSKAILab/TART/internal/config"
	"github.com/theSKAILab/TART/internal/document"
	"github.com/theSKAILab/TART/internal/engine/token"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// Globals holds the flags shared by every command.
type Globals struct {
	Config    string `short:"c" help:"Configuration file" type:"path" env:"TART_CONFIG_FILE"`
	Store     string `help:"Class store database" type:"path"`
	ClassFile string `name:"class-file" help:"YAML class file imported at startup" type:"path"`
	Annotator string `help:"Name recorded in label history"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`

	Stdout io.Writer       `kong:"-"`
	Stderr io.Writer       `kong:"-"`
	Ctx    context.Context `kong:"-"`

	configOpts []config.Option `kong:"-"`
}

// CLI defines the command-line interface for tart.
type CLI struct {
	Globals

	Export  ExportCmd  `cmd:"" help:"Convert a text or annotation file to an annotation file"`
	Check   CheckCmd   `cmd:"" help:"Validate the annotations of files"`
	Diff    DiffCmd    `cmd:"" help:"Compare the annotations of two files over the same text"`
	Label   LabelCmd   `cmd:"" help:"Label a token range of a sentence"`
	Unlabel UnlabelCmd `cmd:"" help:"Remove the block starting at an offset"`
	Review  ReviewCmd  `cmd:"" help:"Accept or reject the block starting at an offset"`
	Classes ClassesCmd `cmd:"" help:"Label class management"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// ClassesCmd groups the label class commands.
type ClassesCmd struct {
	List   ClassesListCmd   `cmd:"" default:"1" help:"List label classes"`
	Add    ClassesAddCmd    `cmd:"" help:"Add label classes"`
	Remove ClassesRemoveCmd `cmd:"" help:"Remove label classes"`
	Import ClassesImportCmd `cmd:"" help:"Import classes from a YAML class file"`
	Export ClassesExportCmd `cmd:"" help:"Write classes as a YAML class file"`
}

// loadConfig reads the configuration and applies the flag overrides.
func (g *Globals) loadConfig() (*config.Config, error) {
	opts := append([]config.Option(nil), g.configOpts...)
	if g.Config != "" {
		opts = append(opts, config.WithFile(g.Config))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}

	if g.Store != "" {
		cfg.Classes.Store = g.Store
	}
	if g.ClassFile != "" {
		cfg.Classes.File = g.ClassFile
	}
	if g.Annotator != "" {
		cfg.Annotator = g.Annotator
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// application starts the application with the loaded configuration.
func (g *Globals) application() (*app.Application, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(g.context(), app.Options{Config: cfg, LogOutput: g.Stderr})
}

func (g *Globals) context() context.Context {
	if g.Ctx != nil {
		return g.Ctx
	}
	return context.Background()
}

// open starts the application and opens paths.
func (g *Globals) open(paths ...string) (*app.Application, error) {
	a, err := g.application()
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if _, err := a.OpenFile(p); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// outputPath returns where edits to path are saved: out when set, path
// itself for annotation files, and path with a .json extension otherwise.
func outputPath(path, out string) string {
	if out != "" {
		return out
	}
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, ".json") {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".json"
}

// ============================================================================
// Documents
// ============================================================================

// ExportCmd converts a file to the annotation file format.
type ExportCmd struct {
	Path string `arg:"" help:"Text or annotation file" type:"existingfile"`
	Out  string `short:"o" help:"Output file (default: standard output)" type:"path"`
}

func (c *ExportCmd) Run(g *Globals) error {
	a, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Out == "" {
		return a.ExportDocument(c.Path, g.Stdout)
	}
	if err := a.SaveDocument(g.context(), c.Path, c.Out); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "wrote %s\n", c.Out)
	return nil
}

// CheckCmd validates files.
type CheckCmd struct {
	Paths []string `arg:"" help:"Files to check" type:"existingfile"`
}

func (c *CheckCmd) Run(g *Globals) error {
	a, err := g.application()
	if err != nil {
		return err
	}
	defer a.Close()

	failed := 0
	for _, p := range c.Paths {
		doc, err := a.OpenFile(p)
		if err == nil {
			err = a.Check(p)
		}
		if err != nil {
			failed++
			fmt.Fprintf(g.Stdout, "FAIL %s: %v\n", p, err)
			continue
		}
		fmt.Fprintf(g.Stdout, "ok   %s (%d sentences)\n", p, doc.Len())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(c.Paths))
	}
	return nil
}

// DiffCmd compares two files.
type DiffCmd struct {
	Before string `arg:"" help:"Earlier file" type:"existingfile"`
	After  string `arg:"" help:"Later file" type:"existingfile"`
}

func (c *DiffCmd) Run(g *Globals) error {
	a, err := g.open(c.Before, c.After)
	if err != nil {
		return err
	}
	defer a.Close()

	reports, err := a.Compare(c.Before, c.After)
	if err != nil {
		return err
	}
	writeReports(g.Stdout, reports)
	return nil
}

func writeReports(w io.Writer, reports []document.SentenceReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "no changes")
		return
	}
	for _, r := range reports {
		fmt.Fprintf(w, "sentence %d (id %d): %s\n", r.Index, r.ID, r.Text)
		fmt.Fprint(w, r.Report.String())
	}
}

// LabelCmd labels token ranges.
type LabelCmd struct {
	Path     string   `arg:"" help:"Text or annotation file" type:"existingfile"`
	Sentence int      `arg:"" help:"Sentence index"`
	Ranges   []string `arg:"" help:"Token ranges, as i or i-j"`
	Class    string   `short:"C" help:"Class name (default: the current class)"`
	Out      string   `short:"o" help:"Output file (default: the annotation file next to the input)" type:"path"`
}

func (c *LabelCmd) Run(g *Globals) error {
	ranges, err := parseRanges(c.Ranges)
	if err != nil {
		return err
	}

	a, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	blocks, err := a.LabelRanges(c.Path, c.Sentence, ranges, c.Class)
	if err != nil {
		return err
	}
	labeled := slices.DeleteFunc(blocks, func(b *token.Block) bool { return b == nil })
	if len(labeled) == 0 {
		fmt.Fprintln(g.Stdout, "nothing changed")
		return nil
	}

	out := outputPath(c.Path, c.Out)
	if err := a.SaveDocument(g.context(), c.Path, out); err != nil {
		return err
	}
	for _, b := range labeled {
		fmt.Fprintf(g.Stdout, "labeled %q [%d:%d] as %s in %s\n", b.Text(), b.Start, b.End, b.Class.Name, out)
	}
	return nil
}

// parseRanges reads token ranges written as i or i-j.
func parseRanges(args []string) ([]app.TokenRange, error) {
	ranges := make([]app.TokenRange, 0, len(args))
	for _, arg := range args {
		first, last, found := strings.Cut(arg, "-")
		i, err := strconv.Atoi(first)
		if err != nil {
			return nil, fmt.Errorf("token range %q: %w", arg, err)
		}
		j := i
		if found {
			if j, err = strconv.Atoi(last); err != nil {
				return nil, fmt.Errorf("token range %q: %w", arg, err)
			}
		}
		if i < 0 || j < i {
			return nil, fmt.Errorf("token range %q: want 0 <= first <= last", arg)
		}
		ranges = append(ranges, app.TokenRange{First: i, Last: j})
	}
	return ranges, nil
}

// UnlabelCmd removes a block.
type UnlabelCmd struct {
	Path     string `arg:"" help:"Annotation file" type:"existingfile"`
	Sentence int    `arg:"" help:"Sentence index"`
	Start    int    `arg:"" help:"Start offset of the block"`
	Out      string `short:"o" help:"Output file (default: the input)" type:"path"`
}

func (c *UnlabelCmd) Run(g *Globals) error {
	a, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := a.Unlabel(c.Path, c.Sentence, c.Start)
	if err != nil {
		return err
	}
	out := outputPath(c.Path, c.Out)
	if err := a.SaveDocument(g.context(), c.Path, out); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "removed %q from %s\n", b.Text(), out)
	return nil
}

// ReviewCmd accepts or rejects a block.
type ReviewCmd struct {
	Action   string `arg:"" enum:"accept,reject" help:"accept or reject"`
	Path     string `arg:"" help:"Annotation file" type:"existingfile"`
	Sentence int    `arg:"" help:"Sentence index"`
	Start    int    `arg:"" help:"Start offset of the block"`
	Out      string `short:"o" help:"Output file (default: the input)" type:"path"`
}

func (c *ReviewCmd) Run(g *Globals) error {
	a, err := g.open(c.Path)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Review(c.Path, c.Sentence, c.Start, c.Action == "accept"); err != nil {
		return err
	}
	out := outputPath(c.Path, c.Out)
	if err := a.SaveDocument(g.context(), c.Path, out); err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "%sed block at %d of sentence %d in %s\n", c.Action, c.Start, c.Sentence, out)
	return nil
}

// ============================================================================
// Classes
// ============================================================================

// ClassesListCmd lists the classes.
type ClassesListCmd struct{}

func (c *ClassesListCmd) Run(g *Globals) error {
	a, err := g.application()
	if err != nil {
		return err
	}
	defer a.Close()

	list := a.Classes()
	if len(list) == 0 {
		fmt.Fprintln(g.Stdout, "no classes")
		return nil
	}
	current := a.CurrentClass()
	for _, cl := range list {
		marker := " "
		if current != nil && current.Name == cl.Name {
			marker = "*"
		}
		fmt.Fprintf(g.Stdout, "%s %3d  %-20s %s\n", marker, cl.ID, cl.Name, cl.Color)
	}
	return nil
}

// ClassesAddCmd adds classes.
type ClassesAddCmd struct {
	Names []string `arg:"" help:"Class names"`
}

func (c *ClassesAddCmd) Run(g *Globals) error {
	a, err := g.application()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range c.Names {
		cl, added, err := a.AddClass(g.context(), name)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(g.Stdout, "added %s (id %d, %s)\n", cl.Name, cl.ID, cl.Color)
		} else {
			fmt.Fprintf(g.Stdout, "%s already exists\n", cl.Name)
		}
	}
	return nil
}

// ClassesRemoveCmd removes classes.
type ClassesRemoveCmd struct {
	Names []string `arg:"" help:"Class names"`
}

func (c *ClassesRemoveCmd) Run(g *Globals) error {
	a, err := g.application()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range c.Names {
		if err := a.RemoveClass(g.context(), name); err != nil {
			return err
		}
		fmt.Fprintf(g.Stdout, "removed %s\n", name)
	}
	return nil
}

// ClassesImportCmd imports a YAML class file.
type ClassesImportCmd struct {
	Path string `arg:"" help:"YAML class file" type:"existingfile"`
}

func (c *ClassesImportCmd) Run(g *Globals) error {
	a, err := g.application()
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := a.ImportClasses(g.context(), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "imported %d classes\n", n)
	return nil
}

// ClassesExportCmd writes the classes as YAML.
type ClassesExportCmd struct {
	Out string `short:"o" help:"Output file (default: standard output)" type:"path"`
}

func (c *ClassesExportCmd) Run(g *Globals) error {
	a, err := g.application()
	if err != nil {
		return err
	}
	defer a.Close()

	if c.Out == "" {
		return a.ExportClasses(g.Stdout)
	}
	f, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	if err := a.ExportClasses(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.Stdout, "tart version %s (%s)\n", version, commit)
	return nil
}

// newParser builds the command-line parser for cli.
func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("tart"),
		kong.Description("TART - token range annotation and review"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&cli.Globals),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	cli := CLI{Globals: Globals{Stdout: os.Stdout, Stderr: os.Stderr}}
	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}
