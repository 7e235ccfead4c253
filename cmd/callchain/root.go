package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/chain"
	"github.com/codellm-devkit/callchain-go/internal/config"
	"github.com/codellm-devkit/callchain-go/internal/output"
	"github.com/codellm-devkit/callchain-go/internal/render"
)

// options sono i flag globali della CLI.
type options struct {
	input        string
	lang         string
	configFile   string
	outputDir    string
	maxDepth     int
	maxNodes     int
	includeTests bool
	excludeDirs  []string
	onlyPkg      []string
	verbose      bool
	quiet        bool
}

// app è lo stato condiviso dai sottocomandi dopo il caricamento della configurazione.
type app struct {
	opts   options
	cfg    config.Config
	lang   string
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "callchain",
		Short: "Static call chain analyzer for Go and Java code bases",
		Long: `callchain starts from one entry method and follows the calls it makes,
expanding interface methods into their implementations, up to a maximum depth.
The resulting tree is rendered as PlantUML sequence or activity diagrams,
as JSON, as a source bundle, or exported to Neo4j.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	f := root.PersistentFlags()
	f.StringVarP(&a.opts.input, "input", "i", ".", "Path to the root of the project to analyze")
	f.StringVarP(&a.opts.lang, "lang", "l", "", "Source language: go|java|auto (default from config)")
	f.StringVar(&a.opts.configFile, "config", "", "Configuration file (default: callchain.yml in the input root or .)")
	f.StringVarP(&a.opts.outputDir, "output", "o", "", "Output directory (omit for stdout)")
	f.IntVar(&a.opts.maxDepth, "max-depth", 0, "Maximum expansion depth (default from config)")
	f.IntVar(&a.opts.maxNodes, "max-nodes", 0, "Maximum number of nodes, 0 for no limit (default from config)")
	f.BoolVar(&a.opts.includeTests, "include-tests", false, "Include test sources")
	f.StringSliceVar(&a.opts.excludeDirs, "exclude-dirs", nil, "Directory basenames to exclude (comma-separated)")
	f.StringSliceVar(&a.opts.onlyPkg, "only-pkg", nil, "Package path filters (substring match, comma-separated)")
	f.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging to stderr")
	f.BoolVarP(&a.opts.quiet, "quiet", "q", false, "Only log errors")

	root.AddCommand(
		a.diagramCmd("sequence", "Render the call chain as a PlantUML sequence diagram", output.FileSequence,
			func(r render.Renderer, t *calltree.Tree) string { return r.Sequence(t) }),
		a.diagramCmd("activity", "Render the call chain as a PlantUML activity diagram", output.FileActivity,
			func(r render.Renderer, t *calltree.Tree) string { return r.Activity(t) }),
		a.diagramCmd("code", "Collect the source of every method in the call chain", output.FileCode,
			func(_ render.Renderer, t *calltree.Tree) string { return render.SourceBundle(t) }),
		a.treeCmd(),
		a.methodsCmd(),
		a.exportCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return root
}

// exactArgs è cobra.ExactArgs con l'errore marcato come errore d'uso.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return nil
	}
}

// prepare carica .env e configurazione, applica i flag e costruisce il logger.
func (a *app) prepare(cmd *cobra.Command) error {
	abs, err := filepath.Abs(a.opts.input)
	if err != nil {
		return fmt.Errorf("%w: invalid input path: %v", errUsage, err)
	}
	if st, err := os.Stat(abs); err != nil || !st.IsDir() {
		return fmt.Errorf("%w: input path is not a directory: %s", errUsage, abs)
	}
	a.opts.input = abs

	// le credenziali Neo4j possono stare in .env; l'assenza del file non è un errore
	_ = godotenv.Load(filepath.Join(abs, ".env"))

	cfg, err := config.Load(a.opts.configFile, abs)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("lang") {
		cfg.Language = strings.ToLower(a.opts.lang)
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = a.opts.maxDepth
	}
	if flags.Changed("max-nodes") {
		cfg.MaxNodes = a.opts.maxNodes
	}
	if flags.Changed("include-tests") {
		cfg.IncludeTests = a.opts.includeTests
	}
	if flags.Changed("exclude-dirs") {
		cfg.ExcludeDirs = a.opts.excludeDirs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	switch {
	case a.opts.quiet:
		level = slog.LevelError
	case a.opts.verbose:
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	if cfg.File != "" {
		a.log.Debug("configuration loaded", slog.String("file", cfg.File))
	}

	a.lang = cfg.Language
	if a.lang == config.LangAuto {
		a.lang = detectLanguage(abs)
		a.log.Debug("language detected", slog.String("lang", a.lang))
	}
	return nil
}

func (a *app) outputConfig() output.Config {
	return output.Config{OutputDir: a.opts.outputDir, Indent: true, Stdout: a.stdout}
}

func (a *app) renderer() render.Renderer {
	return render.Renderer{
		Title:      a.cfg.Render.Title,
		Legend:     a.cfg.Render.Legend,
		Statements: a.cfg.Render.Statements,
	}
}

// analyze apre i sorgenti, risolve il metodo di ingresso e costruisce l'albero.
// Il chiamante deve chiudere la sorgente restituita.
func (a *app) analyze(ctx context.Context, ref string) (*calltree.Tree, source, error) {
	src, err := a.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	entry, err := src.FindMethod(ref)
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	engine := chain.NewEngine(src,
		chain.WithMaxDepth(a.cfg.MaxDepth),
		chain.WithMaxNodes(a.cfg.MaxNodes),
		chain.WithClassifier(a.cfg.Classifier()),
		chain.WithLogger(a.log),
	)
	tree := engine.Analyze(ctx, entry)
	if tree.IsEmpty() {
		a.log.Warn("entry method produced an empty call tree", slog.String("method", ref))
	} else if a.opts.verbose {
		if err := tree.Check(); err != nil {
			a.log.Warn("call tree check failed", slog.String("error", err.Error()))
		}
	}
	return tree, src, nil
}
