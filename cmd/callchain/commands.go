package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codellm-devkit/callchain-go/internal/calltree"
	"github.com/codellm-devkit/callchain-go/internal/config"
	"github.com/codellm-devkit/callchain-go/internal/export"
	"github.com/codellm-devkit/callchain-go/internal/output"
	"github.com/codellm-devkit/callchain-go/internal/render"
	"github.com/codellm-devkit/callchain-go/pkg/schema"
)

const methodArgHelp = `The entry method is given as Type.Method or pkg.Type.Method for Go,
Class#method or pkg.Class#method(ParamTypes) for Java.`

// diagramCmd crea un sottocomando che serializza l'albero come testo.
func (a *app) diagramCmd(name, short, file string, serialize func(render.Renderer, *calltree.Tree) string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <method>",
		Short: short,
		Long:  short + ".\n\n" + methodArgHelp,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepare(cmd); err != nil {
				return err
			}
			tree, src, err := a.analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			return output.WriteText(serialize(a.renderer(), tree), file, a.outputConfig())
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	var includeSource bool
	cmd := &cobra.Command{
		Use:   "tree <method>",
		Short: "Write the call chain as a JSON analysis document",
		Long:  "Write the call chain as a JSON analysis document.\n\n" + methodArgHelp,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepare(cmd); err != nil {
				return err
			}
			start := time.Now()
			tree, src, err := a.analyze(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			analysis := &schema.Analysis{
				Metadata: schema.Metadata{
					ID:          uuid.NewString(),
					Analyzer:    "callchain",
					Version:     version,
					Language:    a.lang,
					Timestamp:   time.Now().UTC().Format(time.RFC3339),
					ProjectPath: a.opts.input,
					EntryMethod: args[0],
					MaxDepth:    a.cfg.MaxDepth,
				},
				Stats:  schema.StatsOf(tree),
				Tree:   schema.FromTree(tree, schema.ConvertOptions{IncludeSource: includeSource}),
				Issues: []schema.Issue{},
			}
			if tree.IsEmpty() {
				analysis.Issues = append(analysis.Issues, schema.Issue{
					Severity: "warning",
					Code:     "EMPTY_TREE",
					Message:  fmt.Sprintf("%s has no analysable body", args[0]),
				})
			}
			analysis.Metadata.AnalysisDurationMs = time.Since(start).Milliseconds()
			return output.WriteJSON(analysis, output.FileTree, a.outputConfig())
		},
	}
	cmd.Flags().BoolVar(&includeSource, "source", false, "Include the source of every method")
	return cmd
}

func (a *app) methodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the methods that can be used as entry points",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.prepare(cmd); err != nil {
				return err
			}
			src, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer src.Close()
			list := schema.MethodList{Language: a.lang, Methods: src.Methods()}
			a.log.Debug("methods listed", slog.Int("count", len(list.Methods)))
			return output.WriteJSON(list, output.FileMethods, a.outputConfig())
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <method>",
		Short: "Export the call chain to Neo4j",
		Long: `Export the call chain to Neo4j.

Connection settings come from the neo4j section of the configuration; the
password is usually provided as CALLCHAIN_NEO4J_PASSWORD, possibly from a .env
file in the input root.

` + methodArgHelp,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepare(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			tree, src, err := a.analyze(ctx, args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			n := a.cfg.Neo4j
			exp, err := export.NewNeo4jExporter(ctx, n.URI, n.User, n.Password, n.Database, a.log)
			if err != nil {
				return err
			}
			defer exp.Close(ctx)

			run := export.RunInfo{
				ID:       uuid.NewString(),
				Language: a.lang,
				Root:     a.opts.input,
				Entry:    args[0],
				MaxDepth: a.cfg.MaxDepth,
				Created:  time.Now().UTC().Format(time.RFC3339),
			}
			if err := exp.Export(ctx, export.BuildBatches(run, tree)); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, run.ID)
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the callchain configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a configuration file with the default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := filepath.Join(a.opts.input, config.FileName)
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	})
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  exactArgs(0),
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(a.stdout, "callchain %s\n", version)
		},
	}
}
