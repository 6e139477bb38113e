package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/permitscope/permitscope/pkg/errors"
	"github.com/permitscope/permitscope/pkg/pipeline"
)

// graphFlags are the options shared by the graph subcommands.
type graphFlags struct {
	formats   string
	output    string
	query     string
	direction string
	page      string
	expandAll bool
	expanded  []string
	noCache   bool
	refresh   bool
}

func (f *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "json", "output formats (comma-separated: json,dot,svg,png)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file base path (default: stdout for json/dot)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "highlight nodes matching this search term")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "vertical", "layout direction (vertical or horizontal)")
	cmd.Flags().BoolVar(&f.expandAll, "expand-all", true, "expand every collapsible node")
	cmd.Flags().StringSliceVar(&f.expanded, "expanded", nil, "node ids to expand (disables --expand-all)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the local cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached directory data")
}

func (f *graphFlags) options() pipeline.Options {
	opts := pipeline.Options{
		Query:     f.query,
		Direction: f.direction,
		Formats:   parseFormats(f.formats),
		Refresh:   f.refresh,
		ExpandAll: f.expandAll,
		Expanded:  f.expanded,
	}
	if len(f.expanded) > 0 {
		opts.ExpandAll = false
	}
	return opts
}

// graphCommand creates the "graph" command with its pages/user subcommands.
func (c *CLI) graphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export an access graph",
	}
	cmd.AddCommand(c.graphPagesCommand())
	cmd.AddCommand(c.graphUserCommand())
	return cmd
}

// graphPagesCommand creates the "graph pages" subcommand.
func (c *CLI) graphPagesCommand() *cobra.Command {
	flags := &graphFlags{}
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Export the UI-page access graph",
		Long:  `Export the full page hierarchy with the actions each page exposes. Use --page to focus one page: the path to it and its whole subtree are expanded.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Selection = pipeline.SelectionPages
			opts.PageID = flags.page
			return c.runGraph(cmd, flags, opts, "pages")
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.page, "page", "", "focus on one page id")
	return cmd
}

// graphUserCommand creates the "graph user" subcommand.
func (c *CLI) graphUserCommand() *cobra.Command {
	flags := &graphFlags{}
	cmd := &cobra.Command{
		Use:   "user <id>",
		Short: "Export one user's access graph",
		Long:  `Export a user's full access fan-out: roles, the policies they carry, the endpoints those policies grant, and the page actions backed by each endpoint.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			opts.Selection = pipeline.SelectionUser
			opts.UserID = args[0]
			return c.runGraph(cmd, flags, opts, "user-"+args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

// runGraph executes the pipeline and writes the artifacts.
func (c *CLI) runGraph(cmd *cobra.Command, flags *graphFlags, opts pipeline.Options, baseName string) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Building graph...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		if errors.Is(err, errors.ErrCodeForbidden) {
			printError("Access denied: %s", errors.UserMessage(err))
			printDetail("Your directory credentials do not allow this view.")
			return err
		}
		return err
	}

	printSuccess("Built graph")
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.SnapshotHit)

	return c.writeArtifacts(result, flags.output, baseName)
}

// writeArtifacts writes each rendered format. Text formats go to stdout
// when no output path is given; binary formats always go to files.
func (c *CLI) writeArtifacts(result *pipeline.Result, output, baseName string) error {
	for _, format := range orderedFormats(result.Artifacts) {
		data := result.Artifacts[format]
		textual := format == pipeline.FormatJSON || format == pipeline.FormatDOT

		if output == "" && textual && len(result.Artifacts) == 1 {
			_, err := os.Stdout.Write(data)
			return err
		}

		path := artifactPath(output, baseName, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// orderedFormats returns the artifact formats in a stable order.
func orderedFormats(artifacts map[string][]byte) []string {
	order := []string{pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG}
	out := make([]string, 0, len(artifacts))
	for _, f := range order {
		if _, ok := artifacts[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

func artifactPath(output, baseName, format string) string {
	if output == "" {
		return baseName + "." + format
	}
	ext := filepath.Ext(output)
	if ext != "" && strings.TrimPrefix(ext, ".") == format {
		return output
	}
	if ext != "" {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}
