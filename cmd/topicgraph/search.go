package main

import (
	"context"
	"os"
	"strings"

	"topicgraph/application/ports"
	"topicgraph/application/queries"
	"topicgraph/domain/graph"
	"topicgraph/infrastructure/di"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find stored nodes similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withContainer(cmd, opts, func(ctx context.Context, c *di.Container) error {
				out, err := c.QueryBus.Ask(ctx, queries.SearchQuery{Query: query, Limit: limit})
				if err != nil {
					return err
				}
				results := out.([]ports.SearchResult)
				if asJSON {
					if results == nil {
						results = []ports.SearchResult{}
					}
					return writeJSON(cmd.OutOrStdout(), results)
				}
				printResults(cmd.OutOrStdout(), results)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		outFile   string
		direction string
		view      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole stored graph as JSON",
		Long: `Write every stored node and edge as JSON, optionally laid out.

  topicgraph export > all.json
  topicgraph export --direction TB --view 3d -o all.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withContainer(cmd, opts, func(ctx context.Context, c *di.Container) error {
				out, err := c.QueryBus.Ask(ctx, queries.LoadAllQuery{Direction: direction, View: view})
				if err != nil {
					return err
				}
				g := out.(graph.Graph)

				if outFile == "" || outFile == "-" {
					return writeJSON(cmd.OutOrStdout(), g)
				}
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				if err := writeJSON(f, g); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				stats := g.Stats()
				good.Fprintf(cmd.ErrOrStderr(), "Exported %d nodes and %d edges to %s\n", stats.Nodes, stats.Edges, outFile)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&direction, "direction", "", "lay out the graph: TB or LR")
	cmd.Flags().StringVar(&view, "view", "", "2d or 3d positions")
	return cmd
}
