package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"topicgraph/application/commands"
	"topicgraph/domain/graph"
	"topicgraph/infrastructure/di"

	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON    bool
		direction string
	)

	cmd := &cobra.Command{
		Use:   "generate <topic>",
		Short: "Generate a graph for a topic and store it",
		Long: `Ask the language model for a graph about a topic, store it and print it.

  topicgraph generate photosynthesis
  topicgraph generate "plate tectonics" --json --direction LR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			return withContainer(cmd, opts, func(ctx context.Context, c *di.Container) error {
				out, err := c.CommandBus.Send(ctx, commands.GenerateGraphCommand{
					Topic:  topic,
					Layout: commands.Layout{Direction: direction},
				})
				if err != nil {
					return err
				}
				frag := out.(graph.Fragment)
				return printGraph(cmd.OutOrStdout(), frag.Graph(), asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the fragment as JSON")
	cmd.Flags().StringVar(&direction, "direction", "", "lay out the result: TB or LR")
	return cmd
}

func newExpandCmd(opts *globalOptions) *cobra.Command {
	var (
		graphFile string
		nodeID    string
		asJSON    bool
		merged    bool
		direction string
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand a node of a graph file",
		Long: `Generate new nodes around one node of a graph read from a JSON file
(or stdin with --graph -), store them and print the new fragment.

  topicgraph generate photosynthesis --json > g.json
  topicgraph expand --graph g.json --node 1 --merged --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			full, err := readGraph(cmd.InOrStdin(), graphFile)
			if err != nil {
				return err
			}
			return withContainer(cmd, opts, func(ctx context.Context, c *di.Container) error {
				out, err := c.CommandBus.Send(ctx, commands.ExpandNodeCommand{
					FullGraph:      &full,
					SelectedNodeID: nodeID,
					Layout:         commands.Layout{Direction: direction},
				})
				if err != nil {
					return err
				}
				frag := out.(graph.Fragment)
				result := frag.Graph()
				if merged {
					result = graph.Merge(full, frag)
				}
				return printGraph(cmd.OutOrStdout(), result, asJSON)
			})
		},
	}
	cmd.Flags().StringVarP(&graphFile, "graph", "g", "", "graph JSON file, - for stdin")
	cmd.Flags().StringVarP(&nodeID, "node", "n", "", "id of the node to expand")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&merged, "merged", false, "print the whole merged graph instead of the new fragment")
	cmd.Flags().StringVar(&direction, "direction", "", "lay out the result: TB or LR")
	_ = cmd.MarkFlagRequired("graph")
	_ = cmd.MarkFlagRequired("node")
	return cmd
}

// readGraph decodes a graph from path, or from stdin when path is "-"
func readGraph(stdin io.Reader, path string) (graph.Graph, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return graph.Graph{}, err
		}
		defer f.Close()
		r = f
	}

	var g graph.Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return graph.Graph{}, fmt.Errorf("invalid graph JSON in %s: %w", path, err)
	}
	return g, nil
}
