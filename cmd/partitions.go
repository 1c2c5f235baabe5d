package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-cli/internal/parcel"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "List county partitions in the dataset",
	Long:  "Enumerates the county partition directories under the dataset root with their bounding boxes in projected meters. With a region, lists only the partitions that survive pruning.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()

		idx, err := parcel.NewIndex(cfg.Dataset.Root)
		if err != nil {
			return err
		}

		parts := idx.Partitions()
		if flags.Changed("lat") || flags.Changed("lon") {
			q, err := buildQuery(flags)
			if err != nil {
				return err
			}
			bounds, err := q.ProjectedBounds()
			if err != nil {
				return err
			}
			parts = idx.Prune(bounds, "")
		}

		if len(parts) == 0 {
			fmt.Fprintln(os.Stderr, "No county partitions found.")
			return nil
		}

		formatPartitions(os.Stdout, parts)
		return nil
	},
}

func formatPartitions(out io.Writer, parts []parcel.Partition) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARTITION\tCOUNTY\tMIN_X\tMIN_Y\tMAX_X\tMAX_Y")
	_, _ = fmt.Fprintln(w, "---------\t------\t-----\t-----\t-----\t-----")

	for _, p := range parts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\n",
			p.Name, p.County, p.Bounds.MinX, p.Bounds.MinY, p.Bounds.MaxX, p.Bounds.MaxY)
	}

	_ = w.Flush()
}

func init() {
	f := partitionsCmd.Flags()
	f.Float64("lat", 0, "region center latitude in degrees")
	f.Float64("lon", 0, "region center longitude in degrees")
	f.Float64("radius", 0, "circular region radius in meters")
	f.Float64("width", 0, "rectangular region width in meters")
	f.Float64("height", 0, "rectangular region height in meters (defaults to width)")

	rootCmd.AddCommand(partitionsCmd)
}
