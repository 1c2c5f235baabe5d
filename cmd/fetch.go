package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/parcel-cli/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url> <county>",
	Short: "Download a county parcel archive into the dataset",
	Long:  "Downloads a parcel source file or ZIP archive over HTTP or FTP and unpacks it into the county's partition directory under the dataset root.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, county := args[0], args[1]

		destDir := filepath.Join(cfg.Dataset.Root, county+"County")

		f := fetch.New(fetch.Options{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})

		paths, err := f.Fetch(cmd.Context(), url, destDir)
		if err != nil {
			return err
		}

		for _, p := range paths {
			fmt.Fprintln(os.Stdout, p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
