package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "navmesh",
		Short:        "build and query navigation meshes",
		SilenceUsage: true,
	}
	root.AddCommand(
		BuildCmd(),
		PathCmd(),
		ServeCmd(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
