package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-smooth/pkg/engine"
	"go-smooth/pkg/simd"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the vector unit in use and the available strategies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "SIMD: %s\n", simd.Detect())
			fmt.Fprintf(w, "Strategies: %s\n", strings.Join(engine.Names(), ", "))
		},
	}
}
