package cmd

import (
	"fmt"
	"runtime"

	"github.com/Sanskargoyal608/Eziii/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ez build version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			view := struct {
				Version string `json:"version" yaml:"version"`
				Go      string `json:"go" yaml:"go"`
			}{Version: version.Version, Go: runtime.Version()}
			if handled, err := writeStructured(cmd, view); handled {
				return err
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return err
		},
	}
}
