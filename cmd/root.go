package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ez",
		Short:         "Eziii CLI (ez): sign in, chat with the federated query service and browse your records",
		Long:          "ez talks to the Eziii gateway: it keeps your session, sends natural-language queries about your documents, jobs and scholarships, and lists those records from the terminal. Admin commands use the portal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	var output string
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")

	app, err := wireApp(context.Background())
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := validateOutput(output); err != nil {
			return err
		}
		return app.bootstrap(cmd.Context())
	}
	rootCmd.PersistentPostRunE = func(_ *cobra.Command, _ []string) error {
		return app.close()
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newChatCmd(app),
		newDocumentsCmd(app),
		newJobsCmd(app),
		newScholarshipsCmd(app),
		newOverviewCmd(app),
		newAdminCmd(app),
	)

	return rootCmd
}
