package cmd

import (
	"context"
	"fmt"
	"strconv"

	resourcesrender "github.com/Sanskargoyal608/Eziii/internal/adapters/render/resources"
	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/spf13/cobra"
)

func newAdminCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Read the admin portal",
	}

	cmd.AddCommand(
		newAdminDashboardCmd(app),
		newAdminSummaryCmd(app),
		newQueryCmd(app, "chat <query...>", "Ask about all students or one student", domain.RoleAdmin),
	)

	return cmd
}

func newAdminDashboardCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "List every student and document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dashboard domain.Dashboard
			if err := awaitInTextMode(cmd, app, "Loading dashboard...", func(ctx context.Context) error {
				var err error
				dashboard, err = app.portal.Dashboard(ctx)
				return err
			}); err != nil {
				return err
			}

			if handled, err := writeStructured(cmd, dashboard); handled {
				return err
			}
			rendered, err := resourcesrender.RenderDashboard(dashboard)
			return writeRendered(cmd, rendered, err)
		},
	}
}

func newAdminSummaryCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <student-id>",
		Short: "Show the generated summary for one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid student id %q", args[0])
			}

			var summary string
			if err := awaitInTextMode(cmd, app, "Generating summary...", func(ctx context.Context) error {
				summary, err = app.portal.Summary(ctx, studentID)
				return err
			}); err != nil {
				return err
			}

			view := struct {
				StudentID int    `json:"student_id" yaml:"student_id"`
				Summary   string `json:"summary" yaml:"summary"`
			}{StudentID: studentID, Summary: summary}
			if handled, err := writeStructured(cmd, view); handled {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return err
		},
	}
}
