package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	resourcesrender "github.com/Sanskargoyal608/Eziii/internal/adapters/render/resources"
	"github.com/Sanskargoyal608/Eziii/internal/application"
	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/spf13/cobra"
)

func parseSourceFlag(raw string) (domain.Source, error) {
	source, err := domain.ParseSource(raw)
	if err != nil {
		return domain.Source{}, fmt.Errorf("invalid --source: %w", err)
	}
	return source, nil
}

// awaitInTextMode shows progress for call only when output is plain text.
func awaitInTextMode(cmd *cobra.Command, app *app, label string, call func(context.Context) error) error {
	if outputFormat(cmd) != outputText {
		return call(cmd.Context())
	}
	return awaitRequest(cmd.Context(), cmd.ErrOrStderr(), label, app.now, call)
}

func newDocumentsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List, upload and export your documents",
	}

	cmd.AddCommand(
		newDocumentsListCmd(app),
		newDocumentsUploadCmd(app),
		newDocumentsPDFCmd(app),
	)

	return cmd
}

func newDocumentsListCmd(app *app) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := parseSourceFlag(sourceFlag)
			if err != nil {
				return err
			}

			var docs []domain.Document
			if err := awaitInTextMode(cmd, app, "Loading documents...", func(ctx context.Context) error {
				docs, err = app.resources.Documents(ctx, source)
				return err
			}); err != nil {
				return err
			}

			if handled, err := writeStructured(cmd, docs); handled {
				return err
			}
			rendered, err := resourcesrender.RenderDocuments(docs)
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "gateway", "Where to read from: gateway or portal")

	return cmd
}

func newDocumentsUploadCmd(app *app) *cobra.Command {
	var documentType string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document for verification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer func() {
				_ = file.Close()
			}()

			var doc domain.Document
			if err := awaitInTextMode(cmd, app, "Uploading document...", func(ctx context.Context) error {
				doc, err = app.documents.Upload(ctx, documentType, args[0], file)
				return err
			}); err != nil {
				return err
			}

			if handled, err := writeStructured(cmd, doc); handled {
				return err
			}
			rendered, err := resourcesrender.RenderDocuments([]domain.Document{doc})
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().StringVar(&documentType, "type", "", "Document type, for example Aadhaar or Marksheet")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newDocumentsPDFCmd(app *app) *cobra.Command {
	var ids []int
	var outPath string

	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Download a PDF report of the selected documents",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if len(ids) == 0 {
				return errors.New("--ids must name at least one document")
			}

			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create pdf file: %w", err)
			}
			defer func() {
				if closeErr := file.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()

			var written int64
			if err := awaitInTextMode(cmd, app, "Generating PDF...", func(ctx context.Context) error {
				written, err = app.documents.GeneratePDF(ctx, ids, file)
				return err
			}); err != nil {
				_ = os.Remove(outPath)
				return err
			}

			view := struct {
				Path  string `json:"path" yaml:"path"`
				Bytes int64  `json:"bytes" yaml:"bytes"`
			}{Path: outPath, Bytes: written}
			if handled, err := writeStructured(cmd, view); handled {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", outPath, written)
			return err
		},
	}

	cmd.Flags().IntSliceVar(&ids, "ids", nil, "Comma-separated document ids")
	cmd.Flags().StringVar(&outPath, "out", "eziii_report.pdf", "Output file")
	_ = cmd.MarkFlagRequired("ids")

	return cmd
}

func newJobsCmd(app *app) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs recommended for you",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := parseSourceFlag(sourceFlag)
			if err != nil {
				return err
			}

			var jobs []domain.Job
			if err := awaitInTextMode(cmd, app, "Loading jobs...", func(ctx context.Context) error {
				jobs, err = app.resources.Jobs(ctx, source)
				return err
			}); err != nil {
				return err
			}

			if handled, err := writeStructured(cmd, jobs); handled {
				return err
			}
			rendered, err := resourcesrender.RenderJobs(jobs)
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "gateway", "Where to read from: gateway or gateway:v1|v2|v3 to pin the record shape")

	return cmd
}

func newScholarshipsCmd(app *app) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "scholarships",
		Short: "List scholarships",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := parseSourceFlag(sourceFlag)
			if err != nil {
				return err
			}

			var scholarships []domain.Scholarship
			if err := awaitInTextMode(cmd, app, "Loading scholarships...", func(ctx context.Context) error {
				scholarships, err = app.resources.Scholarships(ctx, source)
				return err
			}); err != nil {
				return err
			}

			if handled, err := writeStructured(cmd, scholarships); handled {
				return err
			}
			rendered, err := resourcesrender.RenderScholarships(scholarships)
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "gateway", "Where to read from: gateway or gateway:v1|v2|v3 to pin the record shape")

	return cmd
}

func newOverviewCmd(app *app) *cobra.Command {
	var sourceFlag string

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show documents, jobs and scholarships together",
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, err := parseSourceFlag(sourceFlag)
			if err != nil {
				return err
			}

			var ov application.Overview
			if err := awaitInTextMode(cmd, app, "Loading overview...", func(ctx context.Context) (err error) {
				ov, err = app.resources.FetchAll(ctx, source)
				return err
			}); err != nil {
				return err
			}

			errs := make(map[domain.ResourceKind]string, len(ov.Errors))
			for kind, fetchErr := range ov.Errors {
				errs[kind] = fetchErr.Error()
			}
			view := struct {
				Documents    []domain.Document              `json:"documents" yaml:"documents"`
				Jobs         []domain.Job                   `json:"jobs" yaml:"jobs"`
				Scholarships []domain.Scholarship           `json:"scholarships" yaml:"scholarships"`
				Errors       map[domain.ResourceKind]string `json:"errors,omitempty" yaml:"errors,omitempty"`
			}{ov.Documents, ov.Jobs, ov.Scholarships, errs}
			if handled, err := writeStructured(cmd, view); handled {
				return err
			}

			rendered, err := resourcesrender.RenderOverview([]resourcesrender.OverviewSection{
				{Kind: domain.KindDocuments, Documents: ov.Documents, Err: ov.Errors[domain.KindDocuments]},
				{Kind: domain.KindJobs, Jobs: ov.Jobs, Err: ov.Errors[domain.KindJobs]},
				{Kind: domain.KindScholarships, Scholarships: ov.Scholarships, Err: ov.Errors[domain.KindScholarships]},
			})
			return writeRendered(cmd, rendered, err)
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "gateway", "Where to read from: gateway or gateway:v1|v2|v3")

	return cmd
}
