package resources

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// OverviewSection is one list of an overview; Err replaces the list when it
// failed to load.
type OverviewSection struct {
	Kind         domain.ResourceKind
	Documents    []domain.Document
	Jobs         []domain.Job
	Scholarships []domain.Scholarship
	Err          error
}

func RenderDocuments(docs []domain.Document) (string, error) {
	return run(func(s styles) string {
		return documentsView("My Documents", docs, s)
	})
}

func RenderJobs(jobs []domain.Job) (string, error) {
	return run(func(s styles) string {
		return jobsView(jobs, s)
	})
}

func RenderScholarships(scholarships []domain.Scholarship) (string, error) {
	return run(func(s styles) string {
		return scholarshipsView(scholarships, s)
	})
}

func RenderDashboard(dashboard domain.Dashboard) (string, error) {
	return run(func(s styles) string {
		return dashboardView(dashboard, s)
	})
}

// RenderOverview shows each section in order; a failed section becomes an
// error banner without hiding the others.
func RenderOverview(sections []OverviewSection) (string, error) {
	return run(func(s styles) string {
		blocks := make([]string, 0, len(sections))
		for _, section := range sections {
			if section.Err != nil {
				blocks = append(blocks, s.section.Render(errorBanner(section.Kind, section.Err, s)))
				continue
			}
			switch section.Kind {
			case domain.KindDocuments:
				blocks = append(blocks, s.section.Render(documentsView("My Documents", section.Documents, s)))
			case domain.KindJobs:
				blocks = append(blocks, s.section.Render(jobsView(section.Jobs, s)))
			case domain.KindScholarships:
				blocks = append(blocks, s.section.Render(scholarshipsView(section.Scholarships, s)))
			}
		}
		return lipgloss.JoinVertical(lipgloss.Left, blocks...)
	})
}

func errorBanner(kind domain.ResourceKind, err error, s styles) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.title.Render(kindTitle(kind)),
		s.warning.Render(fmt.Sprintf("Failed to load %s: %v", kind, err)),
	)
}

func kindTitle(kind domain.ResourceKind) string {
	switch kind {
	case domain.KindDocuments:
		return "My Documents"
	case domain.KindJobs:
		return "Recommended Jobs"
	default:
		return "Scholarships"
	}
}

func documentsView(title string, docs []domain.Document, s styles) string {
	verified := 0
	for _, doc := range docs {
		if doc.StatusClass() == "verified" {
			verified++
		}
	}

	lines := []string{
		s.title.Render(title),
		s.header.Render(fmt.Sprintf("documents: %d", len(docs))),
	}
	if len(docs) == 0 {
		lines = append(lines, s.empty.Render("No documents uploaded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	percent := 100 * float64(verified) / float64(len(docs))
	lines = append(lines, lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.meta.Render("verified:"),
		" ",
		renderProgressBar(percent, 24, s),
		" ",
		s.meta.Render(fmt.Sprintf("%d/%d", verified, len(docs))),
	))

	for _, doc := range docs {
		lines = append(lines, s.card.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			s.cardTitle.Render(doc.Type),
			s.detail.Render("Student ID: "+doc.StudentID),
			s.detail.Render("Issue Date: "+doc.IssueDate),
			statusBadge(doc, s),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusBadge(doc domain.Document, s styles) string {
	switch doc.StatusClass() {
	case "verified":
		return s.verified.Render(doc.VerificationStatus)
	case "pending":
		return s.pending.Render(doc.VerificationStatus)
	case "rejected":
		return s.rejected.Render(doc.VerificationStatus)
	default:
		return s.meta.Render(doc.VerificationStatus)
	}
}

func jobsView(jobs []domain.Job, s styles) string {
	lines := []string{
		s.title.Render("Recommended Jobs"),
		s.header.Render(fmt.Sprintf("jobs: %d", len(jobs))),
	}
	if len(jobs) == 0 {
		lines = append(lines, s.empty.Render("No matching jobs found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, job := range jobs {
		parts := []string{
			s.cardTitle.Render(job.Title),
			s.detail.Render(fmt.Sprintf("%s | %s", job.Company, job.Location)),
			s.detail.Render(job.Description),
		}
		if job.MatchReason != domain.NotAvailable {
			parts = append(parts, s.verified.Render("Why: "+job.MatchReason))
		}
		parts = append(parts, eligibilityLines(job.Eligibility, s)...)
		parts = append(parts, s.meta.Render(fmt.Sprintf("Posted: %s  %s", job.PostedDate, job.SourceURL)))
		parts = append(parts, malformedNote(job.Malformed, s)...)
		lines = append(lines, s.card.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func scholarshipsView(scholarships []domain.Scholarship, s styles) string {
	lines := []string{
		s.title.Render("Scholarships"),
		s.header.Render(fmt.Sprintf("scholarships: %d", len(scholarships))),
	}
	if len(scholarships) == 0 {
		lines = append(lines, s.empty.Render("No scholarships found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, sch := range scholarships {
		parts := []string{
			s.cardTitle.Render(sch.Name),
			s.detail.Render("Provider: " + sch.Provider),
			s.detail.Render(fmt.Sprintf("Amount: %s  Deadline: %s", sch.Amount, sch.Deadline)),
		}
		if sch.Description != domain.NotAvailable {
			parts = append(parts, s.detail.Render(sch.Description))
		}
		parts = append(parts, eligibilityLines(sch.Eligibility, s)...)
		if sch.URL != domain.NotAvailable {
			parts = append(parts, s.meta.Render(sch.URL))
		}
		parts = append(parts, malformedNote(sch.Malformed, s)...)
		lines = append(lines, s.card.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func dashboardView(dashboard domain.Dashboard, s styles) string {
	lines := []string{
		s.title.Render("Admin Dashboard"),
		s.header.Render(fmt.Sprintf("All Students (%d)", len(dashboard.Students))),
	}

	students := append([]domain.Student(nil), dashboard.Students...)
	sort.SliceStable(students, func(i, j int) bool {
		return strings.ToLower(students[i].FullName) < strings.ToLower(students[j].FullName)
	})
	for _, student := range students {
		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.cardTitle.Render(student.FullName),
			" ",
			s.meta.Render(fmt.Sprintf("ID: %s  Email: %s", student.ID, student.Email)),
		))
	}

	lines = append(lines, s.section.Render(documentsView(fmt.Sprintf("All Documents (%d)", len(dashboard.Documents)), dashboard.Documents, s)))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func eligibilityLines(e domain.Eligibility, s styles) []string {
	if e.Text != "" {
		return []string{s.meta.Render("Eligibility: " + e.Text)}
	}
	return []string{s.meta.Render(fmt.Sprintf(
		"Min CGPA: %s  Degree: %s  Min %%: %s  Max income p.a.: %s",
		e.MinCGPA, e.DegreeRequired, e.MinPercentage, e.MaxIncomePA,
	))}
}

func malformedNote(fields []string, s styles) []string {
	if len(fields) == 0 {
		return nil
	}
	return []string{s.empty.Render("unreadable: " + strings.Join(fields, ", "))}
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
