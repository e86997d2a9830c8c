package domain

import (
	"fmt"
	"strings"
)

// NotAvailable is displayed for any optional field that is absent or unparseable.
const NotAvailable = "N/A"

const NoDescription = "No description available"

type ResourceKind string

const (
	KindDocuments    ResourceKind = "documents"
	KindJobs         ResourceKind = "jobs"
	KindScholarships ResourceKind = "scholarships"
)

func ParseResourceKind(raw string) (ResourceKind, error) {
	switch ResourceKind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindDocuments:
		return KindDocuments, nil
	case KindJobs:
		return KindJobs, nil
	case KindScholarships:
		return KindScholarships, nil
	default:
		return "", fmt.Errorf("unsupported resource kind %q", raw)
	}
}

// Record is one of Document, Job or Scholarship.
type Record interface {
	Kind() ResourceKind
	RecordID() string
	MalformedFields() []string
	isRecord()
}

type Document struct {
	ID                 string   `json:"id" yaml:"id"`
	StudentID          string   `json:"student_id" yaml:"student_id"`
	Type               string   `json:"document_type" yaml:"document_type"`
	VerificationStatus string   `json:"verification_status" yaml:"verification_status"`
	IssueDate          string   `json:"issue_date" yaml:"issue_date"`
	Malformed          []string `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

func (Document) Kind() ResourceKind          { return KindDocuments }
func (d Document) RecordID() string          { return d.ID }
func (d Document) MalformedFields() []string { return d.Malformed }
func (Document) isRecord()                   {}

// StatusClass buckets the verification status for display.
func (d Document) StatusClass() string {
	switch strings.ToLower(strings.TrimSpace(d.VerificationStatus)) {
	case "verified":
		return "verified"
	case "pending":
		return "pending"
	case "rejected":
		return "rejected"
	default:
		return ""
	}
}

// Eligibility holds the fields derived from an embedded eligibility_criteria
// structure. Each one is NotAvailable unless the structure parsed and had it.
type Eligibility struct {
	MinCGPA        string `json:"min_cgpa" yaml:"min_cgpa"`
	DegreeRequired string `json:"degree_required" yaml:"degree_required"`
	MinPercentage  string `json:"min_percentage" yaml:"min_percentage"`
	MaxIncomePA    string `json:"max_income_pa" yaml:"max_income_pa"`
	// Text keeps free-form criteria that were not a structure at all.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

func UnknownEligibility() Eligibility {
	return Eligibility{
		MinCGPA:        NotAvailable,
		DegreeRequired: NotAvailable,
		MinPercentage:  NotAvailable,
		MaxIncomePA:    NotAvailable,
	}
}

type Job struct {
	ID          string      `json:"id" yaml:"id"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`
	Company     string      `json:"company" yaml:"company"`
	Location    string      `json:"location" yaml:"location"`
	PostedDate  string      `json:"posted_date" yaml:"posted_date"`
	SourceURL   string      `json:"source_url" yaml:"source_url"`
	MatchReason string      `json:"match_reason" yaml:"match_reason"`
	Skills      string      `json:"skills" yaml:"skills"`
	Eligibility Eligibility `json:"eligibility" yaml:"eligibility"`
	Malformed   []string    `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

func (Job) Kind() ResourceKind          { return KindJobs }
func (j Job) RecordID() string          { return j.ID }
func (j Job) MalformedFields() []string { return j.Malformed }
func (Job) isRecord()                   {}

type Scholarship struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Provider    string      `json:"provider" yaml:"provider"`
	Description string      `json:"description" yaml:"description"`
	Amount      string      `json:"amount" yaml:"amount"`
	Deadline    string      `json:"deadline" yaml:"deadline"`
	URL         string      `json:"url" yaml:"url"`
	Eligibility Eligibility `json:"eligibility" yaml:"eligibility"`
	Malformed   []string    `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

func (Scholarship) Kind() ResourceKind          { return KindScholarships }
func (s Scholarship) RecordID() string          { return s.ID }
func (s Scholarship) MalformedFields() []string { return s.Malformed }
func (Scholarship) isRecord()                   {}

type Student struct {
	ID       string `json:"id" yaml:"id"`
	FullName string `json:"full_name" yaml:"full_name"`
	Email    string `json:"email" yaml:"email"`
}

// Dashboard is the admin portal overview.
type Dashboard struct {
	Students  []Student  `json:"students" yaml:"students"`
	Documents []Document `json:"documents" yaml:"documents"`
}

// SourceOrigin is the backend surface a list is read from.
type SourceOrigin string

const (
	SourceGateway SourceOrigin = "gateway"
	SourcePortal  SourceOrigin = "portal"
)

// Source pairs an origin with the record shape it serves.
type Source struct {
	Origin SourceOrigin
	Schema SchemaVersion
}

func GatewaySource() Source {
	return Source{Origin: SourceGateway, Schema: SchemaAuto}
}

// ParseSource accepts "gateway", "portal" or either with a pinned schema,
// e.g. "gateway:v1".
func ParseSource(raw string) (Source, error) {
	origin, schema, _ := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), ":")

	source := Source{Schema: SchemaAuto}
	switch SourceOrigin(origin) {
	case "", SourceGateway:
		source.Origin = SourceGateway
	case SourcePortal:
		source.Origin = SourcePortal
	default:
		return Source{}, fmt.Errorf("unsupported source %q", raw)
	}

	version, err := ParseSchemaVersion(schema)
	if err != nil {
		return Source{}, err
	}
	source.Schema = version

	return source, nil
}

func (s Source) String() string {
	if s.Schema == "" || s.Schema == SchemaAuto {
		return string(s.Origin)
	}
	return string(s.Origin) + ":" + string(s.Schema)
}
