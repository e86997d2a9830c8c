package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SchemaVersion names one of the backend record shapes seen across releases.
type SchemaVersion string

const (
	SchemaAuto SchemaVersion = "auto"
	// SchemaV1 is the standalone job/scholarship service shape.
	SchemaV1 SchemaVersion = "v1"
	// SchemaV2 is the generated-data shape with short field names.
	SchemaV2 SchemaVersion = "v2"
	// SchemaV3 is the unified gateway shape.
	SchemaV3 SchemaVersion = "v3"
)

func ParseSchemaVersion(raw string) (SchemaVersion, error) {
	switch SchemaVersion(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SchemaAuto:
		return SchemaAuto, nil
	case SchemaV1:
		return SchemaV1, nil
	case SchemaV2:
		return SchemaV2, nil
	case SchemaV3:
		return SchemaV3, nil
	default:
		return "", fmt.Errorf("unsupported schema version %q", raw)
	}
}

// RawRecord is one decoded list element. Numbers must be decoded as
// json.Number so identifiers and amounts keep their original text.
type RawRecord map[string]any

var errNotScalar = errors.New("expected a scalar value")

type jobAliases struct {
	id, title, description, company, location, posted, url, matchReason, skills, eligibility []string
}

type scholarshipAliases struct {
	id, name, provider, description, amount, deadline, url, eligibility []string
}

var jobSchemas = map[SchemaVersion]jobAliases{
	SchemaV1: {
		id:          []string{"job_id"},
		title:       []string{"job_title"},
		description: []string{"job_description"},
		company:     []string{"company_name"},
		location:    []string{"location"},
		posted:      []string{"posted_date"},
		url:         []string{"source_url"},
		eligibility: []string{"eligibility_criteria"},
	},
	SchemaV2: {
		id:          []string{"id"},
		title:       []string{"title"},
		description: []string{"description"},
		company:     []string{"department"},
		location:    []string{"location"},
		posted:      []string{"posted_date"},
		url:         []string{"url"},
		eligibility: []string{"eligibility"},
	},
	SchemaV3: {
		id:          []string{"job_id", "id"},
		title:       []string{"job_title", "title"},
		description: []string{"job_description", "description"},
		company:     []string{"company_name", "department"},
		location:    []string{"location"},
		posted:      []string{"posted_date"},
		url:         []string{"source_url", "url"},
		matchReason: []string{"match_reason"},
		skills:      []string{"required_skills_raw", "required_skills"},
		eligibility: []string{"eligibility_criteria"},
	},
}

var scholarshipSchemas = map[SchemaVersion]scholarshipAliases{
	SchemaV1: {
		id:          []string{"scholarship_id"},
		name:        []string{"scholarship_name"},
		description: []string{"description"},
		eligibility: []string{"eligibility_criteria"},
	},
	SchemaV2: {
		id:          []string{"id"},
		name:        []string{"name"},
		provider:    []string{"provider"},
		description: []string{"description"},
		amount:      []string{"amount"},
		deadline:    []string{"deadline"},
		url:         []string{"url"},
		eligibility: []string{"eligibility"},
	},
	SchemaV3: {
		id:          []string{"scholarship_id", "id"},
		name:        []string{"scholarship_name", "name"},
		provider:    []string{"provider"},
		description: []string{"description"},
		amount:      []string{"amount"},
		deadline:    []string{"deadline_date", "deadline"},
		url:         []string{"source_url", "url"},
		eligibility: []string{"eligibility_criteria"},
	},
}

// DetectJobSchema guesses the shape of a job record from its keys.
func DetectJobSchema(raw RawRecord) SchemaVersion {
	switch {
	case has(raw, "required_skills_raw", "match_reason"):
		return SchemaV3
	case has(raw, "company_name"):
		return SchemaV1
	case has(raw, "title") && !has(raw, "job_title"):
		return SchemaV2
	default:
		return SchemaV3
	}
}

// DetectScholarshipSchema guesses the shape of a scholarship record from its keys.
func DetectScholarshipSchema(raw RawRecord) SchemaVersion {
	switch {
	case has(raw, "deadline_date", "source_url"):
		return SchemaV3
	case has(raw, "name") && !has(raw, "scholarship_name"):
		return SchemaV2
	case has(raw, "scholarship_name") && !has(raw, "amount"):
		return SchemaV1
	default:
		return SchemaV3
	}
}

func NormalizeDocument(raw RawRecord) Document {
	var f fieldReader
	doc := Document{
		ID:                 f.text(raw, "id", "document_id", "id"),
		Type:               f.text(raw, "document_type", "document_type", "type"),
		VerificationStatus: f.text(raw, "verification_status", "verification_status", "status"),
		IssueDate:          displayDate(f.text(raw, "issue_date", "issue_date")),
	}

	// The student reference is either a bare id or a nested student object.
	if nested, ok := raw["student"].(map[string]any); ok {
		doc.StudentID = f.text(RawRecord(nested), "student", "student_id", "id")
	} else {
		doc.StudentID = f.text(raw, "student", "student", "student_id")
	}

	doc.Malformed = f.malformed
	return doc
}

func NormalizeStudent(raw RawRecord) Student {
	var f fieldReader
	return Student{
		ID:       f.text(raw, "id", "student_id", "id"),
		FullName: f.text(raw, "full_name", "full_name", "name"),
		Email:    f.text(raw, "email", "email"),
	}
}

func NormalizeJob(raw RawRecord, schema SchemaVersion) Job {
	if schema == SchemaAuto || schema == "" {
		schema = DetectJobSchema(raw)
	}
	aliases, ok := jobSchemas[schema]
	if !ok {
		aliases = jobSchemas[SchemaV3]
	}

	var f fieldReader
	job := Job{
		ID:          f.text(raw, "id", aliases.id...),
		Title:       f.text(raw, "title", aliases.title...),
		Description: f.text(raw, "description", aliases.description...),
		Company:     f.text(raw, "company", aliases.company...),
		Location:    f.text(raw, "location", aliases.location...),
		PostedDate:  displayDate(f.text(raw, "posted_date", aliases.posted...)),
		SourceURL:   f.text(raw, "source_url", aliases.url...),
		MatchReason: f.text(raw, "match_reason", aliases.matchReason...),
		Skills:      f.list(raw, "skills", aliases.skills...),
		Eligibility: f.eligibility(raw, aliases.eligibility...),
	}
	if job.Description == NotAvailable {
		job.Description = NoDescription
	}

	job.Malformed = f.malformed
	return job
}

func NormalizeScholarship(raw RawRecord, schema SchemaVersion) Scholarship {
	if schema == SchemaAuto || schema == "" {
		schema = DetectScholarshipSchema(raw)
	}
	aliases, ok := scholarshipSchemas[schema]
	if !ok {
		aliases = scholarshipSchemas[SchemaV3]
	}

	var f fieldReader
	s := Scholarship{
		ID:          f.text(raw, "id", aliases.id...),
		Name:        f.text(raw, "name", aliases.name...),
		Provider:    f.text(raw, "provider", aliases.provider...),
		Description: f.text(raw, "description", aliases.description...),
		Amount:      f.amount(raw, "amount", aliases.amount...),
		Deadline:    displayDate(f.text(raw, "deadline", aliases.deadline...)),
		URL:         f.text(raw, "url", aliases.url...),
		Eligibility: f.eligibility(raw, aliases.eligibility...),
	}

	s.Malformed = f.malformed
	return s
}

// fieldReader extracts display strings and collects the names of fields
// that were present but could not be read.
type fieldReader struct {
	malformed []string
}

func (f *fieldReader) fail(field string) {
	for _, existing := range f.malformed {
		if existing == field {
			return
		}
	}
	f.malformed = append(f.malformed, field)
}

func (f *fieldReader) text(raw RawRecord, field string, keys ...string) string {
	value, ok := lookup(raw, keys...)
	if !ok {
		return NotAvailable
	}

	text, err := scalarText(value)
	if err != nil {
		f.fail(field)
		return NotAvailable
	}
	if text == "" {
		return NotAvailable
	}
	return text
}

func (f *fieldReader) list(raw RawRecord, field string, keys ...string) string {
	value, ok := lookup(raw, keys...)
	if !ok {
		return NotAvailable
	}

	items, ok := value.([]any)
	if !ok {
		return f.text(raw, field, keys...)
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		text, err := scalarText(item)
		if err != nil {
			f.fail(field)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return NotAvailable
	}
	return strings.Join(parts, ", ")
}

var amountPrinter = message.NewPrinter(language.English)

func (f *fieldReader) amount(raw RawRecord, field string, keys ...string) string {
	value, ok := lookup(raw, keys...)
	if !ok {
		return NotAvailable
	}

	text, err := scalarText(value)
	if err != nil {
		f.fail(field)
		return NotAvailable
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(text)
	if cleaned == "" {
		return NotAvailable
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		f.fail(field)
		return NotAvailable
	}

	return FormatAmount(amount)
}

// FormatAmount renders a currency amount with thousands separators and
// drops the cents when the amount is whole.
func FormatAmount(amount float64) string {
	if amount == math.Trunc(amount) {
		return amountPrinter.Sprintf("$%.0f", amount)
	}
	return amountPrinter.Sprintf("$%.2f", amount)
}

var eligibilityKeys = struct {
	minCGPA, degree, minPercentage, maxIncome []string
}{
	minCGPA:       []string{"min_cgpa", "cgpa"},
	degree:        []string{"degree_required", "degree", "degrees"},
	minPercentage: []string{"min_percentage", "percentage"},
	maxIncome:     []string{"max_income_pa", "max_income", "income_limit"},
}

// eligibility parses the embedded criteria. A missing structure yields
// NotAvailable for every derived field; an unparseable one does the same and
// is recorded as malformed.
func (f *fieldReader) eligibility(raw RawRecord, keys ...string) Eligibility {
	out := UnknownEligibility()

	value, ok := lookup(raw, keys...)
	if !ok {
		return out
	}

	field := "eligibility_criteria"
	if len(keys) > 0 {
		field = keys[0]
	}

	var criteria RawRecord
	switch v := value.(type) {
	case map[string]any:
		criteria = v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return out
		}
		if !strings.HasPrefix(trimmed, "{") {
			// Free-text eligibility is shown as written.
			out.Text = trimmed
			return out
		}
		decoded, err := decodeObject([]byte(trimmed))
		if err != nil {
			f.fail(field)
			return out
		}
		criteria = decoded
	default:
		f.fail(field)
		return out
	}

	var nested fieldReader
	out.MinCGPA = nested.text(criteria, "min_cgpa", eligibilityKeys.minCGPA...)
	out.DegreeRequired = nested.list(criteria, "degree_required", eligibilityKeys.degree...)
	out.MinPercentage = nested.text(criteria, "min_percentage", eligibilityKeys.minPercentage...)
	out.MaxIncomePA = nested.text(criteria, "max_income_pa", eligibilityKeys.maxIncome...)
	for _, name := range nested.malformed {
		f.fail(field + "." + name)
	}

	return out
}

func decodeObject(data []byte) (RawRecord, error) {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()

	var out map[string]any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func lookup(raw RawRecord, keys ...string) (any, bool) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		return value, true
	}
	return nil, false
}

func has(raw RawRecord, keys ...string) bool {
	for _, key := range keys {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func scalarText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", errNotScalar
	}
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// displayDate reduces timestamps to a calendar date and leaves anything it
// does not recognise as written.
func displayDate(value string) string {
	if value == NotAvailable {
		return value
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return value
}

// MalformedErrors expands a record's malformed field names into errors.
func MalformedErrors(record Record) []error {
	fields := append([]string(nil), record.MalformedFields()...)
	sort.Strings(fields)

	out := make([]error, 0, len(fields))
	for _, field := range fields {
		out = append(out, &MalformedFieldError{Field: field, Err: errors.New("unreadable value")})
	}
	return out
}
