package application

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recommendedJobs = `[
	{"job_id": 1, "job_title": "Data Analyst", "company_name": "Acme", "match_reason": "CGPA 8.1 >= 7.5",
	 "eligibility_criteria": "{\"min_cgpa\": 7.5, \"degree_required\": \"B.Tech\"}"},
	{"job_id": 2, "job_title": "Field Officer", "match_reason": "Degree matches",
	 "eligibility_criteria": {"min_percentage": 60, "max_income_pa": 250000}},
	{"job_id": 3, "job_title": "Clerk", "match_reason": "Open to all"}
]`

func TestResourceClientJobsWithMissingEligibility(t *testing.T) {
	t.Parallel()

	h := newHarness(t, transportFunc(func(_ context.Context, req ports.Request) (ports.Response, error) {
		assert.Equal(t, RecommendedJobsPath, req.Path)
		return ports.Response{StatusCode: http.StatusOK, Body: []byte(recommendedJobs)}, nil
	}))
	h.signIn(t, 7)

	records, err := h.resources.FetchList(context.Background(), domain.KindJobs, domain.GatewaySource())
	require.NoError(t, err)
	require.Len(t, records, 3)

	jobs := recordsOf[domain.Job](records)
	require.Len(t, jobs, 3)
	assert.Equal(t, "7.5", jobs[0].Eligibility.MinCGPA)
	assert.Equal(t, "B.Tech", jobs[0].Eligibility.DegreeRequired)
	assert.Equal(t, "60", jobs[1].Eligibility.MinPercentage)

	incomplete := jobs[2]
	assert.Equal(t, "Clerk", incomplete.Title)
	assert.Equal(t, "Open to all", incomplete.MatchReason)
	assert.Equal(t, domain.NotAvailable, incomplete.Eligibility.MinCGPA)
	assert.Equal(t, domain.NotAvailable, incomplete.Eligibility.DegreeRequired)
	assert.Equal(t, domain.NotAvailable, incomplete.Eligibility.MinPercentage)
	assert.Equal(t, domain.NotAvailable, incomplete.Eligibility.MaxIncomePA)
	assert.False(t, h.resources.Loading(domain.KindJobs))
}

func TestResourceClientFailureReturnsNoPartialList(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp ports.Response
		err  error
	}{
		{name: "server error", resp: ports.Response{StatusCode: http.StatusInternalServerError, Body: []byte(`{"error":"db down"}`)}},
		{name: "not json", resp: ports.Response{StatusCode: http.StatusOK, Body: []byte(`<html>`)}},
		{name: "item is not an object", resp: ports.Response{StatusCode: http.StatusOK, Body: []byte(`[{"document_id":1},"oops"]`)}},
		{name: "unreachable", err: &domain.TransportError{Op: "GET /documents/", Err: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, transportFunc(func(context.Context, ports.Request) (ports.Response, error) {
				return tt.resp, tt.err
			}))
			h.signIn(t, 7)

			records, err := h.resources.FetchList(context.Background(), domain.KindDocuments, domain.GatewaySource())
			assert.Nil(t, records)

			var fetchErr *domain.ResourceFetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, domain.KindDocuments, fetchErr.Kind)
		})
	}
}

func TestResourceClientAcceptsWrappedLists(t *testing.T) {
	t.Parallel()

	h := newHarness(t, transportFunc(func(context.Context, ports.Request) (ports.Response, error) {
		return ports.Response{StatusCode: http.StatusOK, Body: []byte(`{"count":1,"results":[{"name":"Merit","amount":5000}]}`)}, nil
	}))
	h.signIn(t, 7)

	scholarships, err := h.resources.Scholarships(context.Background(), domain.GatewaySource())
	require.NoError(t, err)
	require.Len(t, scholarships, 1)
	assert.Equal(t, "Merit", scholarships[0].Name)
	assert.Equal(t, "$5,000", scholarships[0].Amount)
}

func TestResourceClientPinnedSchema(t *testing.T) {
	t.Parallel()

	h := newHarness(t, transportFunc(func(context.Context, ports.Request) (ports.Response, error) {
		return ports.Response{StatusCode: http.StatusOK, Body: []byte(`[{"title":"Clerk","department":"Revenue"}]`)}, nil
	}))
	h.signIn(t, 7)

	jobs, err := h.resources.Jobs(context.Background(), domain.Source{Origin: domain.SourceGateway, Schema: domain.SchemaV2})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Revenue", jobs[0].Company)
}

func TestResourceClientPortalDocuments(t *testing.T) {
	t.Parallel()

	h := newHarness(t, transportFunc(func(_ context.Context, req ports.Request) (ports.Response, error) {
		assert.Equal(t, DashboardPath, req.Path)
		assert.Equal(t, ports.OriginPortal, req.Origin)
		return ports.Response{StatusCode: http.StatusOK, Body: []byte(`{
			"students": [{"student_id": 7, "full_name": "Asha", "email": "asha@example.com"}],
			"documents": [{"document_id": 3, "student": 7, "document_type": "Aadhaar", "verification_status": "Pending"}]
		}`)}, nil
	}))
	h.bootstrapAnonymous(t)

	documents, err := h.resources.Documents(context.Background(), domain.Source{Origin: domain.SourcePortal})
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "pending", documents[0].StatusClass())

	_, err = h.resources.Jobs(context.Background(), domain.Source{Origin: domain.SourcePortal})
	require.Error(t, err)
}

func TestResourceClientLoadingUntilSettled(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	h := newHarness(t, transportFunc(func(context.Context, ports.Request) (ports.Response, error) {
		<-release
		return ports.Response{StatusCode: http.StatusOK, Body: []byte(`[]`)}, nil
	}))
	h.signIn(t, 7)

	done := make(chan error, 1)
	go func() {
		_, err := h.resources.FetchList(context.Background(), domain.KindScholarships, domain.GatewaySource())
		done <- err
	}()

	require.Eventually(t, func() bool { return h.resources.Loading(domain.KindScholarships) }, time.Second, time.Millisecond)
	assert.False(t, h.resources.Loading(domain.KindJobs))

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.resources.Loading(domain.KindScholarships))
}

func TestResourceClientFetchAllIsolatesFailures(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := map[string]bool{}
	h := newHarness(t, transportFunc(func(_ context.Context, req ports.Request) (ports.Response, error) {
		mu.Lock()
		seen[req.Path] = true
		mu.Unlock()

		switch req.Path {
		case DocumentsPath:
			return ports.Response{StatusCode: http.StatusOK, Body: []byte(`[{"document_id":1,"document_type":"Marksheet"}]`)}, nil
		case RecommendedJobsPath:
			return ports.Response{StatusCode: http.StatusServiceUnavailable, Body: []byte(`{"error":"jobs service down"}`)}, nil
		default:
			return ports.Response{StatusCode: http.StatusOK, Body: []byte(`[{"scholarship_name":"Need","amount":null,"source_url":"x"}]`)}, nil
		}
	}))
	h.signIn(t, 7)

	overview, err := h.resources.FetchAll(context.Background(), domain.GatewaySource())
	require.NoError(t, err)

	require.Len(t, overview.Documents, 1)
	assert.Nil(t, overview.Jobs)
	require.Len(t, overview.Scholarships, 1)
	assert.Equal(t, domain.NotAvailable, overview.Scholarships[0].Amount)

	require.Len(t, overview.Errors, 1)
	assert.ErrorContains(t, overview.Errors[domain.KindJobs], "jobs service down")
	assert.Len(t, seen, 3)
}

func TestResourceClientFetchAllStopsOnExpiredSession(t *testing.T) {
	t.Parallel()

	h := newHarness(t, transportFunc(func(ctx context.Context, req ports.Request) (ports.Response, error) {
		if req.Path == RecommendedJobsPath {
			return ports.Response{StatusCode: http.StatusUnauthorized, Body: []byte(`{"detail":"Given token not valid for any token type"}`)}, nil
		}
		<-ctx.Done()
		return ports.Response{}, ctx.Err()
	}))
	h.signIn(t, 7)

	overview, err := h.resources.FetchAll(context.Background(), domain.GatewaySource())
	require.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.ErrorIs(t, overview.Errors[domain.KindJobs], domain.ErrSessionExpired)
	assert.Nil(t, overview.Documents)
	assert.Nil(t, overview.Scholarships)
	assert.False(t, h.sessions.Session().Authenticated())
}
