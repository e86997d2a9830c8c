package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DocumentsPath       = "/documents/"
	RecommendedJobsPath = "/jobs/recommended/"
	// Assumed gateway route; the backend does not expose a scholarships list yet.
	ScholarshipsPath    = "/scholarships/"
	DashboardPath       = "/portal/dashboard/"
)

var gatewayPaths = map[domain.ResourceKind]string{
	domain.KindDocuments:    DocumentsPath,
	domain.KindJobs:         RecommendedJobsPath,
	domain.KindScholarships: ScholarshipsPath,
}

// ResourceClient fetches read-only lists and normalizes every record into
// its canonical shape. Each call is a single attempt.
type ResourceClient struct {
	gateway *Gateway
	metrics ports.Metrics
	log     zerolog.Logger

	mu      sync.Mutex
	loading map[domain.ResourceKind]int
}

func NewResourceClient(gateway *Gateway, metrics ports.Metrics, log zerolog.Logger) *ResourceClient {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	return &ResourceClient{
		gateway: gateway,
		metrics: metrics,
		log:     log,
		loading: map[domain.ResourceKind]int{},
	}
}

// Loading reports whether a fetch of kind has not settled yet.
func (c *ResourceClient) Loading(kind domain.ResourceKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loading[kind] > 0
}

// FetchList returns every record of kind served by source. Any failure is a
// *domain.ResourceFetchError and no records are returned. Fields that fail to
// parse are recorded on their record and never fail the list.
func (c *ResourceClient) FetchList(ctx context.Context, kind domain.ResourceKind, source domain.Source) ([]domain.Record, error) {
	c.begin(kind)
	defer c.end(kind)

	raws, err := c.fetchRaw(ctx, kind, source)
	if err != nil {
		c.metrics.CountFetch(string(kind), "failed", 0)
		c.log.Debug().Err(err).Str("kind", string(kind)).Str("source", source.String()).Msg("list fetch failed")
		return nil, &domain.ResourceFetchError{Kind: kind, Err: err}
	}

	records := make([]domain.Record, 0, len(raws))
	malformed := 0
	for _, raw := range raws {
		record := normalize(kind, raw, source.Schema)
		malformed += len(record.MalformedFields())
		records = append(records, record)
	}

	c.metrics.CountFetch(string(kind), "ok", malformed)
	return records, nil
}

func (c *ResourceClient) Documents(ctx context.Context, source domain.Source) ([]domain.Document, error) {
	records, err := c.FetchList(ctx, domain.KindDocuments, source)
	return recordsOf[domain.Document](records), err
}

func (c *ResourceClient) Jobs(ctx context.Context, source domain.Source) ([]domain.Job, error) {
	records, err := c.FetchList(ctx, domain.KindJobs, source)
	return recordsOf[domain.Job](records), err
}

func (c *ResourceClient) Scholarships(ctx context.Context, source domain.Source) ([]domain.Scholarship, error) {
	records, err := c.FetchList(ctx, domain.KindScholarships, source)
	return recordsOf[domain.Scholarship](records), err
}

// Overview is the result of fetching every student list at once. A failed
// list leaves its slice nil and its error in Errors.
type Overview struct {
	Documents    []domain.Document             `json:"documents" yaml:"documents"`
	Jobs         []domain.Job                  `json:"jobs" yaml:"jobs"`
	Scholarships []domain.Scholarship          `json:"scholarships" yaml:"scholarships"`
	Errors       map[domain.ResourceKind]error `json:"-" yaml:"-"`
}

// FetchAll fetches documents, jobs and scholarships concurrently. A list
// that fails is recorded in Errors and the others carry on. An expired
// session cancels the remaining fetches and is returned as the error.
func (c *ResourceClient) FetchAll(ctx context.Context, source domain.Source) (Overview, error) {
	var (
		overview Overview
		mu       sync.Mutex
	)
	overview.Errors = map[domain.ResourceKind]error{}
	group, groupCtx := errgroup.WithContext(ctx)

	fetch := func(kind domain.ResourceKind, load func(context.Context) error) {
		group.Go(func() error {
			err := load(groupCtx)
			if err == nil {
				return nil
			}
			mu.Lock()
			overview.Errors[kind] = err
			mu.Unlock()
			if errors.Is(err, domain.ErrSessionExpired) {
				return err
			}
			return nil
		})
	}

	fetch(domain.KindDocuments, func(ctx context.Context) (err error) {
		overview.Documents, err = c.Documents(ctx, source)
		return err
	})
	fetch(domain.KindJobs, func(ctx context.Context) (err error) {
		overview.Jobs, err = c.Jobs(ctx, source)
		return err
	})
	fetch(domain.KindScholarships, func(ctx context.Context) (err error) {
		overview.Scholarships, err = c.Scholarships(ctx, source)
		return err
	})

	if err := group.Wait(); err != nil {
		return overview, fmt.Errorf("fetch overview: %w", err)
	}
	return overview, nil
}

func (c *ResourceClient) fetchRaw(ctx context.Context, kind domain.ResourceKind, source domain.Source) ([]domain.RawRecord, error) {
	switch source.Origin {
	case domain.SourcePortal:
		if kind != domain.KindDocuments {
			return nil, fmt.Errorf("the portal does not serve %s", kind)
		}
		resp, err := c.gateway.Admin(ctx, ports.Request{Method: http.MethodGet, Path: DashboardPath})
		if err != nil {
			return nil, err
		}
		return decodeList(resp, "documents")
	default:
		resp, err := c.gateway.Student(ctx, ports.Request{Method: http.MethodGet, Path: gatewayPaths[kind]})
		if err != nil {
			return nil, err
		}
		return decodeList(resp, string(kind))
	}
}

// decodeList accepts a bare array or an object wrapping the array under the
// kind name or a common pagination key.
func decodeList(resp ports.Response, key string) ([]domain.RawRecord, error) {
	if !resp.OK() {
		return nil, fmt.Errorf("%s", failureReason(resp))
	}

	decoder := json.NewDecoder(bytes.NewReader(resp.Body))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, &domain.TransportError{Op: "decode list", Err: err}
	}

	items, ok := payload.([]any)
	if !ok {
		object, isObject := payload.(map[string]any)
		if !isObject {
			return nil, &domain.TransportError{Op: "decode list", Err: fmt.Errorf("unexpected %T payload", payload)}
		}
		for _, candidate := range []string{key, "results", "data"} {
			if items, ok = object[candidate].([]any); ok {
				break
			}
		}
		if !ok {
			return nil, &domain.TransportError{Op: "decode list", Err: fmt.Errorf("no %s list in response", key)}
		}
	}

	out := make([]domain.RawRecord, 0, len(items))
	for i, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			return nil, &domain.TransportError{Op: "decode list", Err: fmt.Errorf("item %d is %T, not an object", i, item)}
		}
		out = append(out, object)
	}

	return out, nil
}

func normalize(kind domain.ResourceKind, raw domain.RawRecord, schema domain.SchemaVersion) domain.Record {
	switch kind {
	case domain.KindJobs:
		return domain.NormalizeJob(raw, schema)
	case domain.KindScholarships:
		return domain.NormalizeScholarship(raw, schema)
	default:
		return domain.NormalizeDocument(raw)
	}
}

func recordsOf[T domain.Record](records []domain.Record) []T {
	if records == nil {
		return nil
	}

	out := make([]T, 0, len(records))
	for _, record := range records {
		if typed, ok := record.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

func (c *ResourceClient) begin(kind domain.ResourceKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading[kind]++
}

func (c *ResourceClient) end(kind domain.ResourceKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading[kind]--
}
