package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
)

const summaryPathFormat = "/portal/summary/%d/"

// PortalClient reads the admin portal. Its calls never carry a credential
// and a 401 from them never ends the session.
type PortalClient struct {
	gateway *Gateway
}

func NewPortalClient(gateway *Gateway) *PortalClient {
	return &PortalClient{gateway: gateway}
}

type dashboardPayload struct {
	Students  []domain.RawRecord `json:"students"`
	Documents []domain.RawRecord `json:"documents"`
}

func (c *PortalClient) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	resp, err := c.gateway.Admin(ctx, ports.Request{Method: http.MethodGet, Path: DashboardPath})
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}
	if !resp.OK() {
		return domain.Dashboard{}, fmt.Errorf("load dashboard: %s", failureReason(resp))
	}

	decoder := json.NewDecoder(bytes.NewReader(resp.Body))
	decoder.UseNumber()

	var payload dashboardPayload
	if err := decoder.Decode(&payload); err != nil {
		return domain.Dashboard{}, &domain.TransportError{Op: "decode dashboard", Err: err}
	}

	dashboard := domain.Dashboard{
		Students:  make([]domain.Student, 0, len(payload.Students)),
		Documents: make([]domain.Document, 0, len(payload.Documents)),
	}
	for _, raw := range payload.Students {
		dashboard.Students = append(dashboard.Students, domain.NormalizeStudent(raw))
	}
	for _, raw := range payload.Documents {
		dashboard.Documents = append(dashboard.Documents, domain.NormalizeDocument(raw))
	}

	return dashboard, nil
}

type summaryPayload struct {
	SummaryText string `json:"summary_text"`
}

// Summary returns the server-written profile summary of one student.
func (c *PortalClient) Summary(ctx context.Context, studentID int) (string, error) {
	if studentID <= 0 {
		return "", fmt.Errorf("student id must be positive, got %d", studentID)
	}

	resp, err := c.gateway.Admin(ctx, ports.Request{Method: http.MethodGet, Path: fmt.Sprintf(summaryPathFormat, studentID)})
	if err != nil {
		return "", fmt.Errorf("load summary: %w", err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("load summary: %s", failureReason(resp))
	}

	var payload summaryPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", &domain.TransportError{Op: "decode summary", Err: err}
	}
	if strings.TrimSpace(payload.SummaryText) == "" {
		return "", errors.New("load summary: response has no summary_text")
	}

	return payload.SummaryText, nil
}
