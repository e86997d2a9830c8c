package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Sanskargoyal608/Eziii/internal/domain"
	"github.com/Sanskargoyal608/Eziii/internal/ports"
	"github.com/rs/zerolog"
)

const (
	StudentQueryPath = "/federated-query/"
	AdminQueryPath   = "/portal/chat/"

	sessionExpiredReply = "Session expired. Please log in again."
)

// QueryResult is what one submission added to its conversation.
type QueryResult struct {
	UserMessage domain.Message
	Reply       domain.Message
	State       domain.QueryState
}

type conversationID struct {
	role domain.Role
	key  domain.ContextKey
}

// QueryDispatcher runs the Idle -> Sending -> Resolved/Failed -> Idle cycle
// for each conversation. At most one query is outstanding per conversation.
type QueryDispatcher struct {
	gateway       *Gateway
	sessions      *SessionManager
	conversations *ConversationStore
	metrics       ports.Metrics
	log           zerolog.Logger

	mu       sync.Mutex
	inflight map[conversationID]struct{}
}

func NewQueryDispatcher(gateway *Gateway, sessions *SessionManager, conversations *ConversationStore, metrics ports.Metrics, log zerolog.Logger) *QueryDispatcher {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}

	return &QueryDispatcher{
		gateway:       gateway,
		sessions:      sessions,
		conversations: conversations,
		metrics:       metrics,
		log:           log,
		inflight:      map[conversationID]struct{}{},
	}
}

// Submit appends the user's message, sends the query and appends exactly one
// reply to the conversation (role, key) captured here. A failed query is not
// an error: its reply is an "Error: " message and State is QueryFailed. When
// the session that issued the query has ended by the time the reply arrives,
// nothing is appended and domain.ErrStaleResponse is returned.
func (d *QueryDispatcher) Submit(ctx context.Context, role domain.Role, key domain.ContextKey, text string) (QueryResult, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return QueryResult{State: domain.QueryIdle}, domain.ErrEmptyQuery
	}
	if err := key.ValidFor(role); err != nil {
		return QueryResult{State: domain.QueryIdle}, err
	}

	sessionID, err := d.issuingSession(role)
	if err != nil {
		return QueryResult{State: domain.QueryIdle}, err
	}

	conv := conversationID{role: role, key: key}
	if !d.acquire(conv) {
		return QueryResult{State: domain.QuerySending}, domain.ErrQueryInFlight
	}
	defer d.release(conv)

	userMsg, err := d.conversations.Append(ctx, role, key, domain.Message{Sender: domain.SenderUser, Text: query})
	if err != nil {
		return QueryResult{State: domain.QueryIdle}, fmt.Errorf("record query: %w", err)
	}
	result := QueryResult{UserMessage: userMsg}

	reply, dispatchErr := d.dispatch(ctx, role, key, query)

	expired := errors.Is(dispatchErr, domain.ErrSessionExpired)
	switch {
	case errors.Is(dispatchErr, domain.ErrStaleResponse):
		return d.dropStale(role, sessionID, result)
	case expired:
		reply = "Error: " + sessionExpiredReply
		result.State = domain.QueryFailed
	case dispatchErr != nil:
		reply = "Error: " + dispatchErr.Error()
		result.State = domain.QueryFailed
	default:
		result.State = domain.QueryResolved
	}

	var botMsg domain.Message
	appendReply := func() error {
		botMsg, err = d.conversations.Append(ctx, role, key, domain.Message{Sender: domain.SenderBot, Text: reply})
		return err
	}
	if expired {
		// This query's 401 ended the issuing session; its reply is still recorded.
		err = appendReply()
	} else {
		var current bool
		current, err = d.sessions.WhileCurrent(sessionID, appendReply)
		if !current {
			return d.dropStale(role, sessionID, result)
		}
	}
	if err != nil {
		return result, fmt.Errorf("record reply: %w", err)
	}
	result.Reply = botMsg

	outcome := "resolved"
	if result.State == domain.QueryFailed {
		outcome = "failed"
		d.log.Debug().Err(dispatchErr).Str("role", string(role)).Msg("query failed")
	}
	d.metrics.CountQuery(string(role), outcome)

	if errors.Is(dispatchErr, domain.ErrSessionExpired) {
		return result, dispatchErr
	}
	return result, nil
}

func (d *QueryDispatcher) dropStale(role domain.Role, sessionID string, result QueryResult) (QueryResult, error) {
	d.metrics.CountQuery(string(role), "stale")
	d.log.Debug().Str("session", sessionID).Msg("dropping reply for ended session")
	result.State = domain.QueryIdle
	return result, domain.ErrStaleResponse
}

// State reports whether a query is outstanding for the conversation.
func (d *QueryDispatcher) State(role domain.Role, key domain.ContextKey) domain.QueryState {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.inflight[conversationID{role: role, key: key}]; ok {
		return domain.QuerySending
	}
	return domain.QueryIdle
}

func (d *QueryDispatcher) issuingSession(role domain.Role) (string, error) {
	if role == domain.RoleStudent {
		_, sessionID, err := d.sessions.AccessToken()
		return sessionID, err
	}
	return d.sessions.Current()
}

func (d *QueryDispatcher) acquire(conv conversationID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, busy := d.inflight[conv]; busy {
		return false
	}
	d.inflight[conv] = struct{}{}
	return true
}

func (d *QueryDispatcher) release(conv conversationID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.inflight, conv)
}

type studentQuery struct {
	Query     string `json:"query"`
	StudentID *int   `json:"student_id,omitempty"`
}

type adminQuery struct {
	Query     string `json:"query"`
	StudentID any    `json:"student_id"`
}

// dispatch returns the display text of a successful reply, or an error whose
// message is the failure reason.
func (d *QueryDispatcher) dispatch(ctx context.Context, role domain.Role, key domain.ContextKey, query string) (string, error) {
	var (
		resp ports.Response
		err  error
	)

	if role == domain.RoleStudent {
		payload := studentQuery{Query: query, StudentID: d.sessions.Session().Identity.StudentID}
		req, encodeErr := jsonRequest(http.MethodPost, StudentQueryPath, payload)
		if encodeErr != nil {
			return "", encodeErr
		}
		resp, err = d.gateway.Student(ctx, req)
	} else {
		payload := adminQuery{Query: query, StudentID: string(domain.ContextAggregate)}
		if id, ok := key.StudentID(); ok {
			payload.StudentID = id
		}
		req, encodeErr := jsonRequest(http.MethodPost, AdminQueryPath, payload)
		if encodeErr != nil {
			return "", encodeErr
		}
		resp, err = d.gateway.Admin(ctx, req)
	}

	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", errors.New(failureReason(resp))
	}

	return replyText(resp.Body)
}

// replyText prefers the server's prose answer and falls back to the whole
// payload, indented.
func replyText(body []byte) (string, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &domain.TransportError{Op: "decode reply", Err: err}
	}

	if object, ok := payload.(map[string]any); ok {
		if text, ok := object["response_text"].(string); ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(body), "", "  "); err != nil {
		return "", &domain.TransportError{Op: "format reply", Err: err}
	}
	return out.String(), nil
}
