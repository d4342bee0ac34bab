// Package practiceapi is the HTTP client of the practice backend. It owns
// the endpoint paths, the response envelope and the translation between
// backend rows and the UI-facing types.
package practiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/observability"
	"github.com/Lagunov2003/practice-registry/internal/types"
)

// Backend endpoint paths.
const (
	EndpointTop           = "/GetTop3"
	EndpointPractices     = "/GetPractice"
	EndpointCreate        = "/PostPractice"
	EndpointGrade         = "/PatchGrade"
	EndpointComplete      = "/PatchComplete"
	EndpointStudents      = "/GetNameStudent"
	EndpointUniversities  = "/GetNameUni"
	EndpointDepartments   = "/GetNameDep"
	EndpointSupervisors   = "/GetNameSup"
	EndpointOrganizations = "/GetNameOrg"
)

// HeaderRequestID carries a per-request correlation id.
const HeaderRequestID = "X-Request-ID"

const tracerName = "github.com/Lagunov2003/practice-registry/internal/practiceapi"

// Client talks to the practice backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records backend request counters and latency.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New returns a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zap.NewNop(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTop returns at most n most recent practices for the landing view;
// n <= 0 returns every row the backend sent.
func (c *Client) FetchTop(ctx context.Context, n int) ([]types.Practice, error) {
	var env Envelope[TopRow]
	if err := c.do(ctx, http.MethodGet, EndpointTop, nil, nil, &env); err != nil {
		return nil, err
	}
	rows := env.Rows
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	out := make([]types.Practice, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToPractice())
	}
	return out, nil
}

// FetchList returns the practices matching filters, newest first.
func (c *Client) FetchList(ctx context.Context, filters types.FilterSet) ([]types.Practice, error) {
	var env Envelope[PracticeRow]
	if err := c.do(ctx, http.MethodGet, EndpointPractices, FilterQuery(filters), nil, &env); err != nil {
		return nil, err
	}
	out := make([]types.Practice, 0, len(env.Rows))
	for _, r := range env.Rows {
		out = append(out, r.ToPractice())
	}
	return out, nil
}

// Create submits a new practice.
func (c *Client) Create(ctx context.Context, p types.Practice) (Result, error) {
	var res Result
	err := c.do(ctx, http.MethodPost, EndpointCreate, nil, NewCreatePayload(p), &res)
	return res, err
}

// UpdateGrade replaces the grade of practice id.
func (c *Client) UpdateGrade(ctx context.Context, id int64, grade string) (Result, error) {
	var res Result
	body := GradePayload{ID: strconv.FormatInt(id, 10), Grade: grade}
	err := c.do(ctx, http.MethodPatch, EndpointGrade, nil, body, &res)
	return res, err
}

// MarkCompleted moves practice id to its terminal state.
func (c *Client) MarkCompleted(ctx context.Context, id int64) (Result, error) {
	var res Result
	body := CompletePayload{ID: strconv.FormatInt(id, 10)}
	err := c.do(ctx, http.MethodPatch, EndpointComplete, nil, body, &res)
	return res, err
}

// SearchStudents returns students whose name contains q.
func (c *Client) SearchStudents(ctx context.Context, q string) ([]types.StudentRef, error) {
	rows, err := search[StudentRow](ctx, c, EndpointStudents, "ContextName", q)
	if err != nil {
		return nil, err
	}
	out := make([]types.StudentRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.StudentRef{ID: r.ID, Name: r.Name, University: r.University, Faculty: r.Department})
	}
	return out, nil
}

// SearchUniversities returns university names containing q.
func (c *Client) SearchUniversities(ctx context.Context, q string) ([]string, error) {
	rows, err := search[UniversityRow](ctx, c, EndpointUniversities, "ContextUni", q)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.University)
	}
	return out, nil
}

// SearchFaculties returns faculty names containing q.
func (c *Client) SearchFaculties(ctx context.Context, q string) ([]string, error) {
	rows, err := search[DepartmentRow](ctx, c, EndpointDepartments, "ContextDep", q)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Department)
	}
	return out, nil
}

// SearchSupervisors returns supervisors whose name contains q.
func (c *Client) SearchSupervisors(ctx context.Context, q string) ([]types.NamedRef, error) {
	return c.searchNamed(ctx, EndpointSupervisors, "ContextSup", q)
}

// SearchOrganizations returns organizations whose name contains q.
func (c *Client) SearchOrganizations(ctx context.Context, q string) ([]types.NamedRef, error) {
	return c.searchNamed(ctx, EndpointOrganizations, "ContextOrg", q)
}

// Lookup dispatches a search by domain and wraps the rows as suggestions.
func (c *Client) Lookup(ctx context.Context, domain types.Domain, q string) ([]types.Suggestion, error) {
	switch domain {
	case types.DomainStudent:
		rows, err := c.SearchStudents(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]types.Suggestion, 0, len(rows))
		for _, r := range rows {
			out = append(out, types.StudentSuggestion(r))
		}
		return out, nil
	case types.DomainUniversity, types.DomainFaculty:
		find, wrap := c.SearchUniversities, types.UniversitySuggestion
		if domain == types.DomainFaculty {
			find, wrap = c.SearchFaculties, types.FacultySuggestion
		}
		names, err := find(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]types.Suggestion, 0, len(names))
		for _, n := range names {
			out = append(out, wrap(n))
		}
		return out, nil
	case types.DomainOrganization, types.DomainSupervisor:
		find, wrap := c.SearchOrganizations, types.OrganizationSuggestion
		if domain == types.DomainSupervisor {
			find, wrap = c.SearchSupervisors, types.SupervisorSuggestion
		}
		refs, err := find(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]types.Suggestion, 0, len(refs))
		for _, r := range refs {
			out = append(out, wrap(r.ID, r.Name))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown lookup domain %q", domain)
	}
}

func (c *Client) searchNamed(ctx context.Context, endpoint, param, q string) ([]types.NamedRef, error) {
	rows, err := search[NamedRow](ctx, c, endpoint, param, q)
	if err != nil {
		return nil, err
	}
	out := make([]types.NamedRef, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.NamedRef{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func search[T any](ctx context.Context, c *Client, endpoint, param, q string) ([]T, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	var env Envelope[T]
	if err := c.do(ctx, http.MethodGet, endpoint, url.Values{param: {q}}, nil, &env); err != nil {
		return nil, err
	}
	return env.Rows, nil
}

// FilterQuery translates filters into GetPractice query parameters.
// Empty criteria are omitted; the sort order is always present.
func FilterQuery(f types.FilterSet) url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			q.Set(key, value)
		}
	}
	set("ContextYear", f.Year)
	if s := strings.TrimSpace(f.Status); s != "" {
		if types.ParseStatus(s) == types.StatusCompleted {
			q.Set("ContextStatus", "true")
		} else {
			q.Set("ContextStatus", "false")
		}
	}
	if t := strings.TrimSpace(f.Type); t != "" {
		q.Set("ContextType", string(types.ParsePracticeType(t)))
	}
	set("ContextUni", f.University)
	set("ContextOrg", f.Company)
	set("ContextDepart", f.Faculty)
	set("ContextStudentName", strings.ToLower(f.StudentName))
	q.Set("SortOrder", "date,DESC")
	return q
}

// statusEnvelope is the part of every response inspected for errors.
type statusEnvelope struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "practiceapi "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("practice.endpoint", endpoint),
		))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.metrics.ObserveBackend(endpoint, outcome, time.Since(start))
		span.End()
	}()

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf, mErr := json.Marshal(body)
		if mErr != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, mErr)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	log := c.log.With(zap.String("endpoint", endpoint), zap.String("request_id", requestID))
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("backend request failed", zap.Error(err))
		return &RequestError{Endpoint: endpoint, Message: fmt.Sprintf("request to %s failed: %v", endpoint, err), Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: undecodableMessage(resp.StatusCode), Err: err}
	}
	var head statusEnvelope
	if jErr := json.Unmarshal(raw, &head); jErr != nil {
		log.Warn("backend returned undecodable body", zap.Int("status", resp.StatusCode), zap.Error(jErr))
		return &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: undecodableMessage(resp.StatusCode), Err: jErr}
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok || head.Status != statusSuccess {
		msg := head.Error
		if msg == "" {
			msg = head.Message
		}
		if msg == "" {
			msg = statusMessage(resp.StatusCode)
		}
		log.Info("backend rejected request", zap.Int("status", resp.StatusCode), zap.String("message", msg))
		return &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if jErr := json.Unmarshal(raw, out); jErr != nil {
			return &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: fmt.Sprintf("malformed %s response: %v", endpoint, jErr), Err: jErr}
		}
	}
	log.Debug("backend request", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return nil
}
