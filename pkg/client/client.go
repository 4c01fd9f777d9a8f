package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/terra-clan/curriculum-engine/internal/models"
)

// ErrNotFound is returned when the backend answers 404
var ErrNotFound = errors.New("resource not found")

// APIError is a non-success answer from the backend
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a Go SDK for the course backend API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new backend client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// envelope is the backend's {success, data, error} response wrapper.
// error is either a plain string or {code, message}.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) apiError(status int) *APIError {
	apiErr := &APIError{Status: status, Message: e.Message}
	if len(e.Error) == 0 || string(e.Error) == "null" {
		return apiErr
	}

	var text string
	if err := json.Unmarshal(e.Error, &text); err == nil {
		apiErr.Message = text
		return apiErr
	}

	var detail struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Error, &detail); err == nil {
		apiErr.Code = detail.Code
		if detail.Message != "" {
			apiErr.Message = detail.Message
		}
	}
	return apiErr
}

// ListActivities retrieves activities of one type
func (c *Client) ListActivities(ctx context.Context, activityType string, pageSize int) ([]models.Activity, error) {
	q := url.Values{}
	if activityType != "" {
		q.Set("type", activityType)
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}

	var activities []models.Activity
	if err := c.call(ctx, http.MethodGet, "/api/activities?"+q.Encode(), nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// ListTechniques retrieves one page of the technique library
func (c *Client) ListTechniques(ctx context.Context, page, limit int) (*models.TechniquePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var result models.TechniquePage
	if err := c.call(ctx, http.MethodGet, "/api/techniques?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCourse retrieves a course by ID
func (c *Client) GetCourse(ctx context.Context, id string) (*models.CourseRecord, error) {
	var course models.CourseRecord
	if err := c.call(ctx, http.MethodGet, "/api/courses/"+url.PathEscape(id), nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// GetLessonTechniques retrieves the per-lesson technique grouping of a course
func (c *Client) GetLessonTechniques(ctx context.Context, courseID string) ([]models.LessonTechniqueGroup, error) {
	var groups []models.LessonTechniqueGroup
	path := fmt.Sprintf("/api/courses/%s/lesson-techniques", url.PathEscape(courseID))
	if err := c.call(ctx, http.MethodGet, path, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ReplaceCourseTechniques overwrites every technique of a course
func (c *Client) ReplaceCourseTechniques(ctx context.Context, courseID string, techniques []models.TechniqueAssignment) error {
	if techniques == nil {
		techniques = []models.TechniqueAssignment{}
	}
	body, err := json.Marshal(models.ReplaceTechniquesRequest{Replace: true, Techniques: techniques})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("/api/courses/%s/techniques", url.PathEscape(courseID))
	return c.call(ctx, http.MethodPost, path, bytes.NewReader(body), nil)
}

// Health checks if the backend is reachable
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

// call performs a request and decodes the envelope's data into out (if non-nil)
func (c *Client) call(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result envelope
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return result.apiError(http.StatusOK)
	}

	if out == nil || len(result.Data) == 0 || string(result.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var result envelope
		if err := json.Unmarshal(respBody, &result); err == nil {
			if apiErr := result.apiError(resp.StatusCode); apiErr.Code != "" || apiErr.Message != "" {
				return nil, apiErr
			}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}
