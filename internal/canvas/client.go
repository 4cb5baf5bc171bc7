// Package canvas is a small client for the Canvas LMS REST API covering the
// course reads the reminder runner needs.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoToken is returned by every call when the client has no API token.
var ErrNoToken = errors.New("no Canvas token configured, set CANVAS_API_KEY")

// Client reads one course from a Canvas instance.
type Client struct {
	BaseURL    string
	CourseID   string
	Token      string
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// New creates a client for the course at baseURL, e.g.
// "https://school.instructure.com/".
func New(baseURL, courseID, token string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/") + "/",
		CourseID:   courseID,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assignment is a course assignment. DueAt is nil when no due date is set.
type Assignment struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	DueAt     *time.Time `json:"due_at"`
	Published bool       `json:"published"`
	HTMLURL   string     `json:"html_url"`
}

// URL returns the assignment page, falling back to the course assignment
// index when Canvas did not send one.
func (c *Client) URL(a Assignment) string {
	if a.HTMLURL != "" {
		return a.HTMLURL
	}
	return fmt.Sprintf("%scourses/%s/assignments", c.BaseURL, c.CourseID)
}

// Submission is one student's submission state for an assignment.
// SubmittedAt is nil until the student submits.
type Submission struct {
	AssignmentID  int        `json:"assignment_id"`
	UserID        int        `json:"user_id"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	WorkflowState string     `json:"workflow_state"`
}

// Module is a course module.
type Module struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Published bool   `json:"published"`
}

// ModuleItem is an entry of a module. HTMLURL is empty for items that have
// no page of their own, such as subheaders.
type ModuleItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Published bool   `json:"published"`
	HTMLURL   string `json:"html_url"`
}

// User is an enrolled user. Email is only present when requested.
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListAssignments returns every assignment of the course.
func (c *Client) ListAssignments(ctx context.Context) ([]Assignment, error) {
	out, err := getAll[Assignment](ctx, c, c.coursePath("assignments"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	return out, nil
}

// GetSubmission returns the submission of userID for assignmentID.
func (c *Client) GetSubmission(ctx context.Context, assignmentID, userID int) (*Submission, error) {
	path := c.coursePath(fmt.Sprintf("assignments/%d/submissions/%d", assignmentID, userID))
	body, _, err := c.doRequest(ctx, c.BaseURL+path)
	if err != nil {
		return nil, fmt.Errorf("getting submission %d/%d: %w", assignmentID, userID, err)
	}
	var sub Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("parsing submission: %w", err)
	}
	return &sub, nil
}

// ListModules returns the course modules in course order.
func (c *Client) ListModules(ctx context.Context) ([]Module, error) {
	out, err := getAll[Module](ctx, c, c.coursePath("modules"), nil)
	if err != nil {
		return nil, fmt.Errorf("listing modules: %w", err)
	}
	return out, nil
}

// FindModule returns the module with the given name.
func (c *Client) FindModule(ctx context.Context, name string) (*Module, error) {
	mods, err := c.ListModules(ctx)
	if err != nil {
		return nil, err
	}
	for i := range mods {
		if mods[i].Name == name {
			return &mods[i], nil
		}
	}
	return nil, fmt.Errorf("module %q not found in course %s", name, c.CourseID)
}

// ListModuleItems returns the items of a module.
func (c *Client) ListModuleItems(ctx context.Context, moduleID int) ([]ModuleItem, error) {
	out, err := getAll[ModuleItem](ctx, c, c.coursePath(fmt.Sprintf("modules/%d/items", moduleID)), nil)
	if err != nil {
		return nil, fmt.Errorf("listing items of module %d: %w", moduleID, err)
	}
	return out, nil
}

// ListStudents returns the students enrolled in the course with their
// email addresses.
func (c *Client) ListStudents(ctx context.Context) ([]User, error) {
	q := url.Values{}
	q.Add("enrollment_type[]", "student")
	q.Add("include[]", "email")
	out, err := getAll[User](ctx, c, c.coursePath("users"), q)
	if err != nil {
		return nil, fmt.Errorf("listing students: %w", err)
	}
	return out, nil
}

func (c *Client) coursePath(rest string) string {
	return fmt.Sprintf("api/v1/courses/%s/%s", url.PathEscape(c.CourseID), rest)
}

// getAll fetches the first page of path and every page after it, following
// the rel="next" Link header, and decodes each page as a JSON array.
func getAll[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", "100")

	var out []T
	next := c.BaseURL + path + "?" + q.Encode()
	for next != "" {
		body, header, err := c.doRequest(ctx, next)
		if err != nil {
			return nil, err
		}
		var page []T
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing page: %w", err)
		}
		out = append(out, page...)
		next = nextLink(header.Get("Link"))
	}
	return out, nil
}

// nextLink extracts the rel="next" target of an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok {
			continue
		}
		for _, p := range strings.Split(params, ";") {
			k, v, _ := strings.Cut(strings.TrimSpace(p), "=")
			if strings.EqualFold(k, "rel") && strings.Trim(v, `"`) == "next" {
				return strings.Trim(strings.TrimSpace(target), "<>")
			}
		}
	}
	return ""
}

// doRequest executes an authenticated GET and returns the body and headers
// of a 200 response.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, http.Header, error) {
	if c.Token == "" {
		return nil, nil, ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("Canvas API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, resp.Header, nil
	case http.StatusUnauthorized:
		return nil, nil, fmt.Errorf("Canvas API: unauthorized (401), check CANVAS_API_KEY")
	case http.StatusForbidden:
		return nil, nil, fmt.Errorf("Canvas API: forbidden (403), the token cannot read course %s", c.CourseID)
	case http.StatusNotFound:
		return nil, nil, fmt.Errorf("Canvas API: not found (404): %s", req.URL.Path)
	default:
		return nil, nil, fmt.Errorf("Canvas API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
