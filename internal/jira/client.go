// Package jira is the issue tracker bridge: given an issue key and a
// point value it optionally posts a templated comment and optionally
// sets the configured numeric fields.  Credentials are passed through
// in memory per call and never persisted.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors discriminate upstream failures by the tracker's own
// response codes.  Handlers translate them into upstream error
// responses with a stable reason.
var (
	ErrAuth          = errors.New("jira: authentication failed")
	ErrPermission    = errors.New("jira: permission denied")
	ErrIssueNotFound = errors.New("jira: issue not found")
)

// PublishVoteRequest carries everything one publish round needs.
// Username and Token form the Basic auth pair; they live only for the
// duration of the call.
type PublishVoteRequest struct {
	BaseURL          string   `json:"baseUrl"`
	IssueKey         string   `json:"issueKey"`
	Username         string   `json:"username"`
	Token            string   `json:"token"`
	StoryPoints      float64  `json:"storyPoints"`
	AddComment       bool     `json:"addComment"`
	UpdatePoints     bool     `json:"updatePoints"`
	PointFields      []string `json:"-"` // configured numeric field ids
	CommentTemplate  string   `json:"-"` // must contain one %g verb
}

// PublishVoteResult reports per-action success so a comment can land
// while the field update fails.
type PublishVoteResult struct {
	CommentAdded  bool     `json:"commentAdded"`
	PointsUpdated bool     `json:"pointsUpdated"`
	UpdatedFields []string `json:"updatedFields"`
	Warning       string   `json:"warning,omitempty"`
}

// DefaultCommentTemplate is used when no template is configured.
const DefaultCommentTemplate = "Planning Poker: the team estimated this story at %g points."

// Client calls the tracker's REST API.  The zero value is not usable;
// construct with NewClient.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client with a bounded per-call timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// PublishVote runs the configured actions against the issue.  It
// returns a typed error when nothing succeeded; when the comment
// landed but the field update failed, the result carries a warning
// instead so the partial success is not lost.
func (c *Client) PublishVote(ctx context.Context, req PublishVoteRequest) (PublishVoteResult, error) {
	var res PublishVoteResult

	base := strings.TrimRight(req.BaseURL, "/")
	if base == "" || req.IssueKey == "" {
		return res, fmt.Errorf("jira: base url and issue key are required")
	}
	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(req.Username+":"+req.Token))

	if req.AddComment {
		template := req.CommentTemplate
		if template == "" {
			template = DefaultCommentTemplate
		}
		body := map[string]string{"body": fmt.Sprintf(template, req.StoryPoints)}
		url := fmt.Sprintf("%s/rest/api/2/issue/%s/comment", base, req.IssueKey)
		if err := c.do(ctx, http.MethodPost, url, auth, body); err != nil {
			return res, fmt.Errorf("add comment: %w", err)
		}
		res.CommentAdded = true
	}

	if req.UpdatePoints {
		fields := make(map[string]float64, len(req.PointFields))
		for _, f := range req.PointFields {
			fields[f] = req.StoryPoints
		}
		if len(fields) == 0 {
			res.Warning = "no story point fields configured"
			return res, nil
		}
		body := map[string]any{"fields": fields}
		url := fmt.Sprintf("%s/rest/api/2/issue/%s", base, req.IssueKey)
		if err := c.do(ctx, http.MethodPut, url, auth, body); err != nil {
			if res.CommentAdded {
				// Comment landed; report the field failure as a
				// warning rather than losing the partial success.
				res.Warning = fmt.Sprintf("comment added but story points not updated: %v", err)
				return res, nil
			}
			return res, fmt.Errorf("update story points: %w", err)
		}
		res.PointsUpdated = true
		res.UpdatedFields = req.PointFields
	}
	return res, nil
}

// do executes one JSON round trip and maps response codes onto the
// sentinel taxonomy.
func (c *Client) do(ctx context.Context, method, url, auth string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", auth)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrAuth
	case resp.StatusCode == http.StatusForbidden:
		return ErrPermission
	case resp.StatusCode == http.StatusNotFound:
		return ErrIssueNotFound
	default:
		var apiErr struct {
			ErrorMessages []string          `json:"errorMessages"`
			Errors        map[string]string `json:"errors"`
		}
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if derr := json.NewDecoder(resp.Body).Decode(&apiErr); derr == nil {
			if len(apiErr.ErrorMessages) > 0 {
				msg = strings.Join(apiErr.ErrorMessages, ", ")
			} else if len(apiErr.Errors) > 0 {
				parts := make([]string, 0, len(apiErr.Errors))
				for _, v := range apiErr.Errors {
					parts = append(parts, v)
				}
				msg = strings.Join(parts, ", ")
			}
		}
		return fmt.Errorf("jira: %s", msg)
	}
}
