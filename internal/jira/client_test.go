package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPublishVoteCommentAndFields(t *testing.T) {
	var commentBody, fieldsBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); !ok || u != "sam" || p != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/comment"):
			_ = json.NewDecoder(r.Body).Decode(&commentBody)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&fieldsBody)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	res, err := c.PublishVote(context.Background(), PublishVoteRequest{
		BaseURL:      srv.URL,
		IssueKey:     "PROJ-42",
		Username:     "sam",
		Token:        "tok",
		StoryPoints:  5,
		AddComment:   true,
		UpdatePoints: true,
		PointFields:  []string{"customfield_10016"},
	})
	if err != nil {
		t.Fatalf("PublishVote: %v", err)
	}
	if !res.CommentAdded || !res.PointsUpdated || res.Warning != "" {
		t.Fatalf("result = %+v", res)
	}
	if body, _ := commentBody["body"].(string); !strings.Contains(body, "5") {
		t.Errorf("comment body %q should mention the points", body)
	}
	fields, _ := fieldsBody["fields"].(map[string]any)
	if got, _ := fields["customfield_10016"].(float64); got != 5 {
		t.Errorf("fields = %v, want customfield_10016=5", fieldsBody)
	}
}

func TestPublishVoteErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrPermission},
		{http.StatusNotFound, ErrIssueNotFound},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := NewClient(2 * time.Second)
		_, err := c.PublishVote(context.Background(), PublishVoteRequest{
			BaseURL:    srv.URL,
			IssueKey:   "PROJ-1",
			AddComment: true,
		})
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestPublishVotePartialSuccessBecomesWarning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		// Field update rejected, e.g. screen does not carry the field.
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": map[string]string{"customfield_10016": "Field cannot be set"},
		})
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	res, err := c.PublishVote(context.Background(), PublishVoteRequest{
		BaseURL:      srv.URL,
		IssueKey:     "PROJ-42",
		StoryPoints:  8,
		AddComment:   true,
		UpdatePoints: true,
		PointFields:  []string{"customfield_10016"},
	})
	if err != nil {
		t.Fatalf("partial success must not be an error: %v", err)
	}
	if !res.CommentAdded || res.PointsUpdated {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Warning, "Field cannot be set") {
		t.Errorf("warning %q should carry the upstream message", res.Warning)
	}
}

func TestPublishVoteRequiresTarget(t *testing.T) {
	c := NewClient(time.Second)
	if _, err := c.PublishVote(context.Background(), PublishVoteRequest{}); err == nil {
		t.Fatal("missing base url and issue key must fail")
	}
}
