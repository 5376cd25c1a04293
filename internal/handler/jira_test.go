package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/handler"
	"github.com/iliyamo/planning-poker/internal/jira"
	"github.com/iliyamo/planning-poker/internal/router"
	"github.com/iliyamo/planning-poker/internal/utils"
)

func jiraTestServer(t *testing.T, h *handler.JiraHandler) (*echo.Echo, string) {
	t.Helper()
	e := echo.New()
	router.RegisterJira(e, h, testSecret)
	tok, err := utils.NewParticipantToken(testSecret, "ABCDEF", "alice", 60)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return e, tok.Token
}

func TestJiraPublishUsesConfiguredCommentTemplate(t *testing.T) {
	var gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/issue/POK-1/comment") {
			t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode comment payload: %v", err)
		}
		gotBody = payload.Body
		w.WriteHeader(http.StatusCreated)
	}))
	defer upstream.Close()

	h := handler.NewJiraHandler(jira.NewClient(5*time.Second), nil, "Estimated at %g points after discussion.")
	e, token := jiraTestServer(t, h)

	body := fmt.Sprintf(`{"baseUrl":%q,"issueKey":"POK-1","username":"sam","token":"tok","storyPoints":8,"addComment":true}`, upstream.URL)
	rec := doJSON(e, http.MethodPost, "/v1/jira/publish", token, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: status %d, body %s", rec.Code, rec.Body.String())
	}

	want := "Estimated at 8 points after discussion."
	if gotBody != want {
		t.Errorf("comment body = %q, want %q", gotBody, want)
	}

	var res jira.PublishVoteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.CommentAdded {
		t.Errorf("commentAdded = false, want true")
	}
}

func TestJiraPublishRequiresSession(t *testing.T) {
	h := handler.NewJiraHandler(jira.NewClient(5*time.Second), nil, "")
	e, _ := jiraTestServer(t, h)

	rec := doJSON(e, http.MethodPost, "/v1/jira/publish", "",
		`{"baseUrl":"http://example.invalid","issueKey":"POK-1","username":"sam","token":"tok","storyPoints":3}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated publish: status %d, want 401", rec.Code)
	}
}
