package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/jira"
)

// JiraHandler relays estimate publishes to the issue tracker bridge.
// Credentials travel in the request body and are never stored.  An
// empty CommentTemplate falls back to the bridge's default wording.
type JiraHandler struct {
	Client          *jira.Client
	PointFields     []string
	CommentTemplate string
}

func NewJiraHandler(client *jira.Client, pointFields []string, commentTemplate string) *JiraHandler {
	return &JiraHandler{Client: client, PointFields: pointFields, CommentTemplate: commentTemplate}
}

// Publish: post a comment and/or set the story point fields on an
// issue.  Partial success (comment landed, field update failed) comes
// back as 200 with a warning.
func (h *JiraHandler) Publish(c echo.Context) error {
	var req jira.PublishVoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BaseURL == "" || req.IssueKey == "" || req.Username == "" || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "baseUrl, issueKey, username and token are required"})
	}
	req.PointFields = h.PointFields
	req.CommentTemplate = h.CommentTemplate

	res, err := h.Client.PublishVote(c.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, jira.ErrAuth):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "tracker authentication failed", "reason": "auth"})
		case errors.Is(err, jira.ErrPermission):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "tracker permission denied", "reason": "permission"})
		case errors.Is(err, jira.ErrIssueNotFound):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "issue not found", "reason": "not_found"})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error(), "reason": "upstream"})
		}
	}
	return c.JSON(http.StatusOK, res)
}
