package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/planning-poker/internal/config"
	"github.com/iliyamo/planning-poker/internal/handler"
	"github.com/iliyamo/planning-poker/internal/middleware"
	"github.com/iliyamo/planning-poker/internal/repository"
)

// RegisterRoutes registers routes that do not require a session on the
// provided Echo instance.
func RegisterRoutes(e *echo.Echo, rooms *handler.RoomHandler) {
	// Load balancers and monitoring probe this to verify the service
	// is up.
	e.GET("/healthz", handler.Health)

	// Room creation and joining are the entry points; both hand back
	// the session token the protected routes require.
	e.POST("/v1/rooms", rooms.Create)
	e.POST("/v1/rooms/:code/join", rooms.Join)
}

// RegisterRoom registers all session-protected room routes.  The JWT
// middleware injects the participant identity; facilitator-only routes
// additionally re-check the role against the store on every request.
func RegisterRoom(
	e *echo.Echo,
	rooms *handler.RoomHandler,
	events *handler.EventsHandler,
	store repository.Store,
	rdb *redis.Client,
	jwtSecret string,
	rlCfg config.RateLimitConfig,
	cacheCfg config.CacheConfig,
) {
	g := e.Group("/v1/rooms/:code")
	g.Use(middleware.ParticipantAuth(jwtSecret))

	g.GET("", rooms.GetState)
	g.GET("/events", events.Stream)
	// History barely changes between reveals, so it sits behind the
	// response cache.
	g.GET("/history", rooms.History, middleware.NewRedisCache(cacheCfg, rdb))
	// Voting is the hot write path; the token bucket keeps one noisy
	// client from drowning a room.
	g.POST("/vote", rooms.SubmitVote, middleware.NewTokenBucket(rlCfg, rdb))

	// Facilitator-only room control.
	fac := g.Group("", middleware.RequireFacilitator(store))
	fac.POST("/voting/start", rooms.StartVoting)
	fac.POST("/voting/reveal", rooms.RevealVotes)
	fac.POST("/voting/next", rooms.NextStory)

	fac.POST("/stories", rooms.AddStory)
	fac.POST("/stories/bulk", rooms.AddStories)
	fac.PUT("/stories/order", rooms.ReorderStories)
	fac.PATCH("/stories/:storyId", rooms.EditStory)
	fac.DELETE("/stories/:storyId", rooms.DeleteStory)
	fac.POST("/stories/:storyId/estimate", rooms.SetEstimate)

	fac.POST("/participants/:name/promote", rooms.Promote)
	fac.POST("/participants/:name/voter", rooms.SetVoter)
	fac.DELETE("/participants/:name", rooms.Kick)
}

// RegisterJira registers the issue tracker bridge.  It requires a
// session but not a specific room: the credentials in the body carry
// all the authority the upstream call needs.
func RegisterJira(e *echo.Echo, j *handler.JiraHandler, jwtSecret string) {
	g := e.Group("/v1/jira")
	g.Use(middleware.ParticipantAuth(jwtSecret))
	g.POST("/publish", j.Publish)
}
