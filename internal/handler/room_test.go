package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/planning-poker/internal/config"
	"github.com/iliyamo/planning-poker/internal/handler"
	"github.com/iliyamo/planning-poker/internal/model"
	"github.com/iliyamo/planning-poker/internal/realtime"
	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/router"
	"github.com/iliyamo/planning-poker/internal/service"
)

const testSecret = "test-secret"

// memStore is a minimal in-memory Store for driving the HTTP layer.
type memStore struct {
	rooms        map[string]*model.Room
	participants map[string][]*model.Participant
	stories      map[string][]*model.Story
	votes        map[string]map[string]*model.Vote
	history      []model.VoteHistoryEntry
	nextStoryID  int64
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[string]*model.Room),
		participants: make(map[string][]*model.Participant),
		stories:      make(map[string][]*model.Story),
		votes:        make(map[string]map[string]*model.Vote),
	}
}

func (m *memStore) GetRoom(_ context.Context, code string) (*model.Room, error) {
	r, ok := m.rooms[code]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CreateRoom(_ context.Context, room *model.Room) error {
	cp := *room
	m.rooms[room.Code] = &cp
	return nil
}

func (m *memStore) SaveRoom(_ context.Context, room *model.Room) error {
	cp := *room
	m.rooms[room.Code] = &cp
	return nil
}

func (m *memStore) DeleteRoomsInactiveBefore(_ context.Context, cutoff int64) (int64, error) {
	var n int64
	for code, r := range m.rooms {
		if r.LastActivity.UnixMilli() < cutoff {
			delete(m.rooms, code)
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetParticipant(_ context.Context, code, name string) (*model.Participant, error) {
	for _, p := range m.participants[code] {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrParticipantNotFound
}

func (m *memStore) ListParticipants(_ context.Context, code string) ([]model.Participant, error) {
	out := make([]model.Participant, 0, len(m.participants[code]))
	for _, p := range m.participants[code] {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memStore) UpsertParticipant(_ context.Context, p *model.Participant) error {
	cp := *p
	for i, existing := range m.participants[p.RoomCode] {
		if existing.Name == p.Name {
			m.participants[p.RoomCode][i] = &cp
			return nil
		}
	}
	m.participants[p.RoomCode] = append(m.participants[p.RoomCode], &cp)
	return nil
}

func (m *memStore) DeleteParticipant(_ context.Context, code, name string) error {
	list := m.participants[code]
	for i, p := range list {
		if p.Name == name {
			m.participants[code] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrParticipantNotFound
}

func (m *memStore) GetStory(_ context.Context, code string, id int64) (*model.Story, error) {
	for _, st := range m.stories[code] {
		if st.ID == id {
			cp := *st
			return &cp, nil
		}
	}
	return nil, repository.ErrStoryNotFound
}

func (m *memStore) ListStories(_ context.Context, code string) ([]model.Story, error) {
	out := make([]model.Story, 0, len(m.stories[code]))
	for _, st := range m.stories[code] {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (m *memStore) InsertStory(_ context.Context, s *model.Story) error {
	m.nextStoryID++
	s.ID = m.nextStoryID
	cp := *s
	m.stories[s.RoomCode] = append(m.stories[s.RoomCode], &cp)
	return nil
}

func (m *memStore) InsertStories(ctx context.Context, stories []*model.Story) error {
	for _, s := range stories {
		if err := m.InsertStory(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) UpdateStory(_ context.Context, s *model.Story) error {
	for i, st := range m.stories[s.RoomCode] {
		if st.ID == s.ID {
			cp := *s
			m.stories[s.RoomCode][i] = &cp
			return nil
		}
	}
	return repository.ErrStoryNotFound
}

func (m *memStore) DeleteStory(_ context.Context, code string, id int64) error {
	list := m.stories[code]
	for i, st := range list {
		if st.ID == id {
			m.stories[code] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrStoryNotFound
}

func (m *memStore) ReindexStories(_ context.Context, code string, orderedIDs []int64) error {
	byID := make(map[int64]*model.Story, len(m.stories[code]))
	for _, st := range m.stories[code] {
		byID[st.ID] = st
	}
	for i, id := range orderedIDs {
		st, ok := byID[id]
		if !ok {
			return repository.ErrStoryNotFound
		}
		st.OrderIndex = i
	}
	return nil
}

func (m *memStore) ListVotes(_ context.Context, code string) ([]model.Vote, error) {
	out := make([]model.Vote, 0, len(m.votes[code]))
	for _, v := range m.votes[code] {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantName < out[j].ParticipantName })
	return out, nil
}

func (m *memStore) UpsertVote(_ context.Context, v *model.Vote) error {
	if m.votes[v.RoomCode] == nil {
		m.votes[v.RoomCode] = make(map[string]*model.Vote)
	}
	cp := *v
	m.votes[v.RoomCode][v.ParticipantName] = &cp
	return nil
}

func (m *memStore) DeleteVote(_ context.Context, code, name string) error {
	delete(m.votes[code], name)
	return nil
}

func (m *memStore) ClearVotes(_ context.Context, code string) error {
	delete(m.votes, code)
	return nil
}

func (m *memStore) InsertHistory(_ context.Context, entries []model.VoteHistoryEntry) error {
	m.history = append(m.history, entries...)
	return nil
}

func (m *memStore) ListHistory(_ context.Context, code string) ([]model.VoteHistoryEntry, error) {
	var out []model.VoteHistoryEntry
	for _, e := range m.history {
		if e.RoomCode == code {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(m)
}

var testScale = []float64{0, 1, 2, 3, 5, 8, 13, 20, 40, 100}

// newTestServer wires the full HTTP stack against the in-memory store,
// with Redis absent so limiter and cache pass through.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	store := newMemStore()
	notifier := realtime.NewMemoryNotifier()
	svc := service.NewRoomService(store, notifier, nil, testScale, 70)

	rooms := handler.NewRoomHandler(svc, testSecret, 60)
	events := handler.NewEventsHandler(svc, notifier, 20*time.Millisecond)

	e := echo.New()
	router.RegisterRoutes(e, rooms)
	router.RegisterRoom(e, rooms, events, store, nil, testSecret,
		config.RateLimitConfig{}, config.CacheConfig{})
	return e
}

func doJSON(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type sessionResp struct {
	Room    model.RoomSnapshot `json:"room"`
	Session struct {
		Token string `json:"token"`
	} `json:"session"`
}

func createRoom(t *testing.T, e *echo.Echo, name string) sessionResp {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/v1/rooms", "", fmt.Sprintf(`{"name":%q}`, name))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create room: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp sessionResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("create room: decode: %v", err)
	}
	return resp
}

func joinRoom(t *testing.T, e *echo.Echo, code, name string) sessionResp {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/join", "", fmt.Sprintf(`{"name":%q}`, name))
	if rec.Code != http.StatusOK {
		t.Fatalf("join: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp sessionResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("join: decode: %v", err)
	}
	return resp
}

func TestRoomLifecycleOverHTTP(t *testing.T) {
	e := newTestServer(t)

	created := createRoom(t, e, "alice")
	code := created.Room.Code
	facToken := created.Session.Token
	if len(code) != 6 {
		t.Fatalf("room code %q", code)
	}

	joined := joinRoom(t, e, code, "bob")
	bobToken := joined.Session.Token

	// Facilitator opens a round with a story.
	rec := doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/voting/start", facToken,
		`{"story":{"title":"checkout flow"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status %d, body %s", rec.Code, rec.Body.String())
	}

	// Bob votes.
	rec = doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/vote", bobToken, `{"value":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("vote: status %d, body %s", rec.Code, rec.Body.String())
	}
	var afterVote model.RoomSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &afterVote); err != nil {
		t.Fatalf("vote: decode: %v", err)
	}
	if afterVote.VotedCount != 1 || afterVote.VoterCount != 2 {
		t.Errorf("counters = %d/%d, want 1/2", afterVote.VotedCount, afterVote.VoterCount)
	}

	// Bob is not a facilitator; the reveal gate must reject him.
	rec = doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/voting/reveal", bobToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-facilitator reveal: status %d, want 403", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/voting/reveal", facToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reveal: status %d, body %s", rec.Code, rec.Body.String())
	}
	var revealed model.RoomSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &revealed); err != nil {
		t.Fatalf("reveal: decode: %v", err)
	}
	if revealed.Phase != model.PhaseRevealed {
		t.Errorf("phase = %q, want revealed", revealed.Phase)
	}

	// Read back over the authenticated snapshot endpoint.
	rec = doJSON(e, http.MethodGet, "/v1/rooms/"+code, bobToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get state: status %d", rec.Code)
	}
}

func TestTokenIsScopedToItsRoom(t *testing.T) {
	e := newTestServer(t)
	first := createRoom(t, e, "alice")
	second := createRoom(t, e, "carol")

	// A token for the first room must not open the second.
	rec := doJSON(e, http.MethodGet, "/v1/rooms/"+second.Room.Code, first.Session.Token, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("cross-room token: status %d, want 401", rec.Code)
	}

	// No token at all.
	rec = doJSON(e, http.MethodGet, "/v1/rooms/"+first.Room.Code, "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d, want 401", rec.Code)
	}

	// Garbage token.
	rec = doJSON(e, http.MethodGet, "/v1/rooms/"+first.Room.Code, "not-a-jwt", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", rec.Code)
	}
}

func TestErrorTranslationOverHTTP(t *testing.T) {
	e := newTestServer(t)
	created := createRoom(t, e, "alice")
	code := created.Room.Code
	facToken := created.Session.Token

	// Unknown room on join.
	rec := doJSON(e, http.MethodPost, "/v1/rooms/ZZZZZZ/join", "", `{"name":"bob"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("join unknown room: status %d, want 404", rec.Code)
	}

	// Reveal with no round open is a conflict.
	rec = doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/voting/reveal", facToken, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("reveal without round: status %d, want 409", rec.Code)
	}

	// Off-scale vote is a validation error.
	if r := doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/voting/start", facToken, `{}`); r.Code != http.StatusOK {
		t.Fatalf("start: status %d", r.Code)
	}
	rec = doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/vote", facToken, `{"value":7}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("off-scale vote: status %d, want 400", rec.Code)
	}

	// Kicking the facilitator is a conflict.
	rec = doJSON(e, http.MethodDelete, "/v1/rooms/"+code+"/participants/alice", facToken, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("kick facilitator: status %d, want 409", rec.Code)
	}

	// A kicked participant's token dies at the facilitator gate.
	bob := joinRoom(t, e, code, "bob")
	if r := doJSON(e, http.MethodDelete, "/v1/rooms/"+code+"/participants/bob", facToken, ""); r.Code != http.StatusOK {
		t.Fatalf("kick bob: status %d", r.Code)
	}
	rec = doJSON(e, http.MethodPost, "/v1/rooms/"+code+"/voting/reveal", bob.Session.Token, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("kicked participant at facilitator gate: status %d, want 401", rec.Code)
	}
}
