package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/iliyamo/planning-poker/internal/model"
	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// issueKeyPattern matches issue tracker ticket references like
// "PROJ-123" inside a story title, used for auto-linking on bulk
// import when the room has a tracker base URL configured.
var issueKeyPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]+-\d+)\b`)

// AddStory appends one story at the end of the queue.
func (s *RoomService) AddStory(ctx context.Context, code string, input StoryInput) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		if err := s.appendStory(ctx, tx, code, input); err != nil {
			return err
		}
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// AddStories bulk-appends stories in the given order.  Titles that
// contain an issue key are auto-linked against the room's issue
// tracker base URL.
func (s *RoomService) AddStories(ctx context.Context, code string, inputs []StoryInput) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	if len(inputs) == 0 {
		return nil, errValidation("no stories given")
	}
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		existing, err := tx.ListStories(ctx, code)
		if err != nil {
			return err
		}
		next := nextOrderIndex(existing)
		stories := make([]*model.Story, 0, len(inputs))
		for _, in := range inputs {
			title := strings.TrimSpace(in.Title)
			if title == "" {
				return errValidation("story title is required")
			}
			link := in.Link
			if link == nil {
				link = autoLink(title, room.IssueTrackerURL)
			}
			stories = append(stories, &model.Story{
				RoomCode:     code,
				Title:        title,
				ExternalLink: link,
				OrderIndex:   next,
			})
			next++
		}
		if err := tx.InsertStories(ctx, stories); err != nil {
			return err
		}
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// EditStory updates a story's title and external link.
func (s *RoomService) EditStory(ctx context.Context, code string, storyID int64, input StoryInput) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errValidation("story title is required")
	}
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		story, err := tx.GetStory(ctx, code, storyID)
		if err != nil {
			return err
		}
		story.Title = title
		story.ExternalLink = input.Link
		if err := tx.UpdateStory(ctx, story); err != nil {
			return err
		}
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// DeleteStory removes a story and compacts the remaining order
// indices back to a dense zero-based sequence, all in one
// transaction.  When the removed story sat before the current-story
// pointer the pointer is pulled back so it keeps addressing the same
// story.
func (s *RoomService) DeleteStory(ctx context.Context, code string, storyID int64) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		stories, err := tx.ListStories(ctx, code)
		if err != nil {
			return err
		}
		deletedPos := -1
		remaining := make([]int64, 0, len(stories))
		for i, st := range stories {
			if st.ID == storyID {
				deletedPos = i
				continue
			}
			remaining = append(remaining, st.ID)
		}
		if deletedPos < 0 {
			return repository.ErrStoryNotFound
		}
		if err := tx.DeleteStory(ctx, code, storyID); err != nil {
			return err
		}
		if err := tx.ReindexStories(ctx, code, remaining); err != nil {
			return err
		}
		if deletedPos < room.CurrentStoryIndex {
			room.CurrentStoryIndex--
		}
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// ReorderStories rewrites the queue order to match orderedIDs, which
// must be a permutation of the room's current story ids.  The reindex
// runs in a single transaction so no client can observe a partially
// reordered queue.
func (s *RoomService) ReorderStories(ctx context.Context, code string, orderedIDs []int64) (*model.RoomSnapshot, error) {
	code = utils.NormalizeRoomCode(code)
	var snap *model.RoomSnapshot
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		room, err := tx.GetRoom(ctx, code)
		if err != nil {
			return err
		}
		stories, err := tx.ListStories(ctx, code)
		if err != nil {
			return err
		}
		if !samePermutation(stories, orderedIDs) {
			return errValidation("ordering must be a permutation of the story queue")
		}
		if err := tx.ReindexStories(ctx, code, orderedIDs); err != nil {
			return err
		}
		room.LastActivity = s.now().UTC()
		if err := tx.SaveRoom(ctx, room); err != nil {
			return err
		}
		snap, err = s.buildSnapshot(ctx, tx, room)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, code)
	return snap, nil
}

// appendStory inserts one story at max(orderIndex)+1.  Auto-linking
// only applies to bulk import, not here.
func (s *RoomService) appendStory(ctx context.Context, tx repository.Store, code string, input StoryInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return errValidation("story title is required")
	}
	existing, err := tx.ListStories(ctx, code)
	if err != nil {
		return err
	}
	story := &model.Story{
		RoomCode:     code,
		Title:        title,
		ExternalLink: input.Link,
		OrderIndex:   nextOrderIndex(existing),
	}
	return tx.InsertStory(ctx, story)
}

func nextOrderIndex(stories []model.Story) int {
	next := 0
	for _, st := range stories {
		if st.OrderIndex >= next {
			next = st.OrderIndex + 1
		}
	}
	return next
}

// autoLink derives an external link from an issue key in the title.
func autoLink(title string, baseURL *string) *string {
	if baseURL == nil || *baseURL == "" {
		return nil
	}
	key := issueKeyPattern.FindString(title)
	if key == "" {
		return nil
	}
	link := strings.TrimRight(*baseURL, "/") + "/browse/" + key
	return &link
}

func samePermutation(stories []model.Story, ids []int64) bool {
	if len(stories) != len(ids) {
		return false
	}
	want := make(map[int64]bool, len(stories))
	for _, st := range stories {
		want[st.ID] = true
	}
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !want[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
