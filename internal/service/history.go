package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/planning-poker/internal/repository"
	"github.com/iliyamo/planning-poker/internal/stats"
	"github.com/iliyamo/planning-poker/internal/utils"
)

// HistoryVote is one (participant, value) pair of a snapshot.
type HistoryVote struct {
	Participant string  `json:"participant"`
	Value       float64 `json:"value"`
}

// HistoryEntry is one reveal generation of a story: the immutable
// vote snapshot plus statistics computed over it.  FinalEstimate is
// read live from the story so later manual edits show up; it is nil
// when the story has since been deleted.
type HistoryEntry struct {
	StoryID       int64         `json:"storyId"`
	StoryTitle    string        `json:"storyTitle"`
	FinalEstimate *float64      `json:"finalEstimate"`
	RevealedAt    time.Time     `json:"revealedAt"`
	Votes         []HistoryVote `json:"votes"`
	Statistics    stats.Summary `json:"statistics"`
}

// GetVoteHistory returns one entry per reveal generation, most
// recently voted first.  Statistics are computed over the snapshot,
// never over live votes, which may since have been cleared.
func (s *RoomService) GetVoteHistory(ctx context.Context, code string) ([]HistoryEntry, error) {
	code = utils.NormalizeRoomCode(code)
	var entries []HistoryEntry
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetRoom(ctx, code); err != nil {
			return err
		}
		records, err := tx.ListHistory(ctx, code)
		if err != nil {
			return err
		}
		stories, err := tx.ListStories(ctx, code)
		if err != nil {
			return err
		}
		estimates := make(map[int64]*float64, len(stories))
		for _, st := range stories {
			estimates[st.ID] = st.FinalEstimate
		}

		// Records arrive ordered by reveal time; rows sharing a
		// (story, revealedAt) pair belong to the same generation.
		index := make(map[string]int)
		for _, rec := range records {
			key := fmt.Sprintf("%d|%d", rec.StoryID, rec.RevealedAt.UnixNano())
			i, ok := index[key]
			if !ok {
				entries = append(entries, HistoryEntry{
					StoryID:       rec.StoryID,
					StoryTitle:    rec.StoryTitle,
					FinalEstimate: estimates[rec.StoryID],
					RevealedAt:    rec.RevealedAt,
				})
				i = len(entries) - 1
				index[key] = i
			}
			entries[i].Votes = append(entries[i].Votes, HistoryVote{
				Participant: rec.ParticipantName,
				Value:       rec.Value,
			})
		}
		for i := range entries {
			values := make([]float64, 0, len(entries[i].Votes))
			for _, v := range entries[i].Votes {
				values = append(values, v.Value)
			}
			if summary, ok := stats.Summarize(values, s.threshold); ok {
				entries[i].Statistics = summary
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
