package model

// Participant is one human in a room.  The (room_code, name) pair is
// the identity key; rejoining with the same name upserts the row.
// Observers (IsVoter=false) are excluded from tallies and progress
// counters.  Multiple facilitators may coexist.
type Participant struct {
	RoomCode      string // participants.room_code
	Name          string // participants.name
	IsFacilitator bool   // participants.is_facilitator
	IsVoter       bool   // participants.is_voter
}
