package match

import (
	"time"

	"github.com/google/uuid"
)

// Room is one active two-party chat session. It is created atomically with a
// successful match and destroyed unconditionally when either member leaves or
// disconnects; no single-member room state ever survives.
type Room struct {
	ID        string
	CreatedAt time.Time
	members   [2]Profile
}

func newRoom(a, b Profile) *Room {
	return &Room{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		members:   [2]Profile{a, b},
	}
}

// Has reports whether connID is one of the room's two members.
func (r *Room) Has(connID string) bool {
	return r.members[0].ConnectionID == connID || r.members[1].ConnectionID == connID
}

// Partner returns the profile of the other member. The zero Profile is
// returned when connID is not a member.
func (r *Room) Partner(connID string) Profile {
	if r.members[0].ConnectionID == connID {
		return r.members[1]
	}
	if r.members[1].ConnectionID == connID {
		return r.members[0]
	}
	return Profile{}
}

// Member returns the profile of the member with the given connection ID.
func (r *Room) Member(connID string) Profile {
	if r.members[0].ConnectionID == connID {
		return r.members[0]
	}
	if r.members[1].ConnectionID == connID {
		return r.members[1]
	}
	return Profile{}
}

// MemberIDs returns both member connection IDs.
func (r *Room) MemberIDs() [2]string {
	return [2]string{r.members[0].ConnectionID, r.members[1].ConnectionID}
}
