package match

import (
	"strings"

	"github.com/bytestudioinc/strangerchat/internal/protocol"
)

// Gender is the canonical normalized gender of a client.
type Gender string

// Preference is the canonical normalized partner-gender preference.
type Preference string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"

	// GenderUnknown is the neutral value assigned to unparseable gender
	// input. A specific preference never accepts it; Any always does.
	GenderUnknown Gender = "Any"
)

const (
	PrefMale   Preference = "Male"
	PrefFemale Preference = "Female"
	PrefAny    Preference = "Any"
)

// ParseGender normalizes client gender input. Short (M/F) and long forms are
// accepted case-insensitively; anything else maps to GenderUnknown.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return GenderMale
	case "F", "FEMALE":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// ParsePreference normalizes client preference input. Short (M/F/A) and long
// forms are accepted case-insensitively; anything else maps to PrefAny.
func ParsePreference(s string) Preference {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return PrefMale
	case "F", "FEMALE":
		return PrefFemale
	default:
		return PrefAny
	}
}

// Specific reports whether the preference names a single gender rather than
// accepting anyone. Specific preferences get priority treatment in matching.
func (p Preference) Specific() bool {
	return p != PrefAny
}

// Accepts reports whether a client with this preference is willing to be
// paired with a partner of the given gender.
func (p Preference) Accepts(g Gender) bool {
	return p == PrefAny || string(p) == string(g)
}

// Profile represents one searching or chatting participant after boundary
// normalization. It carries no transport or timer state.
type Profile struct {
	ConnectionID string
	UserID       string
	Name         string
	Gender       Gender
	Preference   Preference
}

// NewProfile builds a normalized Profile from a find request. The user ID
// defaults to the connection ID when the client did not declare one.
func NewProfile(connID string, req protocol.FindPayload) Profile {
	userID := req.UserID
	if userID == "" {
		userID = connID
	}
	return Profile{
		ConnectionID: connID,
		UserID:       userID,
		Name:         req.Name,
		Gender:       ParseGender(req.Gender),
		Preference:   ParsePreference(req.Preference),
	}
}

// Safe returns the subset of the profile that may be shown to the partner.
func (p Profile) Safe() *protocol.SafeProfile {
	return &protocol.SafeProfile{
		UserID:     p.UserID,
		Name:       p.Name,
		Gender:     string(p.Gender),
		Preference: string(p.Preference),
	}
}
