package match

import "testing"

func poolWith(profiles ...Profile) *waitingPool {
	w := newWaitingPool()
	for _, p := range profiles {
		w.add(&poolEntry{profile: p})
	}
	return w
}

func prof(connID string, g Gender, p Preference) Profile {
	return Profile{ConnectionID: connID, UserID: connID, Gender: g, Preference: p}
}

func TestCompatible(t *testing.T) {
	cases := []struct {
		name string
		a, b Profile
		want bool
	}{
		{"both any", prof("a", GenderMale, PrefAny), prof("b", GenderFemale, PrefAny), true},
		{"mutual specific", prof("a", GenderMale, PrefFemale), prof("b", GenderFemale, PrefMale), true},
		{"one sided", prof("a", GenderMale, PrefFemale), prof("b", GenderFemale, PrefFemale), false},
		{"wrong gender", prof("a", GenderMale, PrefMale), prof("b", GenderFemale, PrefAny), false},
		{"unknown vs specific", prof("a", GenderUnknown, PrefAny), prof("b", GenderFemale, PrefMale), false},
		{"unknown vs any", prof("a", GenderUnknown, PrefAny), prof("b", GenderFemale, PrefAny), true},
		{"same gender both any", prof("a", GenderMale, PrefAny), prof("b", GenderMale, PrefAny), true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := compatible(c.a, c.b); got != c.want {
				t.Errorf("compatible(%+v, %+v) = %v, want %v", c.a, c.b, got, c.want)
			}
			// Compatibility is symmetric.
			if got := compatible(c.b, c.a); got != c.want {
				t.Errorf("compatible reversed = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFindPartner_EmptyPool(t *testing.T) {
	w := newWaitingPool()
	if got := w.findPartner(prof("a", GenderMale, PrefAny)); got != nil {
		t.Errorf("expected nil from empty pool, got %+v", got)
	}
}

func TestFindPartner_SkipsSelf(t *testing.T) {
	w := poolWith(prof("a", GenderMale, PrefAny))
	if got := w.findPartner(prof("a", GenderMale, PrefAny)); got != nil {
		t.Errorf("self-match must be impossible, got %+v", got)
	}
}

func TestFindPartner_FirstCompatibleWins(t *testing.T) {
	w := poolWith(
		prof("incompat", GenderFemale, PrefFemale),
		prof("old", GenderFemale, PrefAny),
		prof("new", GenderFemale, PrefAny),
	)
	got := w.findPartner(prof("c", GenderMale, PrefAny))
	if got == nil || got.profile.ConnectionID != "old" {
		t.Errorf("expected oldest compatible entry, got %+v", got)
	}
}

func TestFindPartner_DoubleSpecificStopsScan(t *testing.T) {
	w := poolWith(
		prof("anyFirst", GenderFemale, PrefAny),
		prof("specific", GenderFemale, PrefMale),
		prof("anyLast", GenderFemale, PrefAny),
	)
	got := w.findPartner(prof("c", GenderMale, PrefFemale))
	if got == nil || got.profile.ConnectionID != "specific" {
		t.Errorf("expected double-specific priority, got %+v", got)
	}
}

func TestFindPartner_SpecificCandidateFallsBackToAny(t *testing.T) {
	w := poolWith(
		prof("anyOnly", GenderFemale, PrefAny),
	)
	got := w.findPartner(prof("c", GenderMale, PrefFemale))
	if got == nil || got.profile.ConnectionID != "anyOnly" {
		t.Errorf("specific candidate should fall back to an Any waiter, got %+v", got)
	}
}

func TestFindPartner_AnyCandidateIgnoresSpecificTier(t *testing.T) {
	// The priority rule only applies when the candidate itself is specific.
	w := poolWith(
		prof("anyFirst", GenderFemale, PrefAny),
		prof("specific", GenderFemale, PrefMale),
	)
	got := w.findPartner(prof("c", GenderMale, PrefAny))
	if got == nil || got.profile.ConnectionID != "anyFirst" {
		t.Errorf("Any candidate takes the oldest compatible entry, got %+v", got)
	}
}

func TestPool_OrderSurvivesRemoval(t *testing.T) {
	w := poolWith(
		prof("a", GenderFemale, PrefAny),
		prof("b", GenderFemale, PrefAny),
		prof("c", GenderFemale, PrefAny),
	)
	w.remove("a")

	got := w.findPartner(prof("x", GenderMale, PrefAny))
	if got == nil || got.profile.ConnectionID != "b" {
		t.Errorf("expected b after removing a, got %+v", got)
	}
	if w.len() != 2 {
		t.Errorf("expected 2 entries, got %d", w.len())
	}
}

func TestPool_RemoveAbsentReturnsNil(t *testing.T) {
	w := newWaitingPool()
	if e := w.remove("ghost"); e != nil {
		t.Errorf("expected nil removing absent entry, got %+v", e)
	}
}
