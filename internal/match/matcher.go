package match

// compatible reports whether two participants accept each other. Both sides
// of the preference check must pass: the candidate must accept the entry's
// gender and the entry must accept the candidate's gender.
func compatible(candidate Profile, other Profile) bool {
	return candidate.Preference.Accepts(other.Gender) &&
		other.Preference.Accepts(candidate.Gender)
}

// findPartner selects the best waiting partner for candidate, or nil if no
// compatible entry exists.
//
// Selection policy: the pool is scanned in insertion order. The first
// compatible entry is remembered as the fallback. If the candidate has a
// specific preference and a compatible entry also has one, that entry wins
// immediately and the scan stops: double-specific pairs outrank any fallback,
// and the earliest such pair wins. Otherwise the fallback (the earliest
// compatible entry) is returned. The candidate's own connection is skipped,
// so a self-match is impossible.
func (w *waitingPool) findPartner(candidate Profile) *poolEntry {
	var fallback *poolEntry
	var winner *poolEntry

	candSpecific := candidate.Preference.Specific()

	w.scan(func(e *poolEntry) bool {
		if e.profile.ConnectionID == candidate.ConnectionID {
			return true
		}
		if !compatible(candidate, e.profile) {
			return true
		}
		if candSpecific && e.profile.Preference.Specific() {
			winner = e
			return false
		}
		if fallback == nil {
			fallback = e
		}
		return true
	})

	if winner != nil {
		return winner
	}
	return fallback
}
