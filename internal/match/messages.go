package match

// Retry message pools shown to clients whose search expired. Clients paying
// for a specific preference get the "paid" flavor; Any-preference clients get
// the "free" flavor. The same pools feed the rotating searching status.
var (
	retryMessagesPaid = []string{
		"Oops, your match is busy. Try again!",
		"Someone's chatting, but you'll get your turn. Try again!",
		"Patience, young grasshopper, the match awaits. Try again!",
		"Love is in the air... just not for you yet. Try again!",
		"Good things take time, your match is worth it. Try again!",
		"Your preferred partner is currently away. Try again!",
		"Looks like Cupid is tied up. Try again!",
		"They're busy charming someone else. Try again!",
	}

	retryMessagesFree = []string{
		"Everyone's chatting. Hang tight, try again!",
		"No freebirds available. Retry shortly!",
		"All ears are busy. Give it another try!",
		"Cupid is taking a nap. Try again soon!",
		"Good chats come to those who wait. Try again!",
		"Looks like everyone's talking. Try again!",
		"No one is free right now. Try again!",
		"All your potential partners are busy. Try again!",
	}
)

// retryPool returns the message flavor pool for a preference.
func retryPool(p Preference) []string {
	if p.Specific() {
		return retryMessagesPaid
	}
	return retryMessagesFree
}
