package booking

// Policy holds the tunable limits of the validator.
type Policy struct {
	// MinParticipants is 1 for the permissive variant and 2 where solo bookings are not allowed.
	MinParticipants int
	MaxDuration     int
	MinDuration     int
	DailyCap        int
	WeeklyGrantCap  int
	// SoloWindowEnd, when positive, lets a single participant book a span that lies entirely
	// within [00:00, SoloWindowEnd) even if MinParticipants is higher.
	SoloWindowEnd int
	// CheckPreviousDay also compares overnight rows dated the day before the request.
	CheckPreviousDay bool
}

func DefaultPolicy() Policy {
	return Policy{
		MinParticipants: 1,
		MaxDuration:     180,
		MinDuration:     10,
		DailyCap:        180,
		WeeklyGrantCap:  180,
	}
}
