package model

// Habit is a recurring activity with a completion streak.
type Habit struct {
	Base
	Title           string           `json:"title"`
	Description     *string          `json:"description"`
	Frequency       Frequency        `json:"frequency"`
	TargetCount     int              `json:"target_count"`
	Priority        Priority         `json:"priority"`
	Category        Category         `json:"category"`
	BackgroundColor *BackgroundColor `json:"background_color"`
	IsActive        bool             `json:"is_active"`
	CurrentStreak   int              `json:"current_streak"`
	LongestStreak   int              `json:"longest_streak"`
	LastCompleted   *Date            `json:"last_completed"`
}

// Complete records a completion on day today and advances the streak.
// Completing on the day after the last completion extends the streak,
// any longer gap restarts it at 1, and a second completion on the same
// day fails with ErrAlreadyCompleted without touching the habit.
func (h *Habit) Complete(today Date) error {
	switch {
	case h.LastCompleted == nil:
		h.CurrentStreak = 1
	case h.LastCompleted.Equal(today):
		return ErrAlreadyCompleted
	case h.LastCompleted.AddDays(1).Equal(today):
		h.CurrentStreak++
	default:
		h.CurrentStreak = 1
	}

	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}
	h.LastCompleted = &today
	return nil
}
