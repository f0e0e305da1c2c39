package draw

import (
	"errors"
	"fmt"
)

// Business-rule failures. Handlers report these with 400 and never retry.
var (
	ErrEmptyPrizeName         = errors.New("prize name is required")
	ErrInvalidQuota           = errors.New("quota must be an integer >= 1")
	ErrNoEligibleParticipants = errors.New("no eligible participants (everyone has already won)")
)

// QuotaExceedsEligibleError is returned when the requested quota is larger
// than the number of participants who have never won.
type QuotaExceedsEligibleError struct {
	Quota    int
	Eligible int
}

func (e *QuotaExceedsEligibleError) Error() string {
	return fmt.Sprintf("eligible participants remaining: %d, requested quota: %d", e.Eligible, e.Quota)
}
