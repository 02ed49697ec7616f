// README: Fare rule definition; rides have fixed fares, not metered ones.
package pricing

import "time"

// Rule is the fare configuration for campus rides. Fares are flat: a base
// fare for on-demand rides and a discounted fare for pre-bookings scheduled
// at least Lead ahead of time.
type Rule struct {
	BaseFare    int64
	PrebookFare int64
	Lead        time.Duration
	Currency    string
}
