// README: Eligibility result for the rider booking screen.
package matching

import "campusride/internal/modules/driver"

// Eligibility is what the booking screen polls before letting a rider pay:
// the set of online approved drivers compatible with the stated preference.
// An empty set is a valid result, not an error.
type Eligibility struct {
	Drivers []*driver.Driver
	Count   int
}
