// README: Gender and driver-preference enums used by matching and rides.
package types

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Preference is a rider's stated driver-gender preference. Unlike Gender it
// admits "Any", which matches every driver.
type Preference string

const (
	PreferMale   Preference = "M"
	PreferFemale Preference = "F"
	PreferAny    Preference = "Any"
)

func (p Preference) Valid() bool {
	return p == PreferMale || p == PreferFemale || p == PreferAny
}

// Matches reports whether a driver of gender g satisfies the preference.
func (p Preference) Matches(g Gender) bool {
	switch p {
	case PreferAny, "":
		return true
	default:
		return Gender(p) == g
	}
}
