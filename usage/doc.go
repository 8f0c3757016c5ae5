// Package usage turns the three prompt inputs into the token summary shown
// next to the submit button.
//
// Each field is counted on its own for display. The total is counted on the
// fully rendered prompt, so template boilerplate is included and tokens at
// field boundaries are not double counted. ExceedsThreshold is strict: a
// total equal to the threshold does not warn.
package usage
