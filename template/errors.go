package template

import "errors"

// ErrNoSelectionPlaceholder is returned by Check when a template would send
// the instruction without the selected text.
var ErrNoSelectionPlaceholder = errors.New("template has no " + PlaceholderSelection + " placeholder")
