package strategy

import "errors"

// ErrNoVMGModel is reported as a warning when tack or layline detection is
// requested without a VMG model.
var ErrNoVMGModel = errors.New("no VMG model configured, tack and layline detection skipped")
