package arcsite

import "errors"

// ErrDuplicateName signals that a project with the requested name already
// exists. The workflow treats this as a data-quality alert, not a failure.
var ErrDuplicateName = errors.New("arcsite: project name already exists")
