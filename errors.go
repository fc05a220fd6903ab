package transmux

import "errors"

// ErrInvalidProgramNumber is returned by EnableProgram when asked about a
// program number that the most recent PAT does not list.
var ErrInvalidProgramNumber = errors.New("transmux: invalid program number")
