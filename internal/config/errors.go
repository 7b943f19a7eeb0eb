package config

import "errors"

// ErrMissingOwner indicates that no registry owner address was provided via
// the config file or the OWNER environment variable.
var ErrMissingOwner = errors.New("missing owner address (set OWNER or the owner config key)")
