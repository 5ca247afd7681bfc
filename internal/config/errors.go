package config

import "errors"

// ErrConfigLoad indicates the configuration file could not be read, parsed or
// validated. Nothing is dispatched when it occurs.
var ErrConfigLoad = errors.New("config load failed")
