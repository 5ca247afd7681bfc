// Package config loads the channel configuration file and the run options
// with precedence: YAML config > Environment variables > Defaults. The
// command line only chooses the file. Channel sections keep the order they
// have in the file.
package config
