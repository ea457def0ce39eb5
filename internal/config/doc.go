// Package config defines searchproxy's runtime configuration.
//
// A Config starts from NewConfig defaults. A YAML file is layered on top,
// then environment variables, then whatever CLI flags the user set
// explicitly. Validate is called once on the merged result before the
// server starts.
package config
