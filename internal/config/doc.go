// Package config provides configuration structures and utilities for
// linkfilter. It defines the whitelist and link-removal options, batch and
// input limits, report preferences, and the YAML file that stores named
// whitelist profiles.
package config
