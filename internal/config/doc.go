// Package config loads, normalizes, and validates mkvkeep configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MKVMERGE_PATH. The Config value is passed explicitly into the catalog,
// sizer, and job constructors; nothing in the module reads configuration from
// package-level state.
package config
