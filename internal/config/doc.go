// Package config persists hopper's flat key/value settings as a TOML
// document. Loading merges the file over built-in defaults and never fails:
// a missing or unparsable file degrades to defaults so a misconfigured tool
// still starts. Keys the tool does not recognize survive a load/save
// round trip.
package config
