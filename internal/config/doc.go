// Package config resolves local paths and loads the client configuration
// from the config file, OMS_* environment variables and CLI flags.
package config
