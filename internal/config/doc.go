// Package config loads the research agent settings from a .env file, an
// optional YAML file and environment variables, and validates them.
//
//	settings, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
