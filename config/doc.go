// Package config provides configuration loading and validation for the
// speakerline service.
//
// It uses Viper to load config.yml plus .env files from standard
// locations, binds environment variables over file values, and
// unmarshals the result into the service Config. Environment variables
// use underscore-separated paths (e.g. SERVER_PORT, REDIS_ADDR).
package config
