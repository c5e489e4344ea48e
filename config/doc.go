// Package config loads chatbridge configuration from the environment.
//
// A .env file in the working directory is honored when present. Either a
// personal access token or a login/password pair must be configured; token
// auth wins when both are set.
package config
