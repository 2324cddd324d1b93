// Package config loads graphdemo settings.
//
// Values come, lowest priority first, from the defaults in Default, an
// optional TOML file, and GRAPHDEMO_* environment variables. A .env file is
// read into the environment before the overrides are applied.
package config
