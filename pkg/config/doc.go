// Package config loads typed configuration structs from environment
// variables, reading a local .env file first when present. Every package in
// the toolkit declares its own Config struct with env tags and loads it
// through Load or MustLoad.
package config
