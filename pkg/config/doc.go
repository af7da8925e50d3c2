// Package config loads the mailroom configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Environment variables always win.
//
//	cfg, err := config.Load("mailroom.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// The YAML file may reference environment variables as ${NAME}; they are
// expanded before parsing. Unknown keys are rejected.
package config
