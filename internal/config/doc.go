// Package config handles configuration loading for gatekeeper.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and duration parsing.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${GATEKEEPER_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	session:
//	  remember_ttl: "168h"
//	directory:
//	  mock_latency: "800ms"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  addr: "127.0.0.1:8080"
//
// Identity directory (empty database_path selects the in-memory mock):
//
//	directory:
//	  database_path: "/var/lib/gatekeeper/directory.db"
//	  seed_defaults: true
//	  mock_latency: "800ms"
//
// Session persistence:
//
//	session:
//	  file_path: "/var/lib/gatekeeper/session.json"
//	  remember_ttl: "168h"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${GATEKEEPER_JWT_SECRET}"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
//	cfg, err := config.Load("/etc/gatekeeper/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
