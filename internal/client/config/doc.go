// Package config loads runtime configuration for the vault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API
//	-t int      request timeout (seconds)
//	-v int      vault operation timeout (seconds)
//	-s string   session store (memory|sqlite)
//	-d string   sqlite session database path
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "server_base_url": "https://vault.example.com/api",
//	  "request_timeout": "30s",
//	  "vault_operation_timeout": "2m",
//	  "session_store": "sqlite",
//	  "session_dsn": "/home/alice/.config/protopass/session.db",
//	  "log_level": "debug"
//	}
package config
