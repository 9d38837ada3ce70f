// Package config loads runtime configuration for the zia CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "health_addr": "127.0.0.1:50051",
//	  "request_timeout": "150s",
//	  "session_file": "zia-session.db",
//	  "online_check_interval": "5s"
//	}
package config
