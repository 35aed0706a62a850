// Package config loads the board client configuration.
//
// # Overview
//
// The board reads a small TOML file to find the question API, the session
// page attendees are sent to, and a few presentation knobs.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/qaboard/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # API Base URL
//
// The QABOARD_API_URL environment variable beats api_url from the file.
// When neither is set the API is assumed to live on the session page's host
// on port 8000, or on localhost when the session URL has no host.
//
// # TOML Format
//
// Example config.toml:
//
//	api_url = "http://localhost:8000"
//	session_url = "http://localhost:5173"
//	session_name = "Live Q&A"
//	health = "simulated"          # simulated | http | presence
//	refresh_interval = "30s"      # optional; unset disables interval refresh
//	log_path = "~/.local/state/qaboard/qaboard.log"
//
// All fields are optional. Tilde expansion is performed on log_path.
package config
