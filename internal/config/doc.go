// Package config loads the TOML configuration shared by postboard and postd.
//
// Load reads ~/.config/postboard/config.toml unless a path is given. A
// missing file is not an error; defaults are used instead. Values are
// trimmed and paths starting with ~ are expanded.
//
// Example:
//
//	api_url = "127.0.0.1:7480"
//	log_file = "~/.local/state/postboard/postboard.log"
//	refresh_seconds = 30        # 0 disables background refresh
//	request_timeout = "10s"
//
//	[server]
//	listen = "127.0.0.1:7480"
//	driver = "sqlite"           # sqlite, postgres or memory
//	dsn = "~/.local/share/postboard/posts.db"
//
// The environment variables POSTBOARD_API_URL, POSTD_LISTEN, POSTD_DRIVER
// and POSTD_DSN override the file.
package config
