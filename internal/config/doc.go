// Package config provides settings and path layout for vless-ctl.
//
// # Layout
//
// Everything lives under one directory, by default
// <UserConfigDir>/vless-ctl:
//
//	config.toml     optional settings
//	profiles/       one <name>.json engine config per profile
//	state/          lifecycle event logs
//
// # Settings
//
// config.toml is optional; missing keys keep their defaults:
//
//	engine           = "/usr/local/bin/xray"
//	engine_args      = "run"
//	config_flag      = "-config"
//	profiles_dir     = "~/vpn/profiles"
//	state_dir        = "state"
//	stop_timeout     = "5s"
//	startup_grace    = "500ms"
//	log_level        = "warning"
//	region_exception = "ru"
//
// Relative directories are resolved against the directory holding
// config.toml.
package config
