// Package config loads the wlflash tool configuration from TOML or YAML.
//
// Example wlflash.toml:
//
//	[target]
//	core = "cpu2"
//
//	[link]
//	backend = "serial"
//	port = "/dev/ttyUSB0"
//	baud = 115200
//
//	[program]
//	completion = "decode"
//	poll_interval = "50us"
package config
