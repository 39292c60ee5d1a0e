// Package config manages the raincloud CLI's YAML configuration file.
//
// The file holds named portal profiles (base URL, account e-mail, timeout,
// proxy and TLS settings), local nicknames for controllers and faucets, and
// CLI preferences such as the default output format and the StatsD target
// of the monitor command.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/raincloud/config.yaml or $HOME/.config/raincloud/config.yaml
//   - macOS: $HOME/.config/raincloud/config.yaml
//   - Windows: %LOCALAPPDATA%\raincloud\config.yaml
//
// # Security
//
// Portal passwords are never written to this file. The CLI reads them from
// RAINCLOUD_PASSWORD (optionally via a .env file) or prompts for them.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	profile := registry.Profile("") // preferred default
//	registry.SetDeviceNickname("ABCDEFGH", "Back Garden")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are protected by a mutex and go through a temporary file.
package config
