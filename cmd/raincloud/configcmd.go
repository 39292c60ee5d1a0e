package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/raincloud/internal/config"
	"github.com/muurk/raincloud/internal/ui"
)

var (
	forceInit bool
	zoneIcon  string
)

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file without asking")
	configLabelCmd.Flags().StringVar(&zoneIcon, "icon", "", "Icon shown before the label")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configNicknameCmd)
	configCmd.AddCommand(configLabelCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the local configuration file",
	Long: `Manage profiles, nicknames and preferences stored in the local
configuration file. Passwords are never written to it.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force := forceInit
		if !force {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil {
				if !ui.IsTerminal() {
					return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
				}
				if !ui.ConfirmOverwrite(cmd.InOrStdin(), cmd.OutOrStdout(), path) {
					return nil
				}
				force = true
			}
		}

		path, err := config.CreateDefaultConfig(force)
		if err != nil {
			return err
		}
		return success(cmd, "Configuration written", map[string]string{
			"Path": path,
			"Next": "raincloud config set username <you@example.com>",
		})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := loadConfig()
		if resolveFormat(reg) == "json" {
			return printStructured(cmd.OutOrStdout(), reg)
		}

		path, err := config.GetConfigPath()
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
		}
		// YAML is the file format, so it is also the default view.
		saved := outputFormat
		outputFormat = "yaml"
		defer func() { outputFormat = saved }()
		return printStructured(cmd.OutOrStdout(), reg)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a profile value or preference",
	Long: fmt.Sprintf(`Set a value in the active profile (--profile, default from config).

Profile keys: %s
Preferences:  output_format (%s), default_profile,
              statsd_addr, statsd_namespace, monitor_interval`,
		strings.Join(config.ProfileKeys, ", "), strings.Join(config.OutputFormats, ", ")),
	Example: `  raincloud config set username you@example.com
  raincloud --profile work config set base_url https://wifiaquatimer.com
  raincloud config set output_format compact`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := loadConfig()
		key, value := args[0], args[1]

		if err := setConfigValue(reg, key, value); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		return success(cmd, "Configuration updated", map[string]string{key: value})
	},
}

func setConfigValue(reg *config.Registry, key, value string) error {
	prefs := reg.Preferences
	switch key {
	case "output_format":
		return reg.SetOutputFormat(value)
	case "default_profile":
		if reg.Profiles[value] == nil {
			return fmt.Errorf("unknown profile %q", value)
		}
		prefs.DefaultProfile = value
		return nil
	case "statsd_addr", "statsd_namespace", "monitor_interval":
		if prefs.Monitor == nil {
			prefs.Monitor = &config.MonitorPrefs{}
		}
		switch key {
		case "statsd_addr":
			prefs.Monitor.StatsdAddr = value
		case "statsd_namespace":
			prefs.Monitor.Namespace = value
		default:
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return fmt.Errorf("monitor_interval must be a positive number of seconds, got %q", value)
			}
			prefs.Monitor.IntervalSeconds = n
		}
		return nil
	}

	name := profileName
	if name == "" {
		name = reg.DefaultProfile()
	}
	return reg.SetProfileValue(name, key, value)
}

var configNicknameCmd = &cobra.Command{
	Use:   "nickname <serial> [nickname]",
	Short: "Set or clear a local nickname for a controller or faucet",
	Long: `Give a controller or faucet a local nickname. Nicknames are shown next to
the portal name and can be used in place of the serial in other commands.
Without a nickname the current one is cleared.`,
	Example: `  raincloud config nickname 1234 back-tap`,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := loadConfig()
		nickname := ""
		if len(args) == 2 {
			nickname = args[1]
		}
		reg.SetDeviceNickname(args[0], nickname)
		if err := reg.Save(); err != nil {
			return err
		}
		return success(cmd, "Nickname saved", map[string]string{"Serial": args[0], "Nickname": nickname})
	},
}

var configLabelCmd = &cobra.Command{
	Use:     "label <faucet-serial> <zone> <label>",
	Short:   "Set a local label for a zone",
	Example: `  raincloud config label 1234 2 "Lawn sprinkler" --icon 🌱`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		zoneID, err := parseZoneID(args[1])
		if err != nil {
			return err
		}
		reg := loadConfig()
		reg.SetZoneLabel(args[0], zoneID, args[2], zoneIcon)
		if err := reg.Save(); err != nil {
			return err
		}
		return success(cmd, "Zone label saved", map[string]string{
			"Faucet": args[0],
			"Zone":   strconv.Itoa(zoneID),
			"Label":  reg.ZoneLabel(args[0], zoneID),
		})
	},
}
