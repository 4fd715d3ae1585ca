package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/katello-exporter/katello-exporter/internal/config"
)

const (
	keyConfig      = "config"
	keyServer      = "katello"
	keyUser        = "user"
	keyPassword    = "password"
	keyPort        = "port"
	keyInsecure    = "insecure"
	keyDebug       = "debug"
	keyMetricsPath = "metrics-path"
	keyLogFormat   = "log-format"
)

// envNames maps each flag to the environment variable that can set it.
var envNames = map[string]string{
	keyConfig:      "KATELLO_EXPORTER_CONFIG",
	keyServer:      "KATELLO_SERVER",
	keyUser:        "KATELLO_USER",
	keyPassword:    "KATELLO_PASSWORD",
	keyPort:        "VIRTUAL_PORT",
	keyInsecure:    "INSECURE",
	keyDebug:       "DEBUG",
	keyMetricsPath: "METRICS_PATH",
	keyLogFormat:   "LOG_FORMAT",
}

func addFlags(flags *pflag.FlagSet) {
	flags.String(keyConfig, "", "Path to an optional YAML config file, watched for changes")
	flags.StringP(keyServer, "j", config.DefaultServer, "Server url from the katello api")
	flags.String(keyUser, "", "Katello api user")
	flags.String(keyPassword, "", "Katello api password")
	flags.IntP(keyPort, "p", config.DefaultPort, "Listen to this port")
	flags.BoolP(keyInsecure, "k", false, "Allow connection to insecure Katello API")
	flags.Bool(keyDebug, false, "Log every upstream request and response")
	flags.String(keyMetricsPath, config.DefaultMetricsPath, "HTTP path serving the metrics")
	flags.String(keyLogFormat, "json", "Log format: json or text")
}

// bindFlags makes every flag readable through v, with its environment
// variable as fallback when the flag is not given.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	for key, env := range envNames {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// overrides turns every flag or environment variable that was explicitly
// set into a config option. Unset ones leave the file value (or default) in
// place.
func overrides(v *viper.Viper) []config.Option {
	var opts []config.Option
	if v.IsSet(keyServer) {
		server := v.GetString(keyServer)
		opts = append(opts, func(c *config.Config) { c.Katello.Server = server })
	}
	if v.IsSet(keyUser) {
		user := v.GetString(keyUser)
		opts = append(opts, func(c *config.Config) { c.Katello.User = user })
	}
	if v.IsSet(keyPassword) {
		password := v.GetString(keyPassword)
		opts = append(opts, func(c *config.Config) { c.Katello.Password = password })
	}
	if v.IsSet(keyInsecure) {
		insecure := v.GetBool(keyInsecure)
		opts = append(opts, func(c *config.Config) { c.Katello.Insecure = insecure })
	}
	if v.IsSet(keyPort) {
		port := v.GetInt(keyPort)
		opts = append(opts, func(c *config.Config) { c.Listen.Port = port })
	}
	if v.IsSet(keyMetricsPath) {
		path := v.GetString(keyMetricsPath)
		opts = append(opts, func(c *config.Config) { c.Listen.MetricsPath = path })
	}
	if v.IsSet(keyDebug) {
		debug := v.GetBool(keyDebug)
		opts = append(opts, func(c *config.Config) { c.Debug = debug })
	}
	return opts
}

// loadConfig reads the optional config file and layers flags and
// environment on top.
func loadConfig(v *viper.Viper) (*config.Config, []config.Option, error) {
	opts := overrides(v)
	cfg, err := config.Load(v.GetString(keyConfig), opts...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, opts, nil
}
