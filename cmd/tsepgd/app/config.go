// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"

	"github.com/spf13/pflag"

	"github.com/tsepg/tsepg/pkg/epg"
	"github.com/tsepg/tsepg/pkg/logging"
)

const (
	defaultPort            = 8888
	defaultCacheDir        = "./cache"
	defaultScanServicesCmd = "scan_services"
	defaultCollectEitsCmd  = "collect_eits --xsids={{.Xsids}}"
)

// ChannelConfig is one operator-configured tunable channel, as loaded
// from the JSON config file's "channels" array. There is no
// command-line or environment-variable equivalent for a channel list;
// operators author it once in the config file.
type ChannelConfig struct {
	Name               string   `json:"name"`
	Type               string   `json:"type"` // GR, BS, CS, or SKY
	TuningKey          string   `json:"tuningkey"`
	ExcludedServiceIDs []uint16 `json:"excludedserviceids"`
}

// ToChannel converts a ChannelConfig into the epg package's runtime
// Channel type, resolving its Type string into a ChannelType.
func (c ChannelConfig) ToChannel() (epg.Channel, error) {
	var ct epg.ChannelType
	switch strings.ToUpper(c.Type) {
	case "GR":
		ct = epg.GR
	case "BS":
		ct = epg.BS
	case "CS":
		ct = epg.CS
	case "SKY":
		ct = epg.SKY
	default:
		return epg.Channel{}, fmt.Errorf("channel %q: unknown type %q", c.Name, c.Type)
	}
	ch := epg.Channel{Name: c.Name, Type: ct, TuningKey: c.TuningKey}
	if len(c.ExcludedServiceIDs) > 0 {
		ch.ExcludedServiceIDs = make(map[uint16]struct{}, len(c.ExcludedServiceIDs))
		for _, id := range c.ExcludedServiceIDs {
			ch.ExcludedServiceIDs[id] = struct{}{}
		}
	}
	return ch, nil
}

// ServerConfig is the full tsepgd configuration.
type ServerConfig struct {
	LogFormat       string          `json:"logformat"`
	LogLevel        string          `json:"loglevel"`
	Port            int             `json:"port"`
	CacheDir        string          `json:"cachedir"`
	ScanServicesCmd string          `json:"scanservicescmd"`
	CollectEitsCmd  string          `json:"collecteitscmd"`
	Channels        []ChannelConfig `json:"channels"`
}

var DefaultConfig = ServerConfig{
	LogFormat:       "text",
	LogLevel:        "INFO",
	Port:            defaultPort,
	CacheDir:        defaultCacheDir,
	ScanServicesCmd: defaultScanServicesCmd,
	CollectEitsCmd:  defaultCollectEitsCmd,
}

// ResolveChannels converts every configured ChannelConfig into an
// epg.Channel.
func (c *ServerConfig) ResolveChannels() ([]epg.Channel, error) {
	out := make([]epg.Channel, 0, len(c.Channels))
	for _, cc := range c.Channels {
		ch, err := cc.ToChannel()
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// LoadConfig loads defaults, an optional JSON config file (which is
// also where the channel list is authored), command line flags, and
// finally environment variable overrides.
func LoadConfig(args []string, cwd string) (*ServerConfig, error) {
	k := koanf.New(".")
	defaults := DefaultConfig
	if err := k.Load(structs.Provider(defaults, "json"), nil); err != nil {
		return nil, err
	}

	f := pflag.NewFlagSet("tsepgd", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	cfgFile := f.String("cfg", "", "path to a JSON config file (channels are configured here)")
	f.Int("port", k.Int("port"), "HTTP port")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [%s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.String("cachedir", k.String("cachedir"), "directory holding the warm schedules.json cache")
	f.String("scanservicescmd", k.String("scanservicescmd"), "scan_services helper command template")
	f.String("collecteitscmd", k.String("collecteitscmd"), "collect_eits helper command template")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	if *cfgFile != "" {
		cf := file.Provider(*cfgFile)
		if err := k.Load(cf, json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %w", err)
	}

	if err := k.Load(env.Provider("TSEPG_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TSEPG_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg ServerConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if cfg.CacheDir != "" && !path.IsAbs(cfg.CacheDir) {
		cfg.CacheDir = path.Join(cwd, cfg.CacheDir)
	}

	return &cfg, nil
}
