// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsepg/tsepg/pkg/epg"
)

func TestDefaults(t *testing.T) {
	osArgs := []string{"/path/tsepgd"}
	cfg, err := LoadConfig(osArgs, "/root")
	require.NoError(t, err)
	c := DefaultConfig
	c.CacheDir = "/root/cache"
	require.Equal(t, c, *cfg)
}

func TestConfigFileChannels(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tsepgd.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"channels": [
			{"name": "ch1", "type": "GR", "tuningkey": "13", "excludedserviceids": [102]}
		]
	}`), 0o644))

	osArgs := []string{"/path/tsepgd", "--cfg", cfgPath}
	cfg, err := LoadConfig(osArgs, "/root")
	require.NoError(t, err)
	require.Len(t, cfg.Channels, 1)

	channels, err := cfg.ResolveChannels()
	require.NoError(t, err)
	require.Equal(t, epg.GR, channels[0].Type)
	require.Equal(t, []uint16{102}, channels[0].ExcludedServiceIDList())
}

func TestCommandLineOverridesDefaults(t *testing.T) {
	osArgs := []string{"/path/tsepgd", "--loglevel", "debug", "--port", "9999"}
	cfg, err := LoadConfig(osArgs, "/root")
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 9999, cfg.Port)
}

func TestEnvOverridesCommandLine(t *testing.T) {
	osArgs := []string{"/path/tsepgd", "--loglevel", "debug"}
	t.Setenv("TSEPG_LOGLEVEL", "warn")
	cfg, err := LoadConfig(osArgs, "/root")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestResolveChannelsRejectsUnknownType(t *testing.T) {
	cfg := ServerConfig{Channels: []ChannelConfig{{Name: "ch1", Type: "WEIRD"}}}
	_, err := cfg.ResolveChannels()
	require.Error(t, err)
}
