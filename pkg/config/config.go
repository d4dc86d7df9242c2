// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads receiver setup files.
//
// A setup file is YAML (.yaml, .yml) or TOML (.toml). Fields left out of
// the file keep their defaults, so a file only needs to name what it
// changes:
//
//	receiver:
//	  rate_ms: 200
//	  dynamic_model: automotive
//	  layers: [ram, flash]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/gnomon/pkg/receiver"
	"github.com/Thermoquad/gnomon/pkg/ubx"
)

// Errors returned by Load and Decode
var (
	ErrUnknownFormat = errors.New("unknown config file format")
	ErrInvalidConfig = errors.New("invalid config")
)

// SBAS PRN range accepted in sbas_prns
const (
	MinSBASPRN = 120
	MaxSBASPRN = 158
)

// Format is a setup file encoding
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// Config is a parsed setup file
type Config struct {
	Receiver  ReceiverConfig  `yaml:"receiver" toml:"receiver"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// ReceiverConfig describes the desired receiver setup in file form
type ReceiverConfig struct {
	RateMs       uint16   `yaml:"rate_ms" toml:"rate_ms"`
	DynamicModel string   `yaml:"dynamic_model" toml:"dynamic_model"`
	FixMode      string   `yaml:"fix_mode" toml:"fix_mode"`
	SBAS         bool     `yaml:"sbas" toml:"sbas"`
	SBASPRNs     []int    `yaml:"sbas_prns" toml:"sbas_prns"` // empty for automatic
	Galileo      bool     `yaml:"galileo" toml:"galileo"`
	BeiDou       bool     `yaml:"beidou" toml:"beidou"`
	GLONASS      bool     `yaml:"glonass" toml:"glonass"`
	PVT          bool     `yaml:"pvt" toml:"pvt"`
	Satellites   bool     `yaml:"satellites" toml:"satellites"`
	Signals      bool     `yaml:"signals" toml:"signals"`
	Layers       []string `yaml:"layers" toml:"layers"`
}

// TelemetryConfig holds the NATS publishing settings
type TelemetryConfig struct {
	URL        string `yaml:"url" toml:"url"`
	Subject    string `yaml:"subject" toml:"subject"`
	IntervalMs int    `yaml:"interval_ms" toml:"interval_ms"`
}

var dynModels = map[string]ubx.DynModel{
	"portable":   ubx.DynModelPortable,
	"stationary": ubx.DynModelStationary,
	"pedestrian": ubx.DynModelPedestrian,
	"automotive": ubx.DynModelAutomotive,
	"sea":        ubx.DynModelSea,
	"airborne1g": ubx.DynModelAirborne1G,
	"airborne2g": ubx.DynModelAirborne2G,
	"airborne4g": ubx.DynModelAirborne4G,
	"wrist":      ubx.DynModelWrist,
	"bike":       ubx.DynModelBike,
	"mower":      ubx.DynModelMower,
	"escooter":   ubx.DynModelEScooter,
}

var fixModes = map[string]ubx.FixMode{
	"2d":   ubx.FixMode2DOnly,
	"3d":   ubx.FixMode3DOnly,
	"auto": ubx.FixModeAuto,
}

var layerNames = map[string]uint8{
	"ram":   ubx.LayerRAM,
	"bbr":   ubx.LayerBBR,
	"flash": ubx.LayerFlash,
}

// Default returns the configuration used when no file is given
func Default() Config {
	d := receiver.DefaultSettings()
	return Config{
		Receiver: ReceiverConfig{
			RateMs:       d.RateMs,
			DynamicModel: "airborne4g",
			FixMode:      "auto",
			SBAS:         d.SBAS,
			Galileo:      d.Galileo,
			BeiDou:       d.BeiDou,
			GLONASS:      d.GLONASS,
			PVT:          d.UsePVT,
			Satellites:   d.Satellites,
			Signals:      d.Signals,
			Layers:       []string{"ram"},
		},
		Telemetry: TelemetryConfig{
			Subject:    "gnomon",
			IntervalMs: 1000,
		},
	}
}

// FormatFromPath picks the encoding from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads and validates the setup file at path
func Load(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Decode(b, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a setup file body. Unknown keys are rejected.
func Decode(b []byte, format Format) (Config, error) {
	cfg := Default()

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		// An empty document leaves the defaults alone
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(b), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
		}
	default:
		return Config{}, ErrUnknownFormat
	}

	if cfg.Telemetry.Subject == "" {
		cfg.Telemetry.Subject = "gnomon"
	}
	if cfg.Telemetry.IntervalMs <= 0 {
		cfg.Telemetry.IntervalMs = 1000
	}

	if _, err := cfg.Receiver.Settings(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Settings converts the file form into driver settings and validates them
func (r *ReceiverConfig) Settings() (receiver.Settings, error) {
	dyn, ok := dynModels[strings.ToLower(r.DynamicModel)]
	if !ok {
		return receiver.Settings{}, fmt.Errorf("%w: dynamic_model %q (one of %s)",
			ErrInvalidConfig, r.DynamicModel, names(dynModels))
	}
	fix, ok := fixModes[strings.ToLower(r.FixMode)]
	if !ok {
		return receiver.Settings{}, fmt.Errorf("%w: fix_mode %q (one of %s)",
			ErrInvalidConfig, r.FixMode, names(fixModes))
	}

	var layers uint8
	for _, name := range r.Layers {
		bit, ok := layerNames[strings.ToLower(name)]
		if !ok {
			return receiver.Settings{}, fmt.Errorf("%w: layer %q (one of %s)",
				ErrInvalidConfig, name, names(layerNames))
		}
		layers |= bit
	}

	mask := ubx.SBASAll
	for _, prn := range r.SBASPRNs {
		if prn < MinSBASPRN || prn > MaxSBASPRN {
			return receiver.Settings{}, fmt.Errorf("%w: sbas prn %d (must be %d-%d)",
				ErrInvalidConfig, prn, MinSBASPRN, MaxSBASPRN)
		}
		mask |= 1 << uint(prn-MinSBASPRN)
	}

	s := receiver.Settings{
		RateMs:     r.RateMs,
		DynModel:   dyn,
		FixMode:    fix,
		SBAS:       r.SBAS,
		SBASMask:   mask,
		Galileo:    r.Galileo,
		BeiDou:     r.BeiDou,
		GLONASS:    r.GLONASS,
		UsePVT:     r.PVT,
		Satellites: r.Satellites,
		Signals:    r.Signals,
		Layers:     layers,
	}
	if err := s.Validate(); err != nil {
		return receiver.Settings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return s, nil
}

func names[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
