// Package config provides file-based key/value configuration for the
// foundation module.
//
// Package: config
// Title: Configuration Loading
// Description: Loads TOML or YAML documents into a nested map and exposes
//              typed getters addressed by dotted keys ("pipeline.band_width").
//              Environment variables override file values: with prefix
//              "CT4PWD", the key "pipeline.band_width" is read from
//              CT4PWD_PIPELINE_BAND_WIDTH.
// Author: msto63
// Version: v0.2.0
// Created: 2026-09-15
// Modified: 2026-10-03
//
// Change History:
// - 2026-09-15 v0.1.0: TOML/YAML loading with typed getters
// - 2026-10-03 v0.2.0: Env overrides and bool tables for condition profiles
//
// Usage:
//   cfg, err := config.LoadWithOptions("profile.yaml", config.LoadOptions{EnvPrefix: "CT4PWD"})
//   width := cfg.GetFloat("pipeline.band_width", 40)
package config
