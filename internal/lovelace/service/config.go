package service

import (
	mdwconfig "github.com/msto63/ct4pwd/foundation/core/config"
	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/foundation/vpl"
	"github.com/msto63/ct4pwd/pkg/core/config"
)

// ProfileEnvPrefix prefixes environment overrides of profile keys, e.g.
// CT4PWD_PIPELINE_BAND_WIDTH
const ProfileEnvPrefix = "CT4PWD"

// EngineOptions builds pipeline options from the service configuration.
// When pipeline.profile names a file, its keys win over [pipeline] and
// [conditions] of the service configuration.
func EngineOptions(cfg *config.Config) (vpl.Options, error) {
	profile, err := loadProfile(cfg)
	if err != nil {
		return vpl.Options{}, err
	}
	return vpl.OptionsFromConfig(profile), nil
}

func loadProfile(cfg *config.Config) (*mdwconfig.Config, error) {
	var profile *mdwconfig.Config
	if cfg.Pipeline.Profile != "" {
		loaded, err := mdwconfig.LoadWithOptions(cfg.Pipeline.Profile, mdwconfig.LoadOptions{
			EnvPrefix: ProfileEnvPrefix,
		})
		if err != nil {
			return nil, mdwerror.Wrap(err, "failed to load pipeline profile").
				WithDetail("profile", cfg.Pipeline.Profile)
		}
		profile = loaded
	} else {
		empty, err := mdwconfig.LoadFromString("", mdwconfig.FormatTOML)
		if err != nil {
			return nil, err
		}
		profile = empty
	}

	fallback := map[string]interface{}{
		"pipeline.row_tolerance":     cfg.Pipeline.RowTolerance,
		"pipeline.band_width":        cfg.Pipeline.BandWidth,
		"pipeline.overlap_tolerance": cfg.Pipeline.OverlapTolerance,
		"pipeline.max_loop_count":    cfg.Pipeline.MaxLoopCount,
		"pipeline.max_trace_length":  cfg.Pipeline.MaxTraceLength,
	}
	for key, value := range fallback {
		if !profile.Has(key) {
			profile.Set(key, value)
		}
	}

	if !profile.Has("conditions") && len(cfg.Conditions) > 0 {
		table := make(map[string]interface{}, len(cfg.Conditions))
		for name, v := range cfg.Conditions {
			table[name] = v
		}
		profile.Set("conditions", table)
	}
	return profile, nil
}

// ConfigFrom builds a service configuration from the application
// configuration. Detector and store are supplied by the caller.
func ConfigFrom(cfg *config.Config) (Config, error) {
	engine, err := EngineOptions(cfg)
	if err != nil {
		return Config{}, err
	}

	c := DefaultConfig()
	c.Engine = engine
	c.LegacyDirectionsOnly = cfg.Lovelace.LegacyDirectionsOnly
	c.CacheTTL = cfg.Lovelace.CacheTTL.Duration
	c.CacheSize = cfg.Lovelace.CacheSize
	return c, nil
}
