package parser

import (
	"log/slog"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/scanner"
)

// NewRegistry registers every enabled source. Each source paces its own requests.
func NewRegistry(cfg config.SourcesConfig, log *slog.Logger) *scanner.Registry {
	if log == nil {
		log = slog.Default()
	}
	opts := Options{
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		UserAgent:         cfg.UserAgent,
	}

	reg := scanner.NewRegistry()
	for _, name := range cfg.Enabled {
		sourceLog := log.With("source", name)
		switch name {
		case config.SourceNewsAPI:
			reg.Register(NewNewsAPISource(cfg.NewsAPI, opts, sourceLog))
		case config.SourceGuardian:
			reg.Register(NewGuardianSource(cfg.Guardian, opts, sourceLog))
		case config.SourceRSS:
			reg.Register(NewFeedSource(cfg.RSS, opts, sourceLog))
		default:
			log.Warn("unknown source in configuration, ignoring", "source", name)
		}
	}
	log.Debug("source registry ready", "sources", reg.Names())
	return reg
}
