package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"samiksha/contexts/survey-delivery/paradata-service/domain/scoring"

	yaml "gopkg.in/yaml.v2"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	WorkerTickInterval time.Duration

	DispatchDefaultTimeout time.Duration
	DispatchBatchSize      int
	ChannelTimeouts        map[string]time.Duration
	ChannelConcurrency     map[string]int64

	QualityRulesPath string
	QualityRules     scoring.RuleConfig
}

var channelKinds = []string{"chat", "ivr", "web", "voice_avatar"}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "samiksha"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	// Empty broker list selects the in-process bus.
	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}

	timeouts := make(map[string]time.Duration)
	concurrency := make(map[string]int64)
	for _, kind := range channelKinds {
		suffix := strings.ToUpper(kind)
		if timeout := envDuration("DISPATCH_TIMEOUT_"+suffix, 0); timeout > 0 {
			timeouts[kind] = timeout
		}
		concurrency[kind] = int64(envInt("DISPATCH_CONCURRENCY_"+suffix, 8))
	}

	rulesPath := os.Getenv("QUALITY_RULES_PATH")
	rules, err := LoadQualityRules(rulesPath)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		WorkerTickInterval: envDuration("WORKER_TICK_INTERVAL", 5*time.Second),

		DispatchDefaultTimeout: envDuration("DISPATCH_DEFAULT_TIMEOUT", 30*time.Second),
		DispatchBatchSize:      envInt("DISPATCH_BATCH_SIZE", 100),
		ChannelTimeouts:        timeouts,
		ChannelConcurrency:     concurrency,

		QualityRulesPath: rulesPath,
		QualityRules:     rules,
	}, nil
}

// LoadQualityRules reads the threshold file. A missing path or file falls
// back to the built-in defaults; a present but unparsable file is an error
// so a bad operator edit does not silently revert thresholds.
func LoadQualityRules(path string) (scoring.RuleConfig, error) {
	defaults := scoring.DefaultRuleConfig()
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return scoring.RuleConfig{}, fmt.Errorf("read quality rules file: %w", err)
	}

	rules := defaults
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return scoring.RuleConfig{}, fmt.Errorf("parse quality rules file: %w", err)
	}
	if rules.Revision <= 0 {
		rules.Revision = defaults.Revision
	}
	return rules, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
