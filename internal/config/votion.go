package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolSnapshot/internal/model"
)

const (
	DefaultVotionAPIBase = "https://backend.erisprotocol.com/votion/liquidity-alliance"
	DefaultVotionRepo    = "defipatriot/tla-ext_json_storage"
)

// VotionConfig holds the vote snapshot configuration.
type VotionConfig struct {
	DataDir         string
	APIBase         string
	HTTPTimeout     time.Duration
	RequestInterval time.Duration
	Lockups         []model.Lockup
	GitHub          GitHubConfig
	PGDSN           string
	PushgatewayURL  string
	LogLevel        string
}

// DefaultLockups returns the tracked asset/duration buckets in fetch order.
func DefaultLockups() []model.Lockup {
	return []model.Lockup{
		{ID: "arbluna-max", Type: "arbLUNA", Duration: "Max", Multiplier: 10},
		{ID: "ampluna-max", Type: "ampLUNA", Duration: "Max", Multiplier: 10},
		{ID: "arbluna-12", Type: "arbLUNA", Duration: "3mo", Multiplier: 2},
		{ID: "ampluna-12", Type: "ampLUNA", Duration: "3mo", Multiplier: 2},
		{ID: "arbluna-1", Type: "arbLUNA", Duration: "1wk", Multiplier: 1},
		{ID: "ampluna-1", Type: "ampLUNA", Duration: "1wk", Multiplier: 1},
	}
}

// LoadVotion merges .env, config file, environment variables, and flags into VotionConfig.
func LoadVotion(cfgFile string, flags *pflag.FlagSet) (VotionConfig, error) {
	v, err := newViper("VOTION", cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("votion-api-base", DefaultVotionAPIBase)
		v.SetDefault("github-repo", DefaultVotionRepo)
	})
	if err != nil {
		return VotionConfig{}, err
	}

	lockups, err := loadLockups(v)
	if err != nil {
		return VotionConfig{}, err
	}

	return VotionConfig{
		DataDir:         v.GetString("data-dir"),
		APIBase:         v.GetString("votion-api-base"),
		HTTPTimeout:     v.GetDuration("http-timeout"),
		RequestInterval: v.GetDuration("request-interval"),
		Lockups:         lockups,
		GitHub:          gitHubConfig(v),
		PGDSN:           v.GetString("pg-dsn"),
		PushgatewayURL:  v.GetString("pushgateway-url"),
		LogLevel:        v.GetString("log-level"),
	}, nil
}

// loadLockups reads the lockup list either as config-file entries or as a comma-separated
// list of id:type:duration:multiplier items (the env var form).
func loadLockups(v *viper.Viper) ([]model.Lockup, error) {
	if !v.IsSet("lockups") {
		return DefaultLockups(), nil
	}

	switch v.Get("lockups").(type) {
	case string, []string:
		items := getStringSlice(v, "lockups")
		out := make([]model.Lockup, 0, len(items))
		for _, item := range items {
			lockup, err := ParseLockup(item)
			if err != nil {
				return nil, err
			}
			out = append(out, lockup)
		}
		if len(out) == 0 {
			return DefaultLockups(), nil
		}
		return out, nil
	}

	var out []model.Lockup
	if err := v.UnmarshalKey("lockups", &out); err != nil {
		return nil, fmt.Errorf("decode lockups: %w", err)
	}
	for _, l := range out {
		if l.ID == "" {
			return nil, fmt.Errorf("lockup without id")
		}
	}
	return out, nil
}

// ParseLockup parses id:type:duration:multiplier.
func ParseLockup(item string) (model.Lockup, error) {
	parts := strings.Split(item, ":")
	if len(parts) != 4 {
		return model.Lockup{}, fmt.Errorf("invalid lockup %q: want id:type:duration:multiplier", item)
	}
	multiplier, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return model.Lockup{}, fmt.Errorf("invalid lockup %q multiplier: %w", item, err)
	}
	return model.Lockup{
		ID:         strings.TrimSpace(parts[0]),
		Type:       strings.TrimSpace(parts[1]),
		Duration:   strings.TrimSpace(parts[2]),
		Multiplier: multiplier,
	}, nil
}
