package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPoolsAPIURL = "https://dex.warlock.backbonelabs.io/api/pools/phoenix-1"
	DefaultPoolsRepo   = "defipatriot/ss-pool-data_2026"
	DefaultBranch      = "main"
	DefaultAPIURL      = "https://api.github.com"
)

// Config holds the pool pipeline configuration loaded from flags, env, or config file.
type Config struct {
	DataDir        string
	PoolsAPIURL    string
	PoolsAPIToken  string
	HTTPTimeout    time.Duration
	Location       *time.Location
	GitHub         GitHubConfig
	PGDSN          string
	PushgatewayURL string
	LogLevel       string
	Cron           CronConfig
}

// GitHubConfig locates the publishing remote. An empty Token means local mode.
type GitHubConfig struct {
	Token     string
	Repo      string
	Branch    string
	UserName  string
	UserEmail string
	APIURL    string
}

// CronConfig holds six-field cron specs for schedule mode. Empty disables a job.
type CronConfig struct {
	Daily   string
	Weekly  string
	Monthly string
	Yearly  string
}

// Load merges .env, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper("LPDATA", cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("pools-api-url", DefaultPoolsAPIURL)
		v.SetDefault("github-repo", DefaultPoolsRepo)
		v.SetDefault("git-user-name", "Alliance DAO Bot")
		v.SetDefault("git-user-email", "bot@alliancedao.com")
		v.SetDefault("cron-daily", "0 5 0 * * *")
		v.SetDefault("cron-weekly", "0 15 0 * * 1")
		v.SetDefault("cron-monthly", "0 30 0 1 * *")
		v.SetDefault("cron-yearly", "0 45 0 1 1 *")
	})
	if err != nil {
		return Config{}, err
	}

	loc, err := loadLocation(v.GetString("timezone"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DataDir:        v.GetString("data-dir"),
		PoolsAPIURL:    v.GetString("pools-api-url"),
		PoolsAPIToken:  v.GetString("pools-api-token"),
		HTTPTimeout:    v.GetDuration("http-timeout"),
		Location:       loc,
		GitHub:         gitHubConfig(v),
		PGDSN:          v.GetString("pg-dsn"),
		PushgatewayURL: v.GetString("pushgateway-url"),
		LogLevel:       v.GetString("log-level"),
		Cron: CronConfig{
			Daily:   v.GetString("cron-daily"),
			Weekly:  v.GetString("cron-weekly"),
			Monthly: v.GetString("cron-monthly"),
			Yearly:  v.GetString("cron-yearly"),
		},
	}
	if cfg.PoolsAPIURL == "" {
		return Config{}, fmt.Errorf("pools api url is required")
	}
	return cfg, nil
}

// newViper applies the shared loading order: .env, defaults, env, flags, config file.
func newViper(prefix, cfgFile string, flags *pflag.FlagSet, defaults func(v *viper.Viper)) (*viper.Viper, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"github-token":  "GITHUB_TOKEN",
		"github-repo":   "GITHUB_REPO",
		"github-branch": "GITHUB_BRANCH",
	} {
		if err := v.BindEnv(key, prefix+"_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetDefault("data-dir", ".")
	v.SetDefault("http-timeout", 60*time.Second)
	v.SetDefault("github-branch", DefaultBranch)
	v.SetDefault("github-api-url", DefaultAPIURL)
	v.SetDefault("log-level", "info")
	if defaults != nil {
		defaults(v)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// LoadDotEnv loads path into the environment if it exists. Variables already set win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func gitHubConfig(v *viper.Viper) GitHubConfig {
	return GitHubConfig{
		Token:     strings.TrimSpace(v.GetString("github-token")),
		Repo:      v.GetString("github-repo"),
		Branch:    v.GetString("github-branch"),
		UserName:  v.GetString("git-user-name"),
		UserEmail: v.GetString("git-user-email"),
		APIURL:    v.GetString("github-api-url"),
	}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
