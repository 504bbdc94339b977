package hub

import (
	"errors"
	"time"

	"mediahub/internal/media"
	"mediahub/internal/transport"
	"mediahub/lib/configutil"

	"github.com/titanous/json5"
)

type Config struct {
	Transport transport.Options `json:"transport"`
	Media     media.Options     `json:"media"`

	// CacheDir enables the persistent store of listing pages when set.
	CacheDir string        `json:"cache_dir"`
	CacheTTL time.Duration `json:"cache_ttl"`

	// The client logs in on creation when Email is set.
	Email    string `json:"email"`
	Password string `json:"password"`

	// ScrapeFirst resolves fields from the video page rather than the
	// structured endpoint when both can serve them.
	ScrapeFirst bool `json:"scrape_first"`
}

// UnmarshalJSON accepts durations written as "1h" as well as integer
// nanoseconds.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		CacheTTL configutil.Duration `json:"cache_ttl"`
	}{
		plain:    (*plain)(c),
		CacheTTL: configutil.Duration(c.CacheTTL),
	}
	err := json5.Unmarshal(data, &aux)
	if err != nil {
		return err
	}
	c.CacheTTL = aux.CacheTTL.Std()
	return nil
}

func DefaultConfig() Config {
	return Config{
		Transport: transport.DefaultOptions(),
		Media:     media.DefaultOptions(),
		CacheTTL:  time.Hour,
	}
}

// ReadConfig reads the config file with the given name from the cwd or any of
// its parents, filling unset fields with DefaultConfig.
func ReadConfig(name string) (Config, error) {
	cfg, err := configutil.ReadRecursively[Config](name)
	if err != nil {
		return Config{}, err
	}
	return Complete(cfg)
}

// ReadConfigFile reads the config file at path and its local override.
func ReadConfigFile(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil {
		return Config{}, err
	}
	return Complete(cfg)
}

// Complete fills unset fields with DefaultConfig and validates the result.
func Complete(cfg Config) (Config, error) {
	cfg, err := configutil.WithDefaults(cfg, DefaultConfig())
	if err != nil {
		return Config{}, err
	}
	if cfg.Transport.Host == "" {
		return Config{}, errors.New("config: transport.host is required")
	}
	return cfg, nil
}
