package transport

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"mediahub/lib/configutil"

	"github.com/titanous/json5"
)

// Languages are the locales the platform serves from a dedicated host.
var Languages = []string{"en", "cn", "de", "fr", "it", "pt", "pl", "rt", "nl", "cz", "jp"}

var geoBypassIPs = []string{
	"185.238.219.36",
	"185.238.219.57",
	"185.238.219.18",
}

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/114.0"
	geoBypassLocale  = "fr"
)

type Options struct {
	// Host is the root of the platform, ex. "https://www.example.com/".
	Host string `json:"host"`
	// Language selects the per-locale host relative targets are resolved against.
	Language string `json:"language"`
	// Hosts overrides the hostname used for a language.
	Hosts map[string]string `json:"hosts"`

	// Delay is the minimum spacing between two issued requests, shared by every
	// caller of a Client.
	Delay             time.Duration `json:"delay"`
	Attempts          int           `json:"attempts"`
	RetryDelay        time.Duration `json:"retry_delay"`
	Timeout           time.Duration `json:"timeout"`
	ChallengeCooldown time.Duration `json:"challenge_cooldown"`

	BypassGeoBlocking bool              `json:"bypass_geo_blocking"`
	Proxy             string            `json:"proxy"`
	UserAgent         string            `json:"user_agent"`
	Cookies           map[string]string `json:"cookies"`

	// DumpDir receives a file per http exchange when set, it is emptied when
	// the client is created.
	DumpDir string `json:"dump_dir"`
}

func DefaultOptions() Options {
	return Options{
		Language:          "en",
		Attempts:          4,
		RetryDelay:        400 * time.Millisecond,
		Timeout:           30 * time.Second,
		ChallengeCooldown: 2 * time.Second,
		UserAgent:         defaultUserAgent,
		Cookies: map[string]string{
			"age_verified":      "1",
			"cookieBannerState": "1",
			"platform":          "pc",
		},
	}
}

// UnmarshalJSON accepts durations written as "400ms" as well as integer
// nanoseconds.
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	aux := struct {
		*plain
		Delay             configutil.Duration `json:"delay"`
		RetryDelay        configutil.Duration `json:"retry_delay"`
		Timeout           configutil.Duration `json:"timeout"`
		ChallengeCooldown configutil.Duration `json:"challenge_cooldown"`
	}{
		plain:             (*plain)(o),
		Delay:             configutil.Duration(o.Delay),
		RetryDelay:        configutil.Duration(o.RetryDelay),
		Timeout:           configutil.Duration(o.Timeout),
		ChallengeCooldown: configutil.Duration(o.ChallengeCooldown),
	}
	err := json5.Unmarshal(data, &aux)
	if err != nil {
		return err
	}
	o.Delay = aux.Delay.Std()
	o.RetryDelay = aux.RetryDelay.Std()
	o.Timeout = aux.Timeout.Std()
	o.ChallengeCooldown = aux.ChallengeCooldown.Std()
	return nil
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Language == "" {
		o.Language = d.Language
	}
	if o.Attempts <= 0 {
		o.Attempts = d.Attempts
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.ChallengeCooldown < 0 {
		o.ChallengeCooldown = 0
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.Cookies == nil {
		o.Cookies = d.Cookies
	}
	return o
}

// LanguageHosts derives the hostname of every supported language from the
// root host. The root hostname serves "en", other languages are served from
// "www.<lang>.<domain>".
func LanguageHosts(root *url.URL) map[string]string {
	domain := strings.TrimPrefix(root.Host, "www.")
	hosts := make(map[string]string, len(Languages))
	for _, lang := range Languages {
		if lang == "en" {
			hosts[lang] = root.Host
			continue
		}
		hosts[lang] = fmt.Sprintf("www.%s.%s", lang, domain)
	}
	return hosts
}

func isSupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
