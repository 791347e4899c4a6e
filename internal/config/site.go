package config

import (
	"maps"
	"strings"
	"time"
)

// SiteConfig holds settings applied to requests for one host.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Reject tokens are appended to the --reject list when mirroring this host.
	Reject []string `yaml:"reject,omitempty"`

	// Exclude prefixes are appended to the --exclude-directories list.
	Exclude []string `yaml:"exclude,omitempty"`

	// Wait overrides the delay between requests, e.g. "500ms".
	Wait time.Duration `yaml:"wait,omitempty"`
}

// File represents the structure of the .gowget configuration file.
type File struct {
	// Sites maps host names (without scheme or port) to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host merged over the defaults.
// Host names are compared case-insensitively.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	site, ok := cf.Sites[host]
	if !ok {
		for k, v := range cf.Sites {
			if strings.EqualFold(k, host) {
				site, ok = v, true
				break
			}
		}
	}
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.Wait != 0 {
		result.Wait = site.Wait
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	result.Reject = append(append([]string(nil), result.Reject...), site.Reject...)
	result.Exclude = append(append([]string(nil), result.Exclude...), site.Exclude...)

	return result
}
