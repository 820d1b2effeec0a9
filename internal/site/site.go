package site

import (
	"fmt"
	"net/url"
	"strings"

	"NewsRelay/internal/domain"
)

// CategoryRule maps URLs containing every substring of Contains to Category.
type CategoryRule struct {
	Category string
	Contains []string
}

// Profile captures everything site specific: where links live, which paths
// are articles, how pages are laid out and how URLs map to categories.
type Profile struct {
	Name            string
	Origin          string
	Seeds           []domain.CategorySeed
	LinkSelectors   []string
	TitleSelectors  []string
	BodySelectors   []string
	DeniedPatterns  []string
	AllowedPatterns []string
	CategoryRules   []CategoryRule
	DefaultCategory string
}

// IsValidArticleURL reports whether raw belongs to the site origin, avoids
// every denied pattern and matches at least one allowed content path.
func (p Profile) IsValidArticleURL(raw string) bool {
	if raw == "" || !p.SameOrigin(raw) {
		return false
	}

	lower := strings.ToLower(raw)
	for _, pattern := range p.DeniedPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	for _, pattern := range p.AllowedPatterns {
		if strings.Contains(raw, pattern) {
			return true
		}
	}
	return false
}

// SameOrigin compares scheme and host of raw with the profile origin.
func (p Profile) SameOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme+"://"+u.Host, strings.TrimSuffix(p.Origin, "/"))
}

// Categorize classifies a URL (or a bare path) by the first matching rule.
func (p Profile) Categorize(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}

	for _, rule := range p.CategoryRules {
		if matchesAll(path, rule.Contains) {
			return rule.Category
		}
	}

	if p.DefaultCategory == "" {
		return "general"
	}
	return p.DefaultCategory
}

func matchesAll(path string, parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	for _, part := range parts {
		if !strings.Contains(path, part) {
			return false
		}
	}
	return true
}

// Registry keeps a mapping from profile names to their definitions.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a registry preloaded with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: map[string]Profile{}}
	r.Register(BBC())
	return r
}

// Register adds or replaces a profile.
func (r *Registry) Register(profile Profile) {
	if r.profiles == nil {
		r.profiles = map[string]Profile{}
	}
	r.profiles[profile.Name] = profile
}

// Resolve returns a profile by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Profile, error) {
	if profile, ok := r.profiles[name]; ok {
		return profile, nil
	}
	return Profile{}, fmt.Errorf("site profile %s is not registered", name)
}
