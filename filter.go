package logpipe

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// resolvedCacheSize bounds the number of category names whose minimum level
// is memoised. Categories are normally a small fixed set.
const resolvedCacheSize = 1024

// FilterRules configures a LevelFilter.
type FilterRules struct {
	// Default applies when no category or namespace rule matches.
	Default Level
	// Categories holds exact, case-sensitive category overrides.
	Categories map[string]Level
	// Namespaces holds case-insensitive prefix overrides.
	Namespaces map[string]Level
}

type namespaceRule struct {
	prefix string // lower-cased
	level  Level
}

// LevelFilter resolves the minimum level of a category. Precedence: exact
// category rule, then the longest matching namespace prefix, then the
// default. A LevelFilter is immutable and safe for concurrent use.
type LevelFilter struct {
	defaultLevel Level
	categories   map[string]Level
	namespaces   []namespaceRule // longest prefix first
	resolved     *lru.Cache[string, Level]
}

// NewLevelFilter builds a filter from rules. The rule maps are copied.
func NewLevelFilter(rules FilterRules) *LevelFilter {
	f := &LevelFilter{
		defaultLevel: rules.Default,
		categories:   make(map[string]Level, len(rules.Categories)),
		namespaces:   make([]namespaceRule, 0, len(rules.Namespaces)),
	}
	for name, lvl := range rules.Categories {
		f.categories[name] = lvl
	}
	for prefix, lvl := range rules.Namespaces {
		f.namespaces = append(f.namespaces, namespaceRule{prefix: strings.ToLower(prefix), level: lvl})
	}
	sort.SliceStable(f.namespaces, func(i, j int) bool {
		if len(f.namespaces[i].prefix) != len(f.namespaces[j].prefix) {
			return len(f.namespaces[i].prefix) > len(f.namespaces[j].prefix)
		}
		return f.namespaces[i].prefix < f.namespaces[j].prefix
	})

	// lru.New only fails for a non-positive size.
	f.resolved, _ = lru.New[string, Level](resolvedCacheSize)
	return f
}

// DefaultLevel returns the level used when nothing matches.
func (f *LevelFilter) DefaultLevel() Level {
	return f.defaultLevel
}

// IsEnabled reports whether an entry of level in category passes the filter.
func (f *LevelFilter) IsEnabled(category string, level Level) bool {
	if level >= LevelNone {
		return false
	}
	return level >= f.MinimumLevel(category)
}

// MinimumLevel returns the resolved minimum level for category.
func (f *LevelFilter) MinimumLevel(category string) Level {
	if lvl, ok := f.resolved.Get(category); ok {
		return lvl
	}
	lvl := f.resolve(category)
	f.resolved.Add(category, lvl)
	return lvl
}

func (f *LevelFilter) resolve(category string) Level {
	if lvl, ok := f.categories[category]; ok {
		return lvl
	}
	if len(f.namespaces) > 0 {
		lower := strings.ToLower(category)
		for _, rule := range f.namespaces {
			if strings.HasPrefix(lower, rule.prefix) {
				return rule.level
			}
		}
	}
	return f.defaultLevel
}
