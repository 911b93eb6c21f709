package rules

import (
	"errors"
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidPattern is returned when a naming pattern is not a valid regular expression
var ErrInvalidPattern = errors.New("invalid pattern")

// DefaultPatternCacheSize is used when NewPatternCache is given a size <= 0
const DefaultPatternCacheSize = 64

// CompilePattern compiles pattern so that it must match a whole name
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}
	return re, nil
}

// MatchesPattern reports whether the whole of name matches re
func MatchesPattern(name string, re *regexp.Regexp) bool {
	return re.MatchString(name)
}

// PatternCache holds compiled naming patterns keyed by their source. It is
// safe for concurrent use.
type PatternCache struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// NewPatternCache creates a cache holding up to size compiled patterns
func NewPatternCache(size int) (*PatternCache, error) {
	if size <= 0 {
		size = DefaultPatternCacheSize
	}
	cache, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern cache: %w", err)
	}
	return &PatternCache{cache: cache}, nil
}

// Compile returns the compiled form of pattern, compiling it on a miss.
// Invalid patterns are not cached.
func (c *PatternCache) Compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := c.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	c.cache.Add(pattern, re)
	return re, nil
}

// Len returns the number of cached patterns
func (c *PatternCache) Len() int {
	return c.cache.Len()
}
