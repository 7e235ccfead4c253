package chain

import (
	"path"
	"strings"
)

// Default name patterns. A leading or trailing '*' matches any run of characters.
var (
	DefaultInclude = []string{"*Impl", "*Service*", "*Adapter*", "*Api*", "*Repository*", "*Manager*", "*Controller*"}
	DefaultExclude = []string{"*Util", "*Utils", "*Helper*"}
	// DefaultPlatform lists qualified-name prefixes that are never followed.
	DefaultPlatform = []string{"java.", "javax.", "jdk.", "sun."}
)

// Verdict is the outcome of classifying an owner type name.
type Verdict int

const (
	Skip Verdict = iota
	Include
	Exclude
)

func (v Verdict) String() string {
	switch v {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "skip"
	}
}

// Classifier decides whether calls into a type are part of the tree.
type Classifier struct {
	include  []string
	exclude  []string
	platform []string
}

// NewClassifier builds a classifier. Nil slices fall back to the defaults;
// empty non-nil slices disable the corresponding rule.
func NewClassifier(include, exclude, platform []string) *Classifier {
	if include == nil {
		include = DefaultInclude
	}
	if exclude == nil {
		exclude = DefaultExclude
	}
	if platform == nil {
		platform = DefaultPlatform
	}
	return &Classifier{include: include, exclude: exclude, platform: platform}
}

// DefaultClassifier uses the default include, exclude and platform rules.
func DefaultClassifier() *Classifier {
	return NewClassifier(nil, nil, nil)
}

// Classify matches a simple type name. Exclusion always wins.
func (c *Classifier) Classify(name string) Verdict {
	if name == "" {
		return Skip
	}
	if matchAny(c.exclude, name) {
		return Exclude
	}
	if matchAny(c.include, name) {
		return Include
	}
	return Skip
}

// IsPlatformName reports whether a qualified name lies under a platform prefix.
func (c *Classifier) IsPlatformName(qualified string) bool {
	for _, p := range c.platform {
		if p != "" && strings.HasPrefix(qualified, p) {
			return true
		}
	}
	return false
}

// IsExternalName reports whether name ends with "api", ignoring case.
func IsExternalName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), "api")
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if matchPattern(p, name) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, name string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}
	ok, err := path.Match(pattern, name)
	if err != nil {
		return pattern == name
	}
	return ok
}
