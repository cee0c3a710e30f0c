package generator

import (
	"fmt"
	"regexp"
)

// resourceFilter compiles include and exclude patterns into a resource predicate.
// It returns nil when neither list has patterns.
func resourceFilter(include, exclude []string) (func(id string) bool, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	inc, err := compilePatterns(include)
	if err != nil {
		return nil, fmt.Errorf("include resources: %w", err)
	}
	exc, err := compilePatterns(exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude resources: %w", err)
	}
	return func(id string) bool {
		return shouldIncludeResource(id, inc, exc)
	}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// shouldIncludeResource reports whether a resource id passes the filters.
// Exclusion wins over inclusion; an empty include list admits everything.
func shouldIncludeResource(id string, include, exclude []*regexp.Regexp) bool {
	for _, re := range exclude {
		if re.MatchString(id) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, re := range include {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}
