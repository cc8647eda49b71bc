package ingest

import (
	"errors"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// SelectNames evaluates a JSONPath selector against the generic JSON tree of
// a module description and returns the definition names it picks. Matches
// must be strings or objects with a string "name" field.
func SelectNames(doc any, selector string) ([]string, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	results := x.Get(doc)
	names := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		name, err := matchName(r)
		if err != nil {
			return nil, fmt.Errorf("jsonpath '%s': %w", selector, err)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func matchName(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return name, nil
		}
		return "", errors.New("matched an object without a name")
	default:
		return "", fmt.Errorf("matched a %T, want a definition name", v)
	}
}
