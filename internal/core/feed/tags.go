package feed

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is the canonical tag set of a post: trimmed, non-empty, first
// occurrence wins. Upstream rows carry tags as native arrays, JSON-encoded
// array strings or comma-separated strings; all of them decode to Tags.
type Tags []string

// NormalizeTags converts any supported tag representation into Tags
func NormalizeTags(v any) (Tags, error) {
	switch t := v.(type) {
	case nil:
		return Tags{}, nil
	case Tags:
		return canonical(t), nil
	case []string:
		return canonical(t), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("tag %v is not a string", item)
			}
			out = append(out, s)
		}
		return canonical(out), nil
	case string:
		return parseTagString(t)
	case []byte:
		return parseTagString(string(t))
	}
	return nil, fmt.Errorf("unsupported tag representation %T", v)
}

func parseTagString(s string) (Tags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tags{}, nil
	}
	if strings.HasPrefix(s, "[") {
		var list []string
		if err := json.Unmarshal([]byte(s), &list); err != nil {
			return nil, fmt.Errorf("invalid tag array %q: %w", s, err)
		}
		return canonical(list), nil
	}
	// Postgres array literal
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"`)
	}
	return canonical(parts), nil
}

func canonical(in []string) Tags {
	seen := make(map[string]bool, len(in))
	out := make(Tags, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// UnmarshalJSON accepts an array, a JSON-encoded array string or a comma-separated string
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tags, err := NormalizeTags(raw)
	if err != nil {
		return err
	}
	*t = tags
	return nil
}

// Has reports whether the set contains tag
func (t Tags) Has(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}
