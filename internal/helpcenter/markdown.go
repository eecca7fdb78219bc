package helpcenter

import (
	"bytes"
	"fmt"
	"maps"
)

const (
	bodyFormatHTML     = "html"
	bodyFormatMarkdown = "markdown"
)

func wantsMarkdown(args map[string]any) bool {
	return stringArg(args, "body_format") == bodyFormatMarkdown
}

func (s *Service) renderMarkdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// renderTranslations returns a copy of translations with every string
// "body" rendered to HTML. The caller's maps are not modified.
func (s *Service) renderTranslations(translations map[string]any) (map[string]any, error) {
	if translations == nil {
		return nil, nil
	}
	out := make(map[string]any, len(translations))
	for locale, v := range translations {
		entry, ok := v.(map[string]any)
		body, isString := entry["body"].(string)
		if !ok || !isString || body == "" {
			out[locale] = v
			continue
		}
		html, err := s.renderMarkdown(body)
		if err != nil {
			return nil, fmt.Errorf("translation %s: %w", locale, err)
		}
		rendered := maps.Clone(entry)
		rendered["body"] = html
		out[locale] = rendered
	}
	return out, nil
}
