package frontmatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OrderUnset is the Order of documents that do not declare one; they sort last.
const OrderUnset = math.MaxInt

// Fields is the fixed front-matter schema. Zero strings mean "not set".
type Fields struct {
	Title        string
	Description  string
	Tags         []string
	Section      string
	SectionTitle string
	Order        int
}

// Defaults returns Fields with every value unset.
func Defaults() Fields {
	return Fields{Order: OrderUnset}
}

// FromMap populates Fields from a decoded YAML map. Unknown keys are ignored and
// values of the wrong shape fall back to the default for that field.
func FromMap(m map[string]any) Fields {
	f := Defaults()
	f.Title = stringValue(m["title"])
	f.Description = stringValue(m["description"])
	f.Section = stringValue(m["section"])
	f.SectionTitle = stringValue(firstPresent(m, "sectionTitle", "section_title"))
	f.Tags = stringList(m["tags"])
	if o, ok := intValue(m["order"]); ok {
		f.Order = o
	}
	return f
}

// Parse splits content and decodes its front-matter. Malformed or missing
// front-matter yields Defaults and the whole input as body.
func Parse(content []byte) (Fields, []byte) {
	fm, body, had, err := Split(content)
	if err != nil || !had {
		return Defaults(), content
	}
	m, err := ParseYAML(fm)
	if err != nil {
		return Defaults(), content
	}
	return FromMap(m), body
}

func firstPresent(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case int, int64, float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}
