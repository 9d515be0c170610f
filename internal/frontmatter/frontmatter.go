// Package frontmatter splits YAML front-matter from Markdown bodies and maps it
// onto the fixed set of fields the renderer understands.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	frontmatterStart := len(open)
	rest := content[frontmatterStart:]
	if bytes.HasPrefix(rest, []byte("---"+nl)) {
		return []byte{}, rest[len("---"+nl):], true, nil
	}
	if bytes.Equal(rest, []byte("---")) {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// closing delimiter on the last line without a trailing newline
		if bytes.HasSuffix(rest, []byte(nl+"---")) {
			end := len(rest) - len("---")
			return rest[:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	frontmatterEnd := idx + len(nl)
	return rest[:frontmatterEnd], rest[idx+len(closeSeq):], true, nil
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
