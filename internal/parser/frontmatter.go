package parser

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/starford/ankigen/internal/apperr"
)

// header is the optional YAML front matter accepted on poem and sequence input.
type header struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// splitFrontmatter separates YAML front matter (between leading --- delimiters)
// from the body. Without front matter the whole input is body and ok is false.
func splitFrontmatter(data []byte) (h header, body []byte, ok bool, err error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return header{}, data, false, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return header{}, data, false, nil
	}

	block := rest[:idx]
	body = bytes.TrimLeft(rest[idx+1+len(delim):], "\n\r")

	if err := yaml.Unmarshal(block, &h); err != nil {
		return header{}, nil, false, apperr.Invalid("front matter: %v", err)
	}
	return h, body, true, nil
}
