// Package negotiate serializes handler return values according to the
// request's Accept header.
package negotiate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/strataweb/strata/internal/domain"
)

// Media types the default negotiator can produce.
const (
	MediaJSON  = "application/json"
	MediaYAML  = "application/yaml"
	MediaPlain = "text/plain"
)

// Negotiator picks a representation for a value from the client's Accept
// header. JSON is the default for wildcard or absent preferences; plain
// text is only offered for string and []byte values.
type Negotiator struct{}

// New creates the default negotiator.
func New() *Negotiator {
	return &Negotiator{}
}

// Negotiate returns the serialized body and its media type. When no
// acceptable representation exists it returns a not-acceptable error the
// translator maps to a 406.
func (n *Negotiator) Negotiate(accept string, v any) ([]byte, string, error) {
	for _, mt := range preferences(accept) {
		switch {
		case mt == MediaJSON || mt == "application/*" || mt == "*/*":
			body, err := json.Marshal(v)
			if err != nil {
				return nil, "", fmt.Errorf("encode json: %w", err)
			}
			return body, MediaJSON, nil

		case mt == MediaYAML || mt == "application/x-yaml" || mt == "text/yaml":
			body, err := yaml.Marshal(v)
			if err != nil {
				return nil, "", fmt.Errorf("encode yaml: %w", err)
			}
			return body, MediaYAML, nil

		case mt == MediaPlain || mt == "text/*":
			switch s := v.(type) {
			case string:
				return []byte(s), MediaPlain, nil
			case []byte:
				return s, MediaPlain, nil
			}
			// Structured values fall through to the next preference.
		}
	}

	return nil, "", domain.NewError(domain.KindNotAcceptable,
		fmt.Sprintf("no acceptable representation for %q", accept))
}

// preferences parses an Accept header into media types ordered by q-value,
// preserving header order among equal weights.
func preferences(accept string) []string {
	if strings.TrimSpace(accept) == "" {
		return []string{"*/*"}
	}

	type pref struct {
		mediaType string
		q         float64
	}

	var prefs []pref
	for _, part := range strings.Split(accept, ",") {
		fields := strings.Split(part, ";")
		mt := strings.ToLower(strings.TrimSpace(fields[0]))
		if mt == "" {
			continue
		}
		q := 1.0
		for _, f := range fields[1:] {
			f = strings.TrimSpace(f)
			if strings.HasPrefix(f, "q=") {
				if parsed, err := strconv.ParseFloat(f[2:], 64); err == nil {
					q = parsed
				}
			}
		}
		if q <= 0 {
			continue
		}
		prefs = append(prefs, pref{mediaType: mt, q: q})
	}

	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].q > prefs[j].q })

	out := make([]string, len(prefs))
	for i, p := range prefs {
		out[i] = p.mediaType
	}
	return out
}
