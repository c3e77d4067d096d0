package api

import (
	"encoding/json"
	"regexp"
)

// Kind tags where a Result came from. Synthetic results exist so callers can
// always decode a body without branching on whether the network was up.
type Kind int

const (
	Live Kind = iota
	Synthetic
	Cached
)

func (k Kind) String() string {
	switch k {
	case Synthetic:
		return "synthetic"
	case Cached:
		return "cached"
	default:
		return "live"
	}
}

type Result struct {
	Kind   Kind
	Status int
	Body   []byte
}

func (r *Result) OK() bool { return r.Status >= 200 && r.Status < 300 }

func (r *Result) JSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Shape table: ordered path-pattern to empty-payload mapping. First match
// wins; anything unlisted gets a bare ok.
var shapeRules = []struct {
	re      *regexp.Regexp
	payload string
}{
	{regexp.MustCompile(`/api/wallet/transactions/`), `{"transactions":[]}`},
	{regexp.MustCompile(`/api/wallet/requests/`), `{"requests":[]}`},
	{regexp.MustCompile(`/api/trips/`), `{"trips":[]}`},
	{regexp.MustCompile(`/api/trip/`), `{"trip":null}`},
	{regexp.MustCompile(`/api/drivers/`), `{"driver":null}`},
	{regexp.MustCompile(`/api/users/`), `{"user":null}`},
	{regexp.MustCompile(`/api/presence`), `{"ok":true}`},
}

func shapeFor(path string) []byte {
	for _, rule := range shapeRules {
		if rule.re.MatchString(path) {
			return []byte(rule.payload)
		}
	}
	return []byte(`{"ok":true}`)
}
