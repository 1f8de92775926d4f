package challenge

import (
	"fmt"
	"net/url"
)

// QueryParam is the query string key that carries a challenge token.
const QueryParam = "c"

// Link returns base with the encoded challenge set as the c parameter.
// Other query parameters on base are preserved.
func Link(base string, c Challenge) (string, error) {
	token, err := Encode(c)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base url: %w", err)
	}
	q := u.Query()
	q.Set(QueryParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FromURL extracts and decodes the challenge carried by raw.
// It returns nil when raw has no valid challenge.
func FromURL(raw string) Challenge {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	token := u.Query().Get(QueryParam)
	if token == "" {
		return nil
	}
	return Decode(token)
}
