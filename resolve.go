package hfsync

import (
	"net/url"
	"strings"
)

// resolveStrategy attempts to derive a canonical repository id from a row.
// Strategies are pure functions of the row; no network or filesystem access.
type resolveStrategy struct {
	// name identifies the strategy in diagnostics.
	name string

	// apply returns the canonical id and true on success.
	apply func(Row) (string, bool)
}

// resolver turns input rows into canonical "org/name" repository ids by
// trying an ordered list of strategies. The order is part of the contract:
// explicit id fields win over URLs, URLs win over free-text names.
type resolver struct {
	strategies []resolveStrategy
}

// newResolver builds the standard strategy chain.
func newResolver() *resolver {
	return &resolver{
		strategies: []resolveStrategy{
			{name: "explicit-id", apply: resolveExplicitID},
			{name: "registry-url", apply: resolveURL},
			{name: "model-name", apply: resolveModelName},
		},
	}
}

// resolve returns the canonical id for the row, or ErrUnresolvable when no
// strategy succeeds.
func (r *resolver) resolve(row Row) (string, error) {
	for _, s := range r.strategies {
		if id, ok := s.apply(row); ok {
			return id, nil
		}
	}
	return "", ErrUnresolvable
}

// ResolveRow resolves one row through the standard strategy chain. Useful
// for tooling that wants resolution without constructing a Syncer.
func ResolveRow(row Row) (string, error) {
	return newResolver().resolve(row)
}

// sanitizeRepoID trims whitespace and stray slashes from a candidate id.
func sanitizeRepoID(id string) string {
	return strings.Trim(strings.TrimSpace(id), "/")
}

// resolveExplicitID accepts the repo_id and model_id fields when they
// already contain a separator.
func resolveExplicitID(row Row) (string, bool) {
	for _, key := range []string{"repo_id", "model_id"} {
		if v, ok := row[key]; ok && strings.Contains(v, "/") {
			if id := sanitizeRepoID(v); id != "" {
				return id, true
			}
		}
	}
	return "", false
}

// resolveURL parses the url field, stripping scheme, host, query and
// fragment, and keeps at most the first two path segments.
// Accepts forms like:
//
//	https://huggingface.co/org/repo
//	https://huggingface.co/org/repo/tree/main
//	https://huggingface.co/org/repo?some=param
func resolveURL(row Row) (string, bool) {
	raw, ok := row["url"]
	if !ok || raw == "" {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segs) < 2 || segs[0] == "" || segs[1] == "" {
		return "", false
	}
	return segs[0] + "/" + segs[1], true
}

// resolveModelName accepts a free-text model_name only when it already
// looks like "org/name".
func resolveModelName(row Row) (string, bool) {
	v, ok := row["model_name"]
	if !ok || !strings.Contains(v, "/") {
		return "", false
	}
	id := sanitizeRepoID(v)
	if id == "" || !strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
