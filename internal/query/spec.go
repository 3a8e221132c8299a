package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// AppliedFilter is one allow-listed filter key with its raw argument.
type AppliedFilter struct {
	Key   string
	Value string
}

// Spec is the validated intermediate representation of a list request.
type Spec struct {
	Filters  []AppliedFilter
	Sorts    []Order
	Includes []string
	Page     int
	PageSize int
}

// HasInclude reports whether the given include path was requested and
// allowed. A nested path implies its prefixes: requesting
// "roles.permissions" loads roles too, so "roles" counts as included.
// Projectors use this to decide relation visibility.
func (s Spec) HasInclude(path string) bool {
	for _, p := range s.Includes {
		if p == path || strings.HasPrefix(p, path+".") {
			return true
		}
	}
	return false
}

// Parse translates raw query parameters into a Spec against the entity's
// allow-list. Unknown filter/sort/include keys are dropped without error;
// malformed pagination values fall back to defaults.
func Parse(values url.Values, cfg Config) Spec {
	spec := Spec{
		Page:     pageNumber(values),
		PageSize: pageSize(values, cfg),
	}

	// Filter keys arrive as filter[<key>]=<value>. Collected keys are
	// sorted so the applied order is stable across requests.
	var filterKeys []string
	for raw := range values {
		key, ok := filterKey(raw)
		if !ok {
			continue
		}
		if _, allowed := cfg.Filters[key]; allowed {
			filterKeys = append(filterKeys, key)
		}
	}
	sort.Strings(filterKeys)
	for _, key := range filterKeys {
		spec.Filters = append(spec.Filters, AppliedFilter{
			Key:   key,
			Value: values.Get("filter[" + key + "]"),
		})
	}

	for _, entry := range splitList(values.Get("sort")) {
		desc := strings.HasPrefix(entry, "-")
		key := strings.TrimPrefix(entry, "-")
		if _, allowed := cfg.Sorts[key]; !allowed {
			continue
		}
		spec.Sorts = append(spec.Sorts, Order{Key: key, Desc: desc})
	}

	for _, path := range splitList(values.Get("include")) {
		if includeAllowed(path, cfg) && !spec.HasInclude(path) {
			spec.Includes = append(spec.Includes, path)
		}
	}

	return spec
}

// includeAllowed honors a dotted path only when every prefix is itself
// allow-listed, so a nested relation cannot leak through a partial path.
func includeAllowed(path string, cfg Config) bool {
	if path == "" {
		return false
	}
	segments := strings.Split(path, ".")
	for i := range segments {
		prefix := strings.Join(segments[:i+1], ".")
		if _, ok := cfg.Includes[prefix]; !ok {
			return false
		}
	}
	return true
}

func filterKey(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "filter[") || !strings.HasSuffix(raw, "]") {
		return "", false
	}
	key := raw[len("filter[") : len(raw)-1]
	return key, key != ""
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

func pageNumber(values url.Values) int {
	raw := values.Get("page[number]")
	if raw == "" {
		raw = values.Get("page")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func pageSize(values url.Values, cfg Config) int {
	raw := values.Get("page[size]")
	if raw == "" {
		raw = values.Get("per_page")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return cfg.defaultSize()
	}
	if n > cfg.maxSize() {
		return cfg.maxSize()
	}
	return n
}
