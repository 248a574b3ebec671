// Package apiversion enumerates the dated revisions of the local HTTP API
// wire contract. It is a closed sum type: only the listed values exist, and
// parsing any other string fails.
package apiversion

import (
	"fmt"
)

// ApiVersion is one of the recognized, dated API revisions. The zero value
// is not a valid version; always go through Parse or one of the named
// constants.
type ApiVersion int

const (
	invalid ApiVersion = iota
	V2018_06_28
	V2018_12_30
)

// CURRENT is the largest API version this daemon supports, injected into
// modules via IOTEDGE_APIVERSION.
const CURRENT = V2018_12_30

// ordered holds every recognized version in release-date order; its index
// also gives each version's ordinal for comparison via Before/After.
var ordered = []ApiVersion{V2018_06_28, V2018_12_30}

var rendered = map[ApiVersion]string{
	V2018_06_28: "2018-06-28",
	V2018_12_30: "2018-12-30",
}

var parsed = map[string]ApiVersion{
	"2018-06-28": V2018_06_28,
	"2018-12-30": V2018_12_30,
}

// Parse maps a dashed-date string to its ApiVersion, failing for any string
// not in the enum.
func Parse(s string) (ApiVersion, error) {
	v, ok := parsed[s]
	if !ok {
		return invalid, fmt.Errorf("%w: %q", ErrUnsupportedApiVersion, s)
	}
	return v, nil
}

// ErrUnsupportedApiVersion is returned by Parse for any string outside the
// recognized enum.
var ErrUnsupportedApiVersion = fmt.Errorf("unsupported api version")

// String renders v as its canonical dashed-date form. It panics if v is not
// one of the enum's values, since that can only happen by constructing an
// ApiVersion outside this package.
func (v ApiVersion) String() string {
	s, ok := rendered[v]
	if !ok {
		panic(fmt.Sprintf("apiversion: invalid ApiVersion value %d", int(v)))
	}
	return s
}

func (v ApiVersion) ordinal() int {
	for i, o := range ordered {
		if o == v {
			return i
		}
	}
	panic(fmt.Sprintf("apiversion: invalid ApiVersion value %d", int(v)))
}

// Before reports whether v was released before other.
func (v ApiVersion) Before(other ApiVersion) bool {
	return v.ordinal() < other.ordinal()
}

// After reports whether v was released after other.
func (v ApiVersion) After(other ApiVersion) bool {
	return v.ordinal() > other.ordinal()
}

// All returns every recognized version in release-date order.
func All() []ApiVersion {
	out := make([]ApiVersion, len(ordered))
	copy(out, ordered)
	return out
}
