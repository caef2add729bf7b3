// Package universe holds the index constituent lists and ticker normalization.
package universe

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"AlphaFusion/internal/domain/models"
	domsvc "AlphaFusion/internal/domain/service"
)

const (
	nseSuffix = ".NS"
	bseSuffix = ".BO"
)

// Universe is an immutable set of named ticker lists.
type Universe struct {
	indices map[string][]string
	nse     map[string]struct{}
	bseOnly map[string]struct{}
}

// Default returns the built-in NSE and BSE index lists.
func Default() *Universe {
	return New(map[string][]string{
		Nifty50:     nifty50,
		NiftyNext50: niftyNext50,
		Sensex30:    sensex30,
	})
}

// New builds a universe from the given lists. Bare names listed as .NS
// tickers resolve to the NSE suffix, names listed only as .BO tickers to the
// BSE suffix.
func New(indices map[string][]string) *Universe {
	u := &Universe{
		indices: make(map[string][]string, len(indices)),
		nse:     make(map[string]struct{}),
		bseOnly: make(map[string]struct{}),
	}
	nse := u.nse
	bse := make(map[string]struct{})
	for name, list := range indices {
		u.indices[strings.ToUpper(name)] = append([]string(nil), list...)
		for _, t := range list {
			switch {
			case strings.HasSuffix(t, nseSuffix):
				nse[strings.TrimSuffix(t, nseSuffix)] = struct{}{}
			case strings.HasSuffix(t, bseSuffix):
				bse[strings.TrimSuffix(t, bseSuffix)] = struct{}{}
			}
		}
	}
	for base := range bse {
		if _, ok := nse[base]; !ok {
			u.bseOnly[base] = struct{}{}
		}
	}
	return u
}

// Resolve returns a copy of the tickers of an index.
func (u *Universe) Resolve(name string) ([]string, error) {
	list, ok := u.indices[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, models.ErrUnknownIndex)
	}
	return append([]string(nil), list...), nil
}

// Names returns the index names in sorted order.
func (u *Universe) Names() []string {
	out := make([]string, 0, len(u.indices))
	for k := range u.indices {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Entries describes every index with its size.
func (u *Universe) Entries() []models.UniverseEntry {
	names := u.Names()
	out := make([]models.UniverseEntry, 0, len(names))
	for _, n := range names {
		out = append(out, models.UniverseEntry{Name: n, Size: len(u.indices[n]), Symbols: u.indices[n]})
	}
	return out
}

// NormalizeTicker upper-cases and trims input and appends the exchange suffix
// to bare names found in a list: .NS for NSE constituents, .BO for BSE-only
// ones. Unlisted names and inputs with a suffix or digits are returned as is.
func (u *Universe) NormalizeTicker(input string) string {
	t := strings.ToUpper(strings.TrimSpace(input))
	if t == "" || strings.Contains(t, ".") || strings.HasPrefix(t, "^") {
		return t
	}
	for _, r := range t {
		if unicode.IsDigit(r) {
			return t
		}
	}
	if _, ok := u.nse[t]; ok {
		return t + nseSuffix
	}
	if _, ok := u.bseOnly[t]; ok {
		return t + bseSuffix
	}
	return t
}

var _ domsvc.Universe = (*Universe)(nil)
