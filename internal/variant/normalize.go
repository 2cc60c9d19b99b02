// Package variant provides variant identifier classification and
// normalization.
package variant

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the type of a normalized variant identifier.
type Kind string

const (
	// RSID is a dbSNP reference SNP identifier, e.g. "rs116600158".
	RSID Kind = "rsID"
	// VariantID is a canonical locus identifier, e.g. "19_7177679_C_T".
	VariantID Kind = "variantID"
)

// Identifier is a normalized variant identifier ready for submission.
type Identifier struct {
	Value string
	Kind  Kind
}

// FormatError reports a token that matched none of the recognized
// identifier formats.
type FormatError struct {
	Raw string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognized variant ID format: %q", e.Raw)
}

var (
	reRSID = regexp.MustCompile(`(?i)^rs\d+$`)

	// Locus patterns, tried in priority order. First match wins.
	// e.g. chr19:7177679:C>T, 19_7177679_C_T, 19-7177679-C-T
	reLocus = []*regexp.Regexp{
		regexp.MustCompile(`^(\w+)[_:>|-](\d+)[_:>|-](\w+)[_:>|-](\w+)`),
		regexp.MustCompile(`^(\w+):(\d+):(\w+):(\w+)`),
		regexp.MustCompile(`^(\w+):(\d+):(\w+)>(\w+)`),
	}
)

// Normalize classifies a raw token and rewrites it into its canonical
// form. rsIDs are kept verbatim; locus tokens are rewritten to the
// upper-cased CHROM_POS_REF_ALT form after stripping any "chr" prefix.
// Returns a *FormatError when the token matches no known format.
func Normalize(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)

	if reRSID.MatchString(raw) {
		return Identifier{Value: raw, Kind: RSID}, nil
	}

	token := strings.TrimPrefix(strings.ToLower(raw), "chr")
	for _, re := range reLocus {
		m := re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		value := strings.ToUpper(fmt.Sprintf("%s_%s_%s_%s", m[1], m[2], m[3], m[4]))
		return Identifier{Value: value, Kind: VariantID}, nil
	}

	return Identifier{}, &FormatError{Raw: raw}
}
