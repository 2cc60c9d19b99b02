package table

import (
	"fmt"
	"strconv"
	"strings"
)

// DerivedColumn is the column created when variant identifiers are
// constructed from separate chrom/pos/ref/alt columns.
const DerivedColumn = "__variant_id__"

// ColumnSpec names where variant identifiers come from: either a
// single designated Column, or the four locus columns.
type ColumnSpec struct {
	Column string
	Chrom  string
	Pos    string
	Ref    string
	Alt    string
}

func (s ColumnSpec) locusComplete() bool {
	return s.Chrom != "" && s.Pos != "" && s.Ref != "" && s.Alt != ""
}

// ResolveVariantColumn returns the name of the column holding one raw
// variant identifier per row, building DerivedColumn from the locus
// columns when no designated column is given. Missing columns are
// configuration errors.
func (t *Table) ResolveVariantColumn(spec ColumnSpec) (string, error) {
	if spec.Column != "" {
		if !t.HasColumn(spec.Column) {
			return "", fmt.Errorf("column %q not found in file", spec.Column)
		}
		return spec.Column, nil
	}

	if !spec.locusComplete() {
		return "", fmt.Errorf("either a variant ID column or all of the chrom, pos, ref and alt columns must be specified")
	}
	for _, col := range []string{spec.Chrom, spec.Pos, spec.Ref, spec.Alt} {
		if !t.HasColumn(col) {
			return "", fmt.Errorf("column %q not found in file", col)
		}
	}

	for row := range t.rows {
		chrom, _ := t.Get(row, spec.Chrom)
		pos, _ := t.Get(row, spec.Pos)
		ref, _ := t.Get(row, spec.Ref)
		alt, _ := t.Get(row, spec.Alt)
		t.Set(row, DerivedColumn, constructVariantID(chrom, pos, ref, alt))
	}
	return DerivedColumn, nil
}

// constructVariantID builds CHROM_POS_REF_ALT from separate cells.
// Positions that spreadsheets stored as floats ("7177679.0") are
// coerced back to integers; anything unparseable is passed through
// for the normalizer to reject.
func constructVariantID(chrom, pos, ref, alt string) string {
	chrom = strings.TrimSpace(chrom)
	if len(chrom) >= 3 && strings.EqualFold(chrom[:3], "chr") {
		chrom = chrom[3:]
	}

	pos = strings.TrimSpace(pos)
	if f, err := strconv.ParseFloat(pos, 64); err == nil {
		pos = strconv.FormatInt(int64(f), 10)
	}

	return fmt.Sprintf("%s_%s_%s_%s", chrom, pos, strings.TrimSpace(ref), strings.TrimSpace(alt))
}
