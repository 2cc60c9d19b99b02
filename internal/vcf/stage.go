// Package vcf stages VCF input into the single-column CSV consumed by
// the tabular annotation path.
package vcf

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/brentp/vcfgo"
	"github.com/brentp/xopen"
)

// StagedColumn is the header of the staging CSV.
const StagedColumn = "variant_id"

// Stage reads a VCF (plain or gzipped) and writes one canonical
// CHROM_POS_REF_ALT token per record to csvPath. Records with no
// alternate allele are skipped. Returns the number of staged records.
// The staging file is temporary; callers remove it after processing.
func Stage(vcfPath, csvPath string) (int, error) {
	in, err := xopen.Ropen(vcfPath)
	if err != nil {
		return 0, fmt.Errorf("open vcf %s: %w", vcfPath, err)
	}
	defer in.Close()

	rdr, err := vcfgo.NewReader(in, true)
	if err != nil {
		return 0, fmt.Errorf("parse vcf header: %w", err)
	}

	out, err := os.Create(csvPath)
	if err != nil {
		return 0, fmt.Errorf("create staging file: %w", err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{StagedColumn}); err != nil {
		return 0, fmt.Errorf("write staging header: %w", err)
	}

	count := 0
	for {
		rec := rdr.Read()
		if rec == nil {
			break
		}
		if len(rec.Alternate) == 0 {
			continue
		}
		chrom := strings.TrimPrefix(strings.TrimPrefix(rec.Chromosome, "chr"), "CHR")
		id := fmt.Sprintf("%s_%d_%s_%s", chrom, rec.Pos, rec.Reference, rec.Alternate[0])
		if err := w.Write([]string{id}); err != nil {
			return 0, fmt.Errorf("write staging row: %w", err)
		}
		count++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flush staging file: %w", err)
	}
	return count, nil
}
