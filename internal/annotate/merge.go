// Package annotate applies AGVD query results back onto the variant
// table: result matching, concurrent batch dispatch and the run
// summary.
package annotate

import (
	"strconv"

	"github.com/h3abionet/agvd-cli/internal/agvd"
	"github.com/h3abionet/agvd-cli/internal/batch"
)

// Columns appended to the annotated table.
const (
	ColThreshold  = "THRESHOLD"
	ColStatus     = "AGVDCUTOFF"
	ColAfricanMAF = "African_MAF"
)

// Status values written to the AGVDCUTOFF column. Any other value is
// a status string reported by the service.
const (
	StatusUnknown = "UNKNOWN"
	StatusNoMatch = "NO MATCH"
	StatusError   = "ERROR"
	StatusInvalid = "INVALID"
)

// ClusterColumn names the per-cluster allele frequency column.
func ClusterColumn(name string) string {
	return name + "_MAF"
}

// Cell is one column write.
type Cell struct {
	Col string
	Val string
}

// RowUpdate is the ordered list of cell writes destined for one table
// row. Order is preserved so appended columns land deterministically.
type RowUpdate struct {
	Row   int
	Cells []Cell
}

// BatchOutcome is the completed result of one dispatched batch: the
// row updates to apply plus success/failure tallies. Err is set when
// the remote call failed, in which case every row carries an ERROR
// update.
type BatchOutcome struct {
	Batch     batch.Batch
	Updates   []RowUpdate
	Successes int
	Failures  int
	Err       error
}

// mergeResults builds the row updates for a batch whose remote call
// succeeded. Identifiers without a matching record are written as
// NO MATCH; that is a valid negative result and counts as a success.
func mergeResults(b batch.Batch, results []agvd.Result) BatchOutcome {
	out := BatchOutcome{Batch: b, Updates: make([]RowUpdate, 0, b.Len())}
	for i, id := range b.IDs {
		info := lookupResult(id, results)
		cells := []Cell{
			{ColThreshold, formatFloatPtr(info.usedThreshold)},
			{ColStatus, info.status},
			{ColAfricanMAF, formatFloatPtr(info.mafThreshold)},
		}
		for _, cl := range info.clusters {
			cells = append(cells, Cell{ClusterColumn(cl.Name), formatFloat(cl.MAF)})
		}
		out.Updates = append(out.Updates, RowUpdate{Row: b.Rows[i], Cells: cells})
		out.Successes++
	}
	return out
}

// errorOutcome marks every row of a failed batch as ERROR with the
// requested threshold and no allele frequency.
func errorOutcome(b batch.Batch, threshold float64, err error) BatchOutcome {
	out := BatchOutcome{Batch: b, Updates: make([]RowUpdate, 0, b.Len()), Err: err}
	for _, row := range b.Rows {
		out.Updates = append(out.Updates, RowUpdate{
			Row: row,
			Cells: []Cell{
				{ColThreshold, formatFloat(threshold)},
				{ColStatus, StatusError},
				{ColAfricanMAF, ""},
			},
		})
		out.Failures++
	}
	return out
}

type resultInfo struct {
	mafThreshold  *float64
	status        string
	usedThreshold *float64
	clusters      []agvd.Cluster
}

// lookupResult finds the record matching an identifier by exact
// equality against either its variantID or rsID field.
func lookupResult(id string, results []agvd.Result) resultInfo {
	for _, r := range results {
		if r.VariantID == id || (r.RSID != "" && r.RSID == id) {
			status := r.Status
			if status == "" {
				status = StatusUnknown
			}
			return resultInfo{
				mafThreshold:  r.MAFThreshold,
				status:        status,
				usedThreshold: r.UsedThreshold,
				clusters:      r.Clusters,
			}
		}
	}
	return resultInfo{status: StatusNoMatch}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
