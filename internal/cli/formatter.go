package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/dupes/internal/dupes"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintJSON outputs the duplicate groups as a JSON array of path arrays.
func PrintJSON(report *dupes.Report, writer io.Writer) error {
	data, err := json.Marshal(report.Paths())
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// PrintTable outputs the duplicate groups in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintTable(report *dupes.Report, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	if len(report.Groups) == 0 {
		fmt.Fprintln(w, "\nNo duplicates found.\t\t")
	}

	for i, g := range report.Groups {
		fmt.Fprintf(w, "\n%d) %d files of %s\t%s reclaimable\n",
			i+1, len(g.Paths), humanize.IBytes(uint64(g.Size)), humanize.IBytes(uint64(g.Reclaimable())))

		for _, path := range g.Paths {
			fmt.Fprintf(w, "  '%s'\t\n", path)
		}
	}

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Root:\t%s\n", report.Root)
	fmt.Fprintf(w, "Total files:\t%d\n", report.Files)
	fmt.Fprintf(w, "Same-size candidates:\t%d\n", report.Candidates)
	fmt.Fprintf(w, "Duplicate groups:\t%d\n", len(report.Groups))
	fmt.Fprintf(w, "Redundant copies:\t%d\n", report.Duplicates())
	fmt.Fprintf(w, "Reclaimable:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(report.Reclaimable())), report.Reclaimable())

	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "Skipped (unreadable):\t%d\n", len(report.Skipped))
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)

	return w.Flush()
}
