package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vvka-141/tpchload/internal/tui"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// Renderer writes a RunReport for humans.
type Renderer struct {
	w      io.Writer
	styled bool
}

// NewRenderer creates a Renderer writing to w. Styling adds ANSI colors and
// should only be enabled for terminals.
func NewRenderer(w io.Writer, styled bool) *Renderer {
	return &Renderer{w: w, styled: styled}
}

// Render writes every stage that ran, in pipeline order, then the overall status.
func (r *Renderer) Render(rep *tpch.RunReport) {
	fmt.Fprintf(r.w, "%s\n", tui.Heading("TPC-H load "+shortID(rep), r.styled))
	if rep.Target != "" {
		fmt.Fprintf(r.w, "Target:   %s\n", rep.Target)
	}
	if rep.Strategy != "" {
		fmt.Fprintf(r.w, "Strategy: %s\n", rep.Strategy)
	}
	fmt.Fprintln(r.w)

	if rep.Reset != nil {
		r.renderReset(rep.Reset)
	}
	if rep.Schema != nil {
		r.renderSchema(rep.Schema)
	}
	if len(rep.Loads) > 0 {
		r.renderLoads(rep.Loads)
	}
	if len(rep.Queries) > 0 {
		r.renderQueries(rep.Queries)
	}
	r.renderStatus(rep)
}

func (r *Renderer) renderReset(res *tpch.ResetResult) {
	counts := map[tpch.DropOutcome]int{}
	for _, t := range res.Tables {
		counts[t.Outcome]++
	}
	fmt.Fprintf(r.w, "%s\n", tui.Heading("Reset", r.styled))
	fmt.Fprintf(r.w, "dropped %d, absent %d, failed %d\n",
		counts[tpch.DropDropped], counts[tpch.DropAbsent], counts[tpch.DropFailed])
	for _, t := range res.Tables {
		if t.Outcome == tpch.DropFailed {
			fmt.Fprintf(r.w, "  %s %s: %v\n", tui.StatusText("FAILED", r.styled), t.Table, t.Err)
		}
	}
	fmt.Fprintln(r.w)
}

func (r *Renderer) renderSchema(res *tpch.StageResult) {
	fmt.Fprintf(r.w, "%s\n", tui.Heading("Schema", r.styled))
	if res.Err != nil {
		fmt.Fprintf(r.w, "%s %v\n\n", tui.StatusText("FAILED", r.styled), res.Err)
		return
	}
	fmt.Fprintf(r.w, "%d statements applied in %s\n\n", res.Statements, seconds(res.Elapsed))
}

func (r *Renderer) renderLoads(loads []tpch.LoadResult) {
	fmt.Fprintf(r.w, "%s\n", tui.Heading("Load", r.styled))
	fmt.Fprint(r.w, LoadTable(loads))

	for _, l := range loads {
		switch {
		case l.Err != nil:
			fmt.Fprintf(r.w, "  %s %s: %v\n", tui.StatusText("FAILED", r.styled), l.Table, l.Err)
		case l.Warning != nil:
			fmt.Fprintf(r.w, "  %s %s: %v\n", tui.StatusText("MISMATCH", r.styled), l.Table, l.Warning)
		}
	}
	fmt.Fprintln(r.w)
}

// LoadTable renders one row per table: status, strategy, rows and elapsed time.
func LoadTable(loads []tpch.LoadResult) string {
	var buf strings.Builder

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Table", "Status", "Strategy", "Rows", "Elapsed"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	var rows int64
	var elapsed time.Duration
	for _, l := range loads {
		count := "-"
		if l.Verified {
			count = fmt.Sprintf("%d", l.RowsLoaded)
		}
		took := "-"
		if !l.Skipped {
			took = seconds(l.Elapsed)
		}
		table.Append([]string{l.Table, l.Status(), string(l.Strategy), count, took})
		rows += l.RowsLoaded
		elapsed += l.Elapsed
	}
	table.SetFooter([]string{"", "", "Total", fmt.Sprintf("%d", rows), seconds(elapsed)})

	table.Render()
	return buf.String()
}

func (r *Renderer) renderQueries(queries []tpch.QueryResult) {
	fmt.Fprintf(r.w, "%s\n", tui.Heading("Queries", r.styled))
	for _, q := range queries {
		title := fmt.Sprintf("[%s] %s", q.Spec.ID, q.Spec.Title)
		if r.styled {
			title = tui.SubtitleStyle.Render(title)
		}
		fmt.Fprintln(r.w, title)
		if q.Err != nil {
			fmt.Fprintf(r.w, "%s %v\n\n", tui.StatusText("FAILED", r.styled), q.Err)
			continue
		}
		limit := q.Spec.RowCap
		if limit <= 0 {
			limit = -1
		}
		fmt.Fprintln(r.w, Format(q.RowSet, limit))
		fmt.Fprintf(r.w, "(%s)\n\n", seconds(q.Elapsed))
	}
}

func (r *Renderer) renderStatus(rep *tpch.RunReport) {
	status := rep.Status()
	fmt.Fprintf(r.w, "Status: %s", tui.StatusText(status, r.styled))
	if rep.Elapsed > 0 {
		fmt.Fprintf(r.w, " in %s", seconds(rep.Elapsed))
	}
	fmt.Fprintln(r.w)

	if rep.Fatal != nil {
		fmt.Fprintf(r.w, "Error: %v\n", rep.Fatal)
		return
	}
	if status == "PARTIAL" {
		fmt.Fprintf(r.w, "%d failed loads, %d verification mismatches, %d failed queries\n",
			rep.FailedLoads(), rep.Mismatches(), rep.FailedQueries())
	}
}

func shortID(rep *tpch.RunReport) string {
	id := rep.RunID.String()
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
