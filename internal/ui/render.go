package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/k3smox/internal/bootstrap"
	"github.com/imamik/k3smox/internal/topology"
)

// Options controls rendering.
type Options struct {
	// Color enables ANSI styling; see IsTerminal.
	Color bool
}

// Topology writes one row per node.
func Topology(w io.Writer, topo *topology.ClusterTopology, opts Options) error {
	st := newStyles(opts.Color)
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", st.title.Render("k3smox: "+topo.Cluster),
		st.dim.Render(fmt.Sprintf("(%d masters, %d workers)", len(topo.Masters), len(topo.Workers))))
	b.WriteString("\n")

	rows := [][]string{{"NAME", "ROLE", "VMID", "IPV4", "IPV6", "CORES", "MEMORY", "DISK"}}
	for _, n := range topo.All() {
		ipv6 := n.IPv6
		if ipv6 == "" {
			ipv6 = "-"
		}
		rows = append(rows, []string{
			n.Name,
			string(n.Role),
			fmt.Sprintf("%d", n.VMID),
			n.IPv4,
			ipv6,
			fmt.Sprintf("%d", n.Resources.Cores*max(n.Resources.Sockets, 1)),
			fmt.Sprintf("%d MiB", n.Resources.MemoryMiB),
			diskSummary(n),
		})
	}
	writeTable(&b, rows, st)

	_, err := io.WriteString(w, b.String())
	return err
}

func diskSummary(n topology.NodeIdentity) string {
	s := fmt.Sprintf("%d GiB", n.Resources.DiskGiB)
	if extra := len(n.Resources.ExtraDisks); extra > 0 {
		s += fmt.Sprintf(" +%d", extra)
	}
	return s
}

// writeTable pads columns to their widest cell. The header row is styled
// as a section.
func writeTable(b *strings.Builder, rows [][]string, st styles) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			padded := cell
			if i < len(row)-1 {
				padded = fmt.Sprintf("%-*s", widths[i], cell)
			}
			if r == 0 {
				padded = st.section.Render(padded)
			}
			cells[i] = padded
		}
		b.WriteString("  " + strings.Join(cells, "  ") + "\n")
	}
}

// Levels writes the stages grouped by the wave they can run in.
func Levels(w io.Writer, levels [][]bootstrap.Stage, opts Options) error {
	st := newStyles(opts.Color)
	var b strings.Builder

	for i, level := range levels {
		b.WriteString(st.section.Render(fmt.Sprintf("Wave %d", i+1)))
		b.WriteString("\n")
		for _, s := range level {
			line := "  " + s.ID
			if s.Node != "" {
				line += " " + st.dim.Render("("+s.Node+")")
			}
			if len(s.DependsOn) > 0 {
				line += st.dim.Render(" <- " + strings.Join(s.DependsOn, ", "))
			}
			b.WriteString(line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Report writes the status of every stage and a summary line.
func Report(w io.Writer, report *bootstrap.Report, opts Options) error {
	st := newStyles(opts.Color)
	var b strings.Builder

	for _, res := range report.Results() {
		mark, style := statusMark(res, st)
		line := fmt.Sprintf("  %s %s", style.Render(mark), res.Stage.ID)
		if d := res.Duration(); d > 0 {
			line += st.dim.Render(" " + d.Round(time.Millisecond).String())
		}
		switch {
		case res.Status == bootstrap.StatusFailed && res.Err != nil:
			line += "\n      " + style.Render(res.Err.Error())
		case res.Reason != "":
			line += "\n      " + st.dim.Render(res.Reason)
		}
		b.WriteString(line + "\n")
	}

	counts := report.Counts()
	summary := fmt.Sprintf("%d healthy, %d failed, %d pending",
		counts[bootstrap.StatusHealthy], counts[bootstrap.StatusFailed], counts[bootstrap.StatusPending])
	b.WriteString("\n")
	if report.Healthy() {
		b.WriteString(st.ok.Render("Cluster ready: " + summary))
	} else {
		b.WriteString(st.failed.Render("Bootstrap incomplete: " + summary))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func statusMark(res bootstrap.StageResult, st styles) (string, lipgloss.Style) {
	switch {
	case res.Status == bootstrap.StatusHealthy:
		return checkMark, st.ok
	case res.Propagated():
		return blockMark, st.warning
	case res.Status == bootstrap.StatusFailed:
		return crossMark, st.failed
	case res.Status == bootstrap.StatusRunning:
		return runMark, st.active
	default:
		return pending, st.dim
	}
}
