package monitor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGray   = "\x1b[90m"
)

const emptyWallMessage = "暂无任务"

// Renderer is the terminal binding for the monitor wall. Every call
// rebuilds the whole wall from the card list; there is no diffing.
type Renderer struct {
	Out      io.Writer
	Colorize bool

	// ClearScreen redraws in place instead of appending.
	ClearScreen bool
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		Out:      out,
		Colorize: shouldColorize(out),
	}
}

// Render draws the full wall. An empty card list renders only the
// placeholder state.
func (r *Renderer) Render(cards []Card) {
	if r.ClearScreen {
		fmt.Fprint(r.Out, "\x1b[2J\x1b[H")
	}

	header := fmt.Sprintf("== 任务监控 (%d) · %s ==", len(cards), time.Now().Format("15:04:05"))
	if r.Colorize {
		header = ansiBlue + header + ansiReset
	}
	fmt.Fprintln(r.Out, header)

	if len(cards) == 0 {
		fmt.Fprintln(r.Out, emptyWallMessage)
		return
	}

	fmt.Fprintln(r.Out, renderWallTable(cards, r.Colorize))
}

func renderWallTable(cards []Card, colorize bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"任务", "状态", "内容", "详情", "预览"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, WidthMax: 14},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, WidthMax: 40},
		{Number: 4, Align: text.AlignLeft, WidthMax: 40},
		{Number: 5, Align: text.AlignLeft, WidthMax: 48},
	})

	for _, c := range cards {
		status := c.StatusLabel
		if colorize {
			if color := toneColor(c.Tone); color != "" {
				status = color + status + ansiReset
			}
		}

		detail := c.Detail
		if c.Progress >= 0 {
			detail = joinLines(detail, progressBar(c.Progress))
		}
		if c.ErrorMessage != "" && c.ErrorMessage != c.Detail {
			detail = joinLines(detail, "! "+c.ErrorMessage)
		}
		if c.ElapsedLabel != "" {
			detail = joinLines(detail, "总耗时 "+c.ElapsedLabel)
		}

		title := c.Title
		if c.GroupLabel != "" {
			title = title + "\n[" + c.GroupLabel + "]"
		}

		preview := ""
		if c.PreviewURL != "" {
			preview = c.PreviewKind + ": " + c.PreviewURL
		}

		tw.AppendRow(table.Row{shortID(c.ID), status, title, detail, preview})
	}

	return tw.Render()
}

func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 10
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("#", filled), strings.Repeat("-", 10-filled), percent)
}

func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

func joinLines(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

func toneColor(tone Tone) string {
	switch tone {
	case ToneOK:
		return ansiGreen
	case ToneError:
		return ansiRed
	case ToneActive:
		return ansiYellow
	case ToneUnknown:
		return ansiGray
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
