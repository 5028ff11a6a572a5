// Package ui renders records, query results and status lines for the
// terminal.
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/sqlstudio/runtime/client"
)

var (
	AccentColor  = lipgloss.Color("#00D9FF")
	SuccessColor = lipgloss.Color("#00FF88")
	WarningColor = lipgloss.Color("#FFB800")
	ErrorColor   = lipgloss.Color("#FF4444")
	MutedColor   = lipgloss.Color("#6C757D")

	TitleStyle   = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(AccentColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
)

// NullText is how a null value is shown in tables.
const NullText = "NULL"

// maxCellWidth truncates long cells so tables stay readable.
const maxCellWidth = 60

func terminalWidth() int {
	if w := pterm.GetTerminalWidth(); w > 0 {
		return w
	}
	return 80
}

func status(w io.Writer, style lipgloss.Style, symbol, format string, args ...interface{}) {
	fmt.Fprintln(w, style.Render(symbol+" "+fmt.Sprintf(format, args...)))
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	status(os.Stdout, SuccessStyle, "✓", format, args...)
}

// PrintError prints an error message to stderr
func PrintError(format string, args ...interface{}) {
	status(os.Stderr, ErrorStyle, "✗", format, args...)
}

func PrintWarning(format string, args ...interface{}) {
	status(os.Stdout, WarningStyle, "⚠", format, args...)
}

func PrintInfo(format string, args ...interface{}) {
	status(os.Stdout, InfoStyle, "ℹ", format, args...)
}

// Muted renders secondary text such as page summaries.
func Muted(s string) string {
	return MutedStyle.Render(s)
}

// PrintBanner prints a centered title block.
func PrintBanner(title, subtitle string) {
	fmt.Println(lipgloss.NewStyle().
		Width(terminalWidth()).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Center, TitleStyle.Render(title), Muted(subtitle))))
}

// PrintSection prints an underlined heading.
func PrintSection(title string) {
	fmt.Println(lipgloss.NewStyle().
		Width(terminalWidth()).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(MutedColor).
		Render(TitleStyle.Render(title)))
}

// Field is one labelled value in a panel.
type Field struct {
	Label string
	Value any
}

// panelText aligns labels so values start in the same column.
func panelText(fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf("%-*s  %v", width+1, f.Label+":", f.Value)
	}
	return strings.Join(lines, "\n")
}

// PrintPanel prints labelled values inside a titled box.
func PrintPanel(title string, fields ...Field) {
	fmt.Println(lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, TitleStyle.Render(title), panelText(fields))))
}

// StartSpinner shows message next to a spinner until Stop is called.
func StartSpinner(message string) *pterm.SpinnerPrinter {
	spinner, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(message)
	if err != nil {
		return nil
	}
	return spinner
}

// StopSpinner stops a spinner returned by StartSpinner. Nil is ignored.
func StopSpinner(s *pterm.SpinnerPrinter) {
	if s != nil {
		_ = s.Stop()
	}
}

// PrintTable prints a table with a header row.
func PrintTable(headers []string, rows [][]string) {
	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, headers)
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// PrintList prints a bulleted list.
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("  • %s\n", item)
	}
}

// FormatCell renders a record value for display.
func FormatCell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return NullText
	case string:
		s = x
	case json.Number:
		s = x.String()
	case time.Time:
		s = x.Format(time.RFC3339)
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			s = fmt.Sprint(x)
		} else {
			s = string(data)
		}
	default:
		s = client.FormatValue(x)
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		s = string(r[:maxCellWidth-1]) + "…"
	}
	return s
}

// RecordRows lays records out under columns. When columns is empty the
// union of record keys is used in first-seen order.
func RecordRows(records []client.Record, columns []string) ([]string, [][]string) {
	if len(columns) == 0 {
		seen := map[string]bool{}
		for _, r := range records {
			for _, k := range r.Keys() {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(columns))
		for j, c := range columns {
			if v, ok := r.Get(c); ok {
				row[j] = FormatCell(v)
			}
		}
		rows[i] = row
	}
	return columns, rows
}

// PrintRecords prints records as a table.
func PrintRecords(records []client.Record, columns []string) {
	if len(records) == 0 {
		PrintInfo("No records")
		return
	}
	headers, rows := RecordRows(records, columns)
	PrintTable(headers, rows)
}

// PrintRecord prints a single record as field/value pairs.
func PrintRecord(r client.Record) {
	rows := make([][]string, 0, r.Len())
	for _, f := range r.Fields() {
		rows = append(rows, []string{f.Name, FormatCell(f.Value)})
	}
	PrintTable([]string{"Field", "Value"}, rows)
}

// ResultSummary describes an execution result in one line.
func ResultSummary(res *client.ExecResult) string {
	if res.Kind == client.ResultRows {
		return fmt.Sprintf("%s · %d rows", res.QueryType, res.RowCount)
	}
	return fmt.Sprintf("%s · %d rows affected", res.QueryType, res.AffectedRows)
}

// PrintResult prints returned rows as a table, or the affected row count.
func PrintResult(res *client.ExecResult) {
	if res.Kind != client.ResultRows {
		PrintSuccess("%s", ResultSummary(res))
		return
	}
	PrintRecords(res.Rows, res.Columns())
	fmt.Println(Muted(ResultSummary(res)))
}

// PrintSQL renders SQL with syntax highlighting, falling back to plain
// colored text when the terminal renderer is unavailable.
func PrintSQL(sql string) {
	if sql == "" {
		PrintWarning("No SQL generated")
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(terminalWidth()))
	if err == nil {
		var out string
		if out, err = r.Render("```sql\n" + sql + "\n```\n"); err == nil {
			fmt.Print(out)
			return
		}
	}
	color.New(color.FgCyan).Println(sql)
}
