// Package report renders aggregated groups for terminals, CSV files and chat
// digests.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"NewsroomStats/internal/aggregate"
	"NewsroomStats/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	textStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
	totalStyle  = numberStyle.Bold(true)
)

func headers(withReporter bool) []string {
	cols := []string{"부서"}
	if withReporter {
		cols = append(cols, "기자")
	}
	return append(cols, "조회수", "기사수", "자체기사", "평균조회수", "자체비율")
}

func row(g domain.GroupStats, withReporter bool) []string {
	cols := []string{g.Department}
	if withReporter {
		cols = append(cols, g.Reporter)
	}
	return append(cols,
		strconv.FormatInt(g.TotalViews, 10),
		strconv.FormatInt(g.ArticleCount, 10),
		strconv.FormatInt(g.SelfArticleCount, 10),
		strconv.FormatFloat(g.AverageViews, 'f', 2, 64),
		strconv.Itoa(g.SelfRatio)+"%",
	)
}

// Table renders groups as a bordered terminal table titled with the period.
func Table(w io.Writer, periodKey string, groups []domain.GroupStats, groupBy aggregate.GroupBy) error {
	withReporter := groupBy == aggregate.ByReporter
	textCols := 1
	if withReporter {
		textCols = 2
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, row(g, withReporter))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers(withReporter)...).
		Rows(rows...).
		StyleFunc(func(r, c int) lipgloss.Style {
			switch {
			case r == table.HeaderRow:
				return headerStyle
			case c < textCols:
				return textStyle
			case r < len(groups) && groups[r].IsTotal:
				return totalStyle
			default:
				return numberStyle
			}
		})

	if _, err := fmt.Fprintf(w, "기간 %s\n%s\n", periodKey, t.Render()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// CSV writes groups with a header row.
func CSV(w io.Writer, periodKey string, groups []domain.GroupStats, groupBy aggregate.GroupBy) error {
	withReporter := groupBy == aggregate.ByReporter
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"기간"}, headers(withReporter)...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, g := range groups {
		if err := cw.Write(append([]string{periodKey}, row(g, withReporter)...)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CompactNumber shortens large counts with the Korean 억 and 만 units.
func CompactNumber(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	switch {
	case n >= 100_000_000:
		return sign + trimZero(float64(n)/100_000_000) + "억"
	case n >= 10_000:
		return sign + trimZero(float64(n)/10_000) + "만"
	default:
		return sign + strconv.FormatInt(n, 10)
	}
}

func trimZero(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")

// escapeMarkdown escapes the characters Telegram's Markdown mode treats as
// entity delimiters.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Digest formats the top rows of a bucket as a Telegram Markdown message.
// Department and reporter names are escaped.
func Digest(bucket domain.PeriodBucket, top int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*주간 부서별 조회수* (%s 주)\n", bucket.PeriodKey)

	if total, ok := bucket.Total(); ok {
		fmt.Fprintf(&b, "전체: %s회 / %d건 / 평균 %s / 자체 %d%%\n",
			CompactNumber(total.TotalViews), total.ArticleCount, CompactNumber(int64(total.AverageViews)), total.SelfRatio)
	}

	rank := 0
	for _, g := range bucket.Groups {
		if g.IsTotal {
			continue
		}
		if top > 0 && rank >= top {
			break
		}
		rank++
		name := g.Department
		if g.Reporter != "" {
			name += " " + g.Reporter
		}
		fmt.Fprintf(&b, "%d. %s: %s회 (%d건, 자체 %d%%)\n", rank, escapeMarkdown(name), CompactNumber(g.TotalViews), g.ArticleCount, g.SelfRatio)
	}
	return b.String()
}
