package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// field renders a lazily fetched value, a failed fetch renders as "-".
func field[T any](name string, value T, err error, format func(T) string) string {
	if err != nil {
		slog.Debug("field unavailable", "field", name, "err", err)
		return "-"
	}
	return format(value)
}

func plain(s string) string {
	return s
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

func list(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func since(t time.Time) string {
	return fmt.Sprintf("%s (%s)", t.Format(time.DateOnly), humanize.Time(t))
}
