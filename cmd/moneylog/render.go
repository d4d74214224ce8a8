package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"moneylog/internal/core"
)

func renderRecords(w io.Writer, records []core.Record, settings core.Settings) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No entries.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Category, settings.FormatMoney(r.Amount), r.Description)
	}
	return tw.Flush()
}

func statsLine(s core.Summary, settings core.Settings) string {
	line := fmt.Sprintf("Entries this view: %d | Money out: %s", s.Count, settings.FormatMoney(s.Total))
	switch {
	case s.OverCap():
		line += " | Over your limit by " + settings.FormatMoney(s.Over)
	case s.HasCap():
		line += " | Left in budget: " + settings.FormatMoney(s.Remaining)
	}
	return line
}

func renderStats(w io.Writer, s core.Summary, settings core.Settings) error {
	_, err := fmt.Fprintln(w, statsLine(s, settings))
	return err
}

func renderCategories(w io.Writer, s core.Summary, settings core.Settings) error {
	if len(s.ByCategory) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tENTRIES\tTOTAL")
	for _, c := range s.ByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Name, c.Count, settings.FormatMoney(c.Amount))
	}
	return tw.Flush()
}

func renderSettings(w io.Writer, settings core.Settings) error {
	_, err := fmt.Fprintf(w, "Currency symbol: %s\nUnit label: %s\nCategories: %s\n",
		settings.CurrencySymbol, settings.UnitLabel, strings.Join(settings.Categories, ", "))
	return err
}
