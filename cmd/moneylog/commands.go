package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"moneylog/internal/amqp"
	"moneylog/internal/cli"
	"moneylog/internal/core"
	"moneylog/internal/services"
	"moneylog/internal/worker"
)

// runContext is bound into every command's Run method.
type runContext struct {
	ctx context.Context
	app *cli.App
	out io.Writer
	in  io.Reader
	now func() time.Time
}

func (r *runContext) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *runContext) stdin() io.Reader {
	if r.in != nil {
		return r.in
	}
	return os.Stdin
}

type addCmd struct {
	Description string `short:"d" required:"" help:"What the money went on."`
	Amount      string `short:"a" required:"" help:"Amount, e.g. 12.50."`
	Category    string `short:"c" required:"" help:"One of the configured categories."`
	Date        string `help:"Date as YYYY-MM-DD; defaults to today."`
}

func (c *addCmd) Run(r *runContext) error {
	date := c.Date
	if date == "" {
		date = r.clock().Format("2006-01-02")
	}
	rec, warnings, err := r.app.Ledger.Add(r.ctx, core.RecordInput{
		Description: c.Description,
		Amount:      c.Amount,
		Category:    c.Category,
		Date:        date,
	})
	if err != nil {
		return explain(err)
	}
	printWarnings(r.out, warnings)
	fmt.Fprintf(r.out, "Added %s (%s).\n", rec.ID, r.app.Ledger.Profile().Settings.FormatMoney(rec.Amount))
	return nil
}

type editCmd struct {
	ID          string `arg:"" help:"Id of the entry to change."`
	Description string `short:"d" help:"New description."`
	Amount      string `short:"a" help:"New amount."`
	Category    string `short:"c" help:"New category."`
	Date        string `help:"New date as YYYY-MM-DD."`
}

func (c *editCmd) Run(r *runContext) error {
	existing, ok := r.app.Ledger.Record(c.ID)
	if !ok {
		return fmt.Errorf("Update failed: %w.", services.ErrRecordNotFound)
	}
	in := core.RecordInput{
		Description: pick(c.Description, existing.Description),
		Amount:      pick(c.Amount, existing.Amount.String()),
		Category:    pick(c.Category, existing.Category),
		Date:        pick(c.Date, existing.Date),
	}
	_, warnings, err := r.app.Ledger.Update(r.ctx, c.ID, in)
	if errors.Is(err, services.ErrRecordNotFound) {
		return fmt.Errorf("Update failed: %w.", err)
	}
	if err != nil {
		return explain(err)
	}
	printWarnings(r.out, warnings)
	fmt.Fprintln(r.out, "Entry updated.")
	return nil
}

type rmCmd struct {
	ID string `arg:"" help:"Id of the entry to delete."`
}

func (c *rmCmd) Run(r *runContext) error {
	if err := r.app.Ledger.Delete(r.ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Entry deleted.")
	return nil
}

type lsCmd struct {
	Search        string `short:"s" help:"Regular expression matched against description and category."`
	CaseSensitive bool   `name:"case-sensitive" help:"Match the search pattern case-sensitively."`
	Sort          string `help:"Sort by description, amount, category or date."`
	Desc          bool   `help:"Sort in descending order."`
}

func (c *lsCmd) Run(r *runContext) error {
	q := core.Query{Pattern: c.Search, CaseSensitive: c.CaseSensitive}
	if c.Sort != "" {
		field := core.Field(strings.ToLower(c.Sort))
		switch field {
		case core.FieldDescription, core.FieldAmount, core.FieldCategory, core.FieldDate:
		default:
			return fmt.Errorf("cannot sort by %q: use description, amount, category or date", c.Sort)
		}
		q.SortBy, q.Direction = field, core.Ascending
		if c.Desc {
			q.Direction = core.Descending
		}
	}
	if c.Search != "" && core.CompilePattern(c.Search, c.CaseSensitive) == nil {
		fmt.Fprintln(r.out, "Search pattern is not a valid regular expression; showing everything.")
	}

	records := r.app.Ledger.List(q)
	profile := r.app.Ledger.Profile()
	if err := renderRecords(r.out, records, profile.Settings); err != nil {
		return err
	}
	return renderStats(r.out, core.Summarize(records, profile), profile.Settings)
}

type summaryCmd struct{}

func (c *summaryCmd) Run(r *runContext) error {
	profile := r.app.Ledger.Profile()
	s := r.app.Ledger.Summary()
	if err := renderStats(r.out, s, profile.Settings); err != nil {
		return err
	}
	return renderCategories(r.out, s, profile.Settings)
}

type capCmd struct {
	Value string `arg:"" optional:"" help:"New cap; 0 removes it. Without a value the current cap is shown."`
	Clear bool   `help:"Remove the spending cap."`
}

func (c *capCmd) Run(r *runContext) error {
	settings := r.app.Ledger.Profile().Settings
	if c.Value == "" && !c.Clear {
		limit := r.app.Ledger.Profile().Cap
		if !limit.IsPositive() {
			fmt.Fprintln(r.out, "No spending cap set.")
			return nil
		}
		fmt.Fprintf(r.out, "Spending cap: %s\n", settings.FormatMoney(limit))
		return nil
	}

	value := c.Value
	if c.Clear {
		value = ""
	}
	limit, err := r.app.Ledger.SetCap(r.ctx, value)
	if err != nil {
		return err
	}
	if !limit.IsPositive() {
		fmt.Fprintln(r.out, "Spending cap removed.")
		return nil
	}
	fmt.Fprintf(r.out, "Spending cap set to %s.\n", settings.FormatMoney(limit))
	return nil
}

type settingsCmd struct {
	Symbol     string `help:"Currency symbol shown before amounts."`
	Unit       string `help:"Unit label shown after amounts."`
	Categories string `help:"Comma-separated list of categories."`
}

// Run changes only the preferences that were given; blank ones keep their value.
func (c *settingsCmd) Run(r *runContext) error {
	current := r.app.Ledger.Profile().Settings
	if c.Symbol == "" && c.Unit == "" && c.Categories == "" {
		return renderSettings(r.out, current)
	}

	categories := c.Categories
	if strings.TrimSpace(categories) == "" {
		categories = strings.Join(current.Categories, ", ")
	}
	if _, err := r.app.Ledger.UpdateSettings(r.ctx, c.Symbol, c.Unit, categories); err != nil {
		return fmt.Errorf("Preference error: %w", err)
	}
	fmt.Fprintln(r.out, "Preferences saved.")
	return nil
}

type importCmd struct {
	File string `arg:"" help:"Backup file to import, or - for standard input."`
}

func (c *importCmd) Run(r *runContext) error {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(r.stdin())
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", c.File, err)
	}

	ds, err := r.app.Ledger.Import(r.ctx, data)
	if err != nil {
		return fmt.Errorf("Import failed: %w", err)
	}
	noun := "entries"
	if len(ds.Records) == 1 {
		noun = "entry"
	}
	fmt.Fprintf(r.out, "Import complete. Loaded %d %s.\n", len(ds.Records), noun)
	return nil
}

type exportCmd struct {
	Output string `short:"o" help:"Destination file, or - for standard output. Defaults to a dated file name in the current directory."`
}

func (c *exportCmd) Run(r *runContext) error {
	data, err := r.app.Ledger.Export(r.ctx)
	if err != nil {
		return err
	}
	if c.Output == "-" {
		_, err := r.out.Write(append(data, '\n'))
		return err
	}

	path := c.Output
	if path == "" {
		path = core.ExportFileName(r.clock())
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(r.out, "Backup exported to %s.\n", path)
	return nil
}

type watchCmd struct {
	Interval time.Duration `help:"How often to reload even without events." default:"1m"`
}

func (c *watchCmd) Run(r *runContext) error {
	if r.app.Events == nil {
		return errors.New("watch needs AMQP_URL pointing at a reachable broker")
	}
	settings := func() core.Settings { return r.app.Ledger.Profile().Settings }

	w := worker.NewEventWorker(r.app.Ledger, func(_ context.Context, e *amqp.LedgerEvent, s core.Summary) {
		label := "refresh"
		if e != nil {
			label = string(e.Type)
		}
		fmt.Fprintf(r.out, "[%s] %s\n", label, statsLine(s, settings()))
	}, r.app.Logger)

	go w.Run(r.ctx, c.Interval)

	fmt.Fprintf(r.out, "Watching for ledger changes. %s\n", statsLine(r.app.Ledger.Summary(), settings()))
	err := r.app.Events.Consume(r.ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func printWarnings(w io.Writer, warnings []services.Warning) {
	for _, warning := range warnings {
		fmt.Fprintln(w, warning)
	}
}

// explain expands field errors into one hint per invalid field.
func explain(err error) error {
	var fe *core.FieldErrors
	if !errors.As(err, &fe) {
		return err
	}
	lines := make([]string, len(fe.Fields))
	for i, f := range fe.Fields {
		lines[i] = fmt.Sprintf("%s: %s", f, core.Hint(f))
	}
	return errors.New(strings.Join(lines, "; "))
}
