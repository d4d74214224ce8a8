package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the canonical text form of record timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

type (
	// Record is one spending entry.
	Record struct {
		ID          string
		Description string
		Amount      decimal.Decimal
		Category    string
		Date        string // YYYY-MM-DD
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Settings holds the display preferences and the allowed categories.
	Settings struct {
		CurrencySymbol string   `json:"currencySymbol"`
		UnitLabel      string   `json:"unitLabel"`
		Categories     []string `json:"categories"`
	}

	// Profile is the active configuration a ledger operates under.
	Profile struct {
		Cap      decimal.Decimal
		Settings Settings
	}

	// Dataset is a complete ledger: its profile plus every record in display order.
	Dataset struct {
		Profile
		Records []Record
	}
)

var (
	ErrNoCategories   = errors.New("At least one category is required.")
	ErrInvalidPayload = errors.New("JSON must be an array or an object with a records array")
	ErrInvalidCap     = errors.New("Invalid cap value")
	ErrInvalidJSON    = errors.New("that file is not valid JSON")
)

// InvalidCategoryError reports the first category that fails the format rule.
type InvalidCategoryError struct {
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return "Invalid category: " + e.Value
}

// RecordError identifies the offending record of an import by its 1-based position.
type RecordError struct {
	Position int
	Field    Field // empty when the failure is not about a single field
	Reason   string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("Record %d: %s", e.Position, e.Reason)
}

// DefaultSettings returns the built-in settings. Each call returns a fresh copy.
func DefaultSettings() Settings {
	return Settings{
		CurrencySymbol: "$",
		UnitLabel:      "USD",
		Categories:     []string{"Food", "Books", "Transport", "Entertainment", "Fees", "Other"},
	}
}

// DefaultProfile is the profile of an empty ledger: no cap and default settings.
func DefaultProfile() Profile {
	return Profile{Cap: decimal.Zero, Settings: DefaultSettings()}
}

// Clone returns a deep copy so callers never share the category slice.
func (s Settings) Clone() Settings {
	s.Categories = append([]string(nil), s.Categories...)
	return s
}

// HasCategory reports whether name is one of the configured categories.
func (s Settings) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// FormatMoney renders an amount as symbol, two decimals and optional unit label.
func (s Settings) FormatMoney(amount decimal.Decimal) string {
	out := s.CurrencySymbol + amount.StringFixed(2)
	if s.UnitLabel != "" {
		out += " " + s.UnitLabel
	}
	return out
}

// CanonicalTime normalizes a timestamp to the precision and zone it is stored with.
func CanonicalTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

type recordJSON struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

// MarshalJSON writes the record with a numeric amount and canonical timestamps.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:          r.ID,
		Description: r.Description,
		Amount:      json.Number(r.Amount.String()),
		Category:    r.Category,
		Date:        r.Date,
		CreatedAt:   CanonicalTime(r.CreatedAt).Format(TimestampLayout),
		UpdatedAt:   CanonicalTime(r.UpdatedAt).Format(TimestampLayout),
	})
}

// UnmarshalJSON reads a record previously written by MarshalJSON.
// It performs no validation; imports go through NormalizeRecord instead.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(w.Amount.String())
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	createdAt, ok := ParseTimestamp(w.CreatedAt)
	if !ok {
		return fmt.Errorf("createdAt: invalid timestamp %q", w.CreatedAt)
	}
	updatedAt, ok := ParseTimestamp(w.UpdatedAt)
	if !ok {
		return fmt.Errorf("updatedAt: invalid timestamp %q", w.UpdatedAt)
	}
	*r = Record{
		ID:          w.ID,
		Description: w.Description,
		Amount:      amount,
		Category:    w.Category,
		Date:        w.Date,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
	return nil
}
