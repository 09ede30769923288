package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Salary        Category = "Salary"
	Business      Category = "Business"
	Entertainment Category = "Entertainment"
	Other         Category = "Other"
)

const (
	Income  RecordType = "Income"
	Expense RecordType = "Expense"
)

// DateLayout is the textual form of a record date, both on disk and in forms.
const DateLayout = "2006-01-02"

type (
	Category   string
	RecordType string

	Date struct {
		time.Time
	}

	// Record is one financial transaction.
	Record struct {
		Date     Date            `json:"date"`
		Category Category        `json:"category"`
		Type     RecordType      `json:"type"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// Table is the ordered collection of records, in append order.
	Table []Record
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidType     = errors.New("invalid type")
)

var categories = []Category{Food, Transport, Salary, Business, Entertainment, Other}

var recordTypes = []RecordType{Income, Expense}

// Labels used by the Georgian edition of the dashboard. Files written by it
// carry these values, so they are accepted wherever a category or type is parsed.
var (
	categoryAliases = map[string]Category{
		"საკვები":    Food,
		"ტრანსპორტი": Transport,
		"ხელფასი":    Salary,
		"ბიზნესი":    Business,
		"გართობა":    Entertainment,
		"სხვა":       Other,
	}
	typeAliases = map[string]RecordType{
		"შემოსავალი": Income,
		"გასავალი":   Expense,
	}
)

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// RecordTypes returns Income and Expense, in that order.
func RecordTypes() []RecordType {
	return append([]RecordType(nil), recordTypes...)
}

func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	if c, ok := categoryAliases[s]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func ParseRecordType(s string) (RecordType, error) {
	s = strings.TrimSpace(s)
	for _, t := range recordTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	if t, ok := typeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (t RecordType) Valid() bool {
	return t == Income || t == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate checks a record entered by the user. Records read back from
// storage are not re-validated.
func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if !r.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}
	if r.Amount.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	return nil
}

// IsValidationError reports whether err comes from record validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidType)
}

// Clone returns a copy of the table that shares no backing array with t.
func (t Table) Clone() Table {
	if t == nil {
		return Table{}
	}
	return append(Table(nil), t...)
}
