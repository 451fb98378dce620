package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

// DateLayout is the canonical calendar date layout for stored records.
const DateLayout = "2006-01-02"

// DefaultCategoryColor is used when a category is submitted without a color.
const DefaultCategoryColor = "#3b82f6"

const maxDescriptionLength = 200

type (
	TransactionType string

	CategoryType string

	Transaction struct {
		ID          string          `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Date        string          `json:"date"` // ISO-8601, YYYY-MM-DD or RFC3339
		CategoryID  string          `json:"categoryId"`
		Type        TransactionType `json:"type"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Category struct {
		ID        string       `json:"id"`
		Name      string       `json:"name"`
		Icon      string       `json:"icon"`
		Color     string       `json:"color"`
		Type      CategoryType `json:"type"`
		CreatedAt time.Time    `json:"createdAt"`
	}

	// CurrencyEntry is a PLN/INR conversion log line.
	CurrencyEntry struct {
		ID          string          `json:"id"`
		Date        string          `json:"date"`
		Description string          `json:"description"`
		PLNAmount   decimal.Decimal `json:"plnAmount"`
		INRAmount   decimal.Decimal `json:"inrAmount"`
		CreatedAt   time.Time       `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidDate          = errors.New("invalid date")
	ErrEmptyDescription     = errors.New("empty description")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidCategoryType  = errors.New("invalid category type")
	ErrMissingCategory      = errors.New("category is required")
	ErrCategoryTypeMismatch = errors.New("category type does not match transaction type")
	ErrEmptyName            = errors.New("empty category name")
	ErrMissingIcon          = errors.New("icon is required")
	ErrInvalidColor         = errors.New("invalid color")
	ErrCategoryInUse        = errors.New("category is used by transactions")
	ErrNotFound             = errors.New("not found")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c CategoryType) Valid() bool {
	return c == CategoryIncome || c == CategoryExpense || c == CategoryBoth
}

// Accepts reports whether transactions of type t may reference a category of type c.
func (c CategoryType) Accepts(t TransactionType) bool {
	return c == CategoryBoth || string(c) == string(t)
}

// ParseDate parses a stored ISO-8601 date. Both plain calendar dates and
// RFC3339 timestamps are accepted; plain dates are placed in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// Signed returns the amount with expenses negated.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

func validateDescription(s string) error {
	if len(strings.TrimSpace(s)) == 0 {
		return ErrEmptyDescription
	}
	if len(s) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func validatePositive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validatePositive(t.Amount); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if _, err := ParseDate(t.Date, time.UTC); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrMissingCategory
	}
	return nil
}

// ValidateAgainst checks the transaction and that its category accepts its type.
func (t Transaction) ValidateAgainst(c Category) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !c.Type.Accepts(t.Type) {
		return ErrCategoryTypeMismatch
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Icon) == "" {
		return ErrMissingIcon
	}
	if !hexColor.MatchString(c.Color) {
		return ErrInvalidColor
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	return nil
}

// WithDefaults fills the color when it was left empty.
func (c Category) WithDefaults() Category {
	if strings.TrimSpace(c.Color) == "" {
		c.Color = DefaultCategoryColor
	}
	c.Name = strings.TrimSpace(c.Name)
	return c
}

func (e CurrencyEntry) Validate() error {
	if _, err := ParseDate(e.Date, time.UTC); err != nil {
		return err
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := validatePositive(e.PLNAmount); err != nil {
		return err
	}
	return validatePositive(e.INRAmount)
}
