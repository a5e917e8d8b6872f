package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"

	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"

	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"

	// MaxCategoryDepth bounds the category tree at three levels (depth 0..2).
	MaxCategoryDepth = 2

	// DefaultAlertThreshold is the budget consumption percentage at which an
	// alert fires unless the budget overrides it.
	DefaultAlertThreshold = 80

	maxNameLen        = 100
	maxDescriptionLen = 200
)

type (
	TransactionType string
	BudgetPeriod    string
	GoalStatus      string

	// User is the owning principal for every other entity.
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Category is a node in the per-user spending/income taxonomy.
	Category struct {
		ID       string
		UserID   string
		Name     string
		Type     TransactionType
		ParentID string // empty for root categories
		Depth    int
		Color    string
		Icon     string
		Active   bool
	}

	// CategoryNode is a category with its resolved children, used by the
	// tree operation.
	CategoryNode struct {
		Category
		Children []*CategoryNode
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		Date        time.Time
		Description string
		Merchant    string
		CategoryID  string
		Tags        []string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Budget struct {
		ID             string
		UserID         string
		CategoryID     string // empty means overall budget
		Amount         Money
		Period         BudgetPeriod
		StartDate      time.Time
		AlertThreshold int // percent, 1-100
	}

	Goal struct {
		ID         string
		UserID     string
		Name       string
		Target     Money
		Current    Money
		TargetDate time.Time
		Status     GoalStatus
	}

	// Upload records a stored file after it passed the upload pipeline.
	Upload struct {
		ID            string
		UserID        string
		OriginalName  string
		StoredPath    string
		ThumbnailPath string
		ContentType   string
		Size          int64
		Checksum      string
		CreatedAt     time.Time
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyUser        = errors.New("empty user id")
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (p BudgetPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUser
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLen {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.Depth < 0 || c.Depth > MaxCategoryDepth {
		return errors.New("category depth out of range")
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLen {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return ErrEmptyUser
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return errors.New("invalid budget period")
	}
	if b.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if b.AlertThreshold < 1 || b.AlertThreshold > 100 {
		return errors.New("alert threshold must be between 1 and 100")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.TargetDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Progress returns how much of the goal target is funded, as a percentage
// rounded to two decimals. A zero target reports 0.
func (g Goal) Progress() float64 {
	return g.Current.PercentOf(g.Target)
}
