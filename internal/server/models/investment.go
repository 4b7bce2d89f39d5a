package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/shopspring/decimal"
)

// Investment is one balance observation for an entity at a logical time.
// (UserID, Timestamp, Entidad) is the natural key.
type Investment struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Timestamp int64               `json:"timestamp"`
	Entidad   string              `json:"entidad"`
	MontoARS  decimal.NullDecimal `json:"monto_ars"`
	MontoUSD  decimal.NullDecimal `json:"monto_usd"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// InvestmentInput is a client-supplied record for create, bulk, push and
// import. Identity fields sent by clients are ignored.
type InvestmentInput struct {
	Timestamp *int64              `json:"timestamp"`
	Entidad   string              `json:"entidad"`
	MontoARS  decimal.NullDecimal `json:"monto_ars"`
	MontoUSD  decimal.NullDecimal `json:"monto_usd"`
}

func (in InvestmentInput) Validate() error {
	if in.Timestamp == nil {
		return fmt.Errorf("%w: timestamp is required", common.ErrValidation)
	}
	if strings.TrimSpace(in.Entidad) == "" {
		return fmt.Errorf("%w: entidad is required", common.ErrValidation)
	}
	return nil
}

// ToInvestment builds a record owned by userID.
func (in InvestmentInput) ToInvestment(userID string) *Investment {
	var ts int64
	if in.Timestamp != nil {
		ts = *in.Timestamp
	}
	return &Investment{
		UserID:    userID,
		Timestamp: ts,
		Entidad:   in.Entidad,
		MontoARS:  in.MontoARS,
		MontoUSD:  in.MontoUSD,
	}
}

// InvestmentPatch updates amounts of an existing record. A present null
// clears the amount; an absent field keeps it.
type InvestmentPatch struct {
	MontoARS Optional[decimal.Decimal] `json:"monto_ars"`
	MontoUSD Optional[decimal.Decimal] `json:"monto_usd"`
}

func (p InvestmentPatch) IsEmpty() bool {
	return !p.MontoARS.Set && !p.MontoUSD.Set
}

// Apply writes the patch onto inv.
func (p InvestmentPatch) Apply(inv *Investment) {
	applyAmount(&inv.MontoARS, p.MontoARS)
	applyAmount(&inv.MontoUSD, p.MontoUSD)
}

func applyAmount(dst *decimal.NullDecimal, o Optional[decimal.Decimal]) {
	switch {
	case !o.Set:
	case o.Null:
		*dst = decimal.NullDecimal{}
	default:
		*dst = decimal.NewNullDecimal(o.Value)
	}
}

// InvestmentFilter narrows list and count reads. Date bounds are inclusive
// epoch millis.
type InvestmentFilter struct {
	Entity   string
	DateFrom *int64
	DateTo   *int64
}

// Page is a list window.
type Page struct {
	Limit  int
	Offset int
}

// Pagination is returned alongside a list page.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// NewPagination computes HasMore from the page actually returned.
func NewPagination(total int, page Page, returned int) Pagination {
	return Pagination{
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: total > page.Offset+returned,
	}
}
