package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension identifies one of the four record attributes targets can be set on.
type Dimension int

const (
	DimBusinessType Dimension = iota
	DimOrganization
	DimCustomerCategory
	DimInsuranceType
)

type (
	// InsuranceRecord is a single policy-period observation.
	InsuranceRecord struct {
		PolicyStartYear int
		WeekNumber      int
		SignedPremium   float64
		MaturedPremium  float64
		LossAmount      float64

		BusinessType     string
		Organization     string // third-level organization
		CustomerCategory string
		InsuranceType    string
	}

	// PeriodKey is a (year, week) bucket.
	PeriodKey struct {
		Year int
		Week int
	}
)

var (
	ErrInvalidWeek      = errors.New("invalid week number")
	ErrInvalidYear      = errors.New("invalid policy start year")
	ErrInvalidPeriodKey = errors.New("invalid period key")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// OverallBusinessType is the pseudo business type covering the whole
// portfolio. Its goal row carries the company-wide target, and selecting it
// places no restriction on records.
const OverallBusinessType = "车险整体"

// AllDimensions lists the dimensions in target resolution priority order.
var AllDimensions = []Dimension{DimBusinessType, DimOrganization, DimCustomerCategory, DimInsuranceType}

func (d Dimension) String() string {
	switch d {
	case DimBusinessType:
		return "business_type"
	case DimOrganization:
		return "organization"
	case DimCustomerCategory:
		return "customer_category"
	case DimInsuranceType:
		return "insurance_type"
	default:
		return "unknown"
	}
}

// Value returns the record's raw label for the dimension.
func (d Dimension) Value(r InsuranceRecord) string {
	switch d {
	case DimBusinessType:
		return r.BusinessType
	case DimOrganization:
		return r.Organization
	case DimCustomerCategory:
		return r.CustomerCategory
	case DimInsuranceType:
		return r.InsuranceType
	default:
		return ""
	}
}

func (r InsuranceRecord) Validate() error {
	if r.PolicyStartYear <= 0 {
		return ErrInvalidYear
	}
	if r.WeekNumber < 1 || r.WeekNumber > 53 {
		return ErrInvalidWeek
	}
	for _, v := range [...]float64{r.SignedPremium, r.MaturedPremium, r.LossAmount} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrInvalidAmount
		}
	}
	return nil
}

// Period returns the bucket the record belongs to.
func (r InsuranceRecord) Period() PeriodKey {
	return PeriodKey{Year: r.PolicyStartYear, Week: r.WeekNumber}
}

// Compare orders keys numerically by year, then week.
func (k PeriodKey) Compare(o PeriodKey) int {
	switch {
	case k.Year < o.Year:
		return -1
	case k.Year > o.Year:
		return 1
	case k.Week < o.Week:
		return -1
	case k.Week > o.Week:
		return 1
	}
	return 0
}

func (k PeriodKey) Less(o PeriodKey) bool {
	return k.Compare(o) < 0
}

// String renders the key without zero padding, e.g. "2025-9".
func (k PeriodKey) String() string {
	return strconv.Itoa(k.Year) + "-" + strconv.Itoa(k.Week)
}

// ParsePeriodKey accepts "2025-9", "2025-09" and "2025-W09".
func ParsePeriodKey(s string) (PeriodKey, error) {
	year, week, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return PeriodKey{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, s)
	}
	week = strings.TrimPrefix(strings.TrimPrefix(week, "W"), "w")
	y, err := strconv.Atoi(year)
	if err != nil {
		return PeriodKey{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, s)
	}
	w, err := strconv.Atoi(week)
	if err != nil {
		return PeriodKey{}, fmt.Errorf("%w: %q", ErrInvalidPeriodKey, s)
	}
	if w < 1 {
		return PeriodKey{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	return PeriodKey{Year: y, Week: w}, nil
}
