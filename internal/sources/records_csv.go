package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"insuralytics/internal/core"
)

var ErrMissingColumn = errors.New("missing required column")

type column int

const (
	colYear column = iota
	colWeek
	colSigned
	colMatured
	colLoss
	colBusinessType
	colOrganization
	colCustomerCategory
	colInsuranceType
	numColumns
)

// Accepted header names per column, compared after normalization and lowercasing.
var columnAliases = [numColumns][]string{
	colYear:             {"policy_start_year", "保单起保年度"},
	colWeek:             {"week_number", "week", "周次"},
	colSigned:           {"signed_premium", "signed_premium_yuan", "签单保费"},
	colMatured:          {"matured_premium", "matured_premium_yuan", "满期保费"},
	colLoss:             {"loss_amount", "reported_claim_payment_yuan", "赔款"},
	colBusinessType:     {"business_type", "business_type_category", "业务类型"},
	colOrganization:     {"organization", "third_level_organization", "三级机构"},
	colCustomerCategory: {"customer_category", "customer_category_3", "客户类别"},
	colInsuranceType:    {"insurance_type", "险种"},
}

// ReadRecordsCSV parses a headered record file. Year and week columns are
// required; missing numeric values read as zero. Bad rows are collected in a
// *core.ValidationError returned together with the valid records.
func ReadRecordsCSV(r io.Reader) ([]core.InsuranceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record csv header: %w", err)
	}
	index, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var (
		records []core.InsuranceRecord
		failed  []core.RowError
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(row) {
			continue
		}
		rec, reason := parseRecord(row, index)
		if reason != "" {
			failed = append(failed, core.RowError{Line: line, Value: strings.Join(row, ","), Reason: reason})
			continue
		}
		records = append(records, rec)
	}

	if len(failed) > 0 {
		return records, &core.ValidationError{Rows: failed}
	}
	return records, nil
}

func mapColumns(header []string) ([numColumns]int, error) {
	var index [numColumns]int
	for i := range index {
		index[i] = -1
	}
	for pos, name := range header {
		key := strings.ToLower(core.Normalize(strings.TrimPrefix(name, "\ufeff")))
		for col, aliases := range columnAliases {
			for _, alias := range aliases {
				if key == alias && index[col] == -1 {
					index[col] = pos
				}
			}
		}
	}
	if index[colYear] == -1 {
		return index, fmt.Errorf("%w: policy_start_year", ErrMissingColumn)
	}
	if index[colWeek] == -1 {
		return index, fmt.Errorf("%w: week_number", ErrMissingColumn)
	}
	return index, nil
}

func parseRecord(row []string, index [numColumns]int) (core.InsuranceRecord, string) {
	field := func(c column) string {
		i := index[c]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	year, err := strconv.Atoi(field(colYear))
	if err != nil {
		return core.InsuranceRecord{}, "malformed policy start year"
	}
	week, err := strconv.Atoi(field(colWeek))
	if err != nil {
		return core.InsuranceRecord{}, "malformed week number"
	}

	var amounts [3]float64
	for i, c := range []column{colSigned, colMatured, colLoss} {
		s := field(c)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return core.InsuranceRecord{}, "malformed amount"
		}
		amounts[i] = v
	}

	rec := core.InsuranceRecord{
		PolicyStartYear:  year,
		WeekNumber:       week,
		SignedPremium:    amounts[0],
		MaturedPremium:   amounts[1],
		LossAmount:       amounts[2],
		BusinessType:     field(colBusinessType),
		Organization:     field(colOrganization),
		CustomerCategory: field(colCustomerCategory),
		InsuranceType:    field(colInsuranceType),
	}
	if err := rec.Validate(); err != nil {
		return core.InsuranceRecord{}, err.Error()
	}
	return rec, ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
