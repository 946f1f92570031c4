package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type InsuranceRecord struct {
	ID               int64
	PolicyStartYear  int64
	WeekNumber       int64
	SignedPremium    float64
	MaturedPremium   float64
	LossAmount       float64
	BusinessType     string
	Organization     string
	CustomerCategory string
	InsuranceType    string
}

const insertRecord = `-- name: InsertRecord :exec
INSERT INTO insurance_records (
    policy_start_year, week_number, signed_premium, matured_premium, loss_amount,
    business_type, organization, customer_category, insurance_type
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertRecordParams struct {
	PolicyStartYear  int64
	WeekNumber       int64
	SignedPremium    float64
	MaturedPremium   float64
	LossAmount       float64
	BusinessType     string
	Organization     string
	CustomerCategory string
	InsuranceType    string
}

func (q *Queries) InsertRecord(ctx context.Context, arg InsertRecordParams) error {
	_, err := q.db.ExecContext(ctx, insertRecord,
		arg.PolicyStartYear,
		arg.WeekNumber,
		arg.SignedPremium,
		arg.MaturedPremium,
		arg.LossAmount,
		arg.BusinessType,
		arg.Organization,
		arg.CustomerCategory,
		arg.InsuranceType,
	)
	return err
}

const listRecords = `-- name: ListRecords :many
SELECT id, policy_start_year, week_number, signed_premium, matured_premium, loss_amount,
       business_type, organization, customer_category, insurance_type
FROM insurance_records
ORDER BY policy_start_year, week_number, id
`

func (q *Queries) ListRecords(ctx context.Context) ([]InsuranceRecord, error) {
	rows, err := q.db.QueryContext(ctx, listRecords)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InsuranceRecord
	for rows.Next() {
		var i InsuranceRecord
		if err := rows.Scan(
			&i.ID,
			&i.PolicyStartYear,
			&i.WeekNumber,
			&i.SignedPremium,
			&i.MaturedPremium,
			&i.LossAmount,
			&i.BusinessType,
			&i.Organization,
			&i.CustomerCategory,
			&i.InsuranceType,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecordsByYear = `-- name: ListRecordsByYear :many
SELECT id, policy_start_year, week_number, signed_premium, matured_premium, loss_amount,
       business_type, organization, customer_category, insurance_type
FROM insurance_records
WHERE policy_start_year = ?
ORDER BY week_number, id
`

func (q *Queries) ListRecordsByYear(ctx context.Context, year int64) ([]InsuranceRecord, error) {
	rows, err := q.db.QueryContext(ctx, listRecordsByYear, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InsuranceRecord
	for rows.Next() {
		var i InsuranceRecord
		if err := rows.Scan(
			&i.ID,
			&i.PolicyStartYear,
			&i.WeekNumber,
			&i.SignedPremium,
			&i.MaturedPremium,
			&i.LossAmount,
			&i.BusinessType,
			&i.Organization,
			&i.CustomerCategory,
			&i.InsuranceType,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countRecords = `-- name: CountRecords :one
SELECT COUNT(*) FROM insurance_records
`

func (q *Queries) CountRecords(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countRecords)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const deleteAllRecords = `-- name: DeleteAllRecords :exec
DELETE FROM insurance_records
`

func (q *Queries) DeleteAllRecords(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllRecords)
	return err
}
