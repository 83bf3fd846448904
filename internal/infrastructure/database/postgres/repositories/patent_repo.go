// Package repositories provides PostgreSQL-backed implementations of the
// domain repository interfaces.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// querier is the subset of pgxpool.Pool the repository needs; it lets tests
// substitute a transaction or a fake.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ querier = (*pgxpool.Pool)(nil)

// PatentRepository is the PostgreSQL implementation of patent.Repository.
// Every method accepts a context for cancellation propagation and uses
// parameterised queries exclusively.
type PatentRepository struct {
	db  querier
	log logging.Logger
}

var _ patent.Repository = (*PatentRepository)(nil)

// NewPatentRepository constructs a ready-to-use PatentRepository.
func NewPatentRepository(db querier, log logging.Logger) *PatentRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PatentRepository{db: db, log: log.Named("patent_repo")}
}

const applicationColumns = `
	application_number, publication_number, patent_number, title, decision,
	date_produced, date_published, filing_date, patent_issue_date, abandon_date,
	classification, examiner, inventors, content`

// Insert stores a new application.  A duplicate application number maps to
// ErrCodePatentAlreadyExists.
func (r *PatentRepository) Insert(ctx context.Context, app *patent.Application) error {
	if err := app.Validate(); err != nil {
		return err
	}

	classification, err := json.Marshal(app.Classification)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding classification")
	}
	examiner, err := json.Marshal(app.Examiner)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding examiner")
	}
	inventors, err := json.Marshal(app.Inventors)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding inventors")
	}
	content, err := json.Marshal(app.Content)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding content")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		app.Metadata.ApplicationNumber,
		nullable(app.Metadata.PublicationNumber),
		nullable(app.Metadata.PatentNumber),
		app.Metadata.Title,
		app.Metadata.Decision,
		app.Dates.DateProduced,
		app.Dates.DatePublished,
		app.Dates.FilingDate,
		app.Dates.PatentIssueDate,
		app.Dates.AbandonDate,
		classification,
		examiner,
		inventors,
		content,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return errors.Wrap(err, errors.ErrCodePatentAlreadyExists,
				"application "+app.Metadata.ApplicationNumber+" already stored")
		}
		r.log.Error("insert application failed",
			logging.String("application_number", app.Metadata.ApplicationNumber),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting application")
	}
	return nil
}

// FindByApplicationNumber loads one application by its application number.
func (r *PatentRepository) FindByApplicationNumber(ctx context.Context, applicationNumber string) (*patent.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE application_number = $1`,
		applicationNumber)
	return r.scanApplication(row)
}

// FindByPublicationNumber loads one application by its publication number.
func (r *PatentRepository) FindByPublicationNumber(ctx context.Context, publicationNumber string) (*patent.Application, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE publication_number = $1`,
		publicationNumber)
	return r.scanApplication(row)
}

// ExistsByPublicationNumber reports whether the publication number is stored.
func (r *PatentRepository) ExistsByPublicationNumber(ctx context.Context, publicationNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE publication_number = $1)`,
		publicationNumber).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeDatabaseError, "checking publication number")
	}
	return exists, nil
}

// List returns applications matching filter, newest filing first.
func (r *PatentRepository) List(ctx context.Context, filter patent.Filter) ([]*patent.Application, error) {
	where, args := buildFilterClause(filter)
	page := filter.Page.Normalize()

	query := `SELECT ` + applicationColumns + ` FROM applications` + where +
		fmt.Sprintf(` ORDER BY filing_date DESC LIMIT %d OFFSET %d`, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing applications")
	}
	defer rows.Close()

	var out []*patent.Application
	for rows.Next() {
		app, err := r.scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "iterating applications")
	}
	return out, nil
}

// Count returns the number of applications matching filter.
func (r *PatentRepository) Count(ctx context.Context, filter patent.Filter) (int64, error) {
	where, args := buildFilterClause(filter)

	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM applications`+where, args...).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "counting applications")
	}
	return n, nil
}

// buildFilterClause renders filter into a WHERE clause and its positional
// arguments.  An empty filter yields an empty clause.
func buildFilterClause(filter patent.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Decision != "" {
		add("decision = $%d", filter.Decision)
	}
	if filter.MainCPCLabel != "" {
		add("classification ->> 'main_cpc_label' = $%d", filter.MainCPCLabel)
	}
	if !filter.FiledFrom.IsZero() {
		add("filing_date >= $%d", filter.FiledFrom)
	}
	if !filter.FiledTo.IsZero() {
		add("filing_date <= $%d", filter.FiledTo)
	}
	if filter.TitleQuery != "" {
		add("to_tsvector('english', title) @@ plainto_tsquery('english', $%d)", filter.TitleQuery)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanApplication maps one applications row onto the aggregate.
func (r *PatentRepository) scanApplication(row pgx.Row) (*patent.Application, error) {
	var (
		app               patent.Application
		publicationNumber *string
		patentNumber      *string
		classification    []byte
		examiner          []byte
		inventors         []byte
		content           []byte
	)

	err := row.Scan(
		&app.Metadata.ApplicationNumber,
		&publicationNumber,
		&patentNumber,
		&app.Metadata.Title,
		&app.Metadata.Decision,
		&app.Dates.DateProduced,
		&app.Dates.DatePublished,
		&app.Dates.FilingDate,
		&app.Dates.PatentIssueDate,
		&app.Dates.AbandonDate,
		&classification,
		&examiner,
		&inventors,
		&content,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrCodePatentNotFound, "application not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning application row")
	}

	if publicationNumber != nil {
		app.Metadata.PublicationNumber = *publicationNumber
	}
	if patentNumber != nil {
		app.Metadata.PatentNumber = *patentNumber
	}
	if err := json.Unmarshal(classification, &app.Classification); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding classification")
	}
	if err := json.Unmarshal(examiner, &app.Examiner); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding examiner")
	}
	if err := json.Unmarshal(inventors, &app.Inventors); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding inventors")
	}
	if err := json.Unmarshal(content, &app.Content); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding content")
	}
	return &app, nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
