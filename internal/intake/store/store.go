// Package store persists the application aggregate across its six tables.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"startup-intake/internal/common/logger"
	"startup-intake/internal/intake/policy"
	"startup-intake/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound       = errors.New("APPLICATION_NOT_FOUND")
	ErrInsertFailed   = errors.New("DATABASE_INSERT_FAILED")
	ErrUpdateFailed   = errors.New("DATABASE_UPDATE_FAILED")
	ErrQueryFailed    = errors.New("QUERY_EXECUTION_FAILED")
	ErrDeleteFailed   = errors.New("DATABASE_DELETE_FAILED")
	errNoRowsAffected = errors.New("no rows affected")
)

// Repository is the persistence contract for application aggregates.
type Repository interface {
	Create(ctx context.Context, app *models.Application) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	Update(ctx context.Context, id int64, app *models.Application) error
	ListPage(ctx context.Context, limit, offset int, search string) (*Page, error)
	Delete(ctx context.Context, id int64) error
}

// Page is one window of application summaries and the total match count.
type Page struct {
	Items []models.ApplicationSummary
	Total int
}

type Store struct {
	db     *sql.DB
	logger logger.Logger
	tracer trace.Tracer
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
		tracer: otel.Tracer("startup-intake/store"),
	}
}

// Create writes a new aggregate in one transaction and returns its id.
func (s *Store) Create(ctx context.Context, app *models.Application) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "store.create")
	defer span.End()

	var id int64
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO startup_applications (
				startup_video_link, moa_file_url, reconstruction_file_url, created_at, updated_at
			) VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id`,
			app.StartupVideoLink,
			nullableRef(app.MoaFile),
			nullableRef(app.ReconstructionFile),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert application: %w", err)
		}
		return writeChildren(ctx, tx, id, app)
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.Error("create application failed", map[string]interface{}{"error": err.Error()})
		return 0, fmt.Errorf("%w: %w", ErrInsertFailed, err)
	}

	span.SetAttributes(attribute.Int64("application.id", id))
	s.logger.Info("application created", map[string]interface{}{
		"applicationId": id,
		"documents":     app.DocumentCount(),
	})
	return id, nil
}

// Update overwrites every table of an existing aggregate in one transaction.
func (s *Store) Update(ctx context.Context, id int64, app *models.Application) error {
	ctx, span := s.tracer.Start(ctx, "store.update", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()

	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE startup_applications
			SET startup_video_link = $2, moa_file_url = $3, reconstruction_file_url = $4, updated_at = NOW()
			WHERE id = $1`,
			id,
			app.StartupVideoLink,
			nullableRef(app.MoaFile),
			nullableRef(app.ReconstructionFile),
		)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update application: %w", err)
		} else if n == 0 {
			return errNoRowsAffected
		}
		return writeChildren(ctx, tx, id, app)
	})
	if errors.Is(err, errNoRowsAffected) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		recordSpanError(span, err)
		s.logger.Error("update application failed", map[string]interface{}{
			"applicationId": id,
			"error":         err.Error(),
		})
		return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}

	s.logger.Info("application updated", map[string]interface{}{
		"applicationId": id,
		"documents":     app.DocumentCount(),
	})
	return nil
}

// GetByID loads the full aggregate. Missing child rows read as empty
// sections, and annual accounts are padded to the three fiscal years.
func (s *Store) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "store.get", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()

	app := &models.Application{ID: id}
	err := s.inTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		var moa, recon sql.NullString
		err := tx.QueryRowContext(ctx, `
			SELECT startup_video_link, moa_file_url, reconstruction_file_url, created_at, updated_at
			FROM startup_applications
			WHERE id = $1`, id,
		).Scan(&app.StartupVideoLink, &moa, &recon, &app.CreatedAt, &app.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select application: %w", err)
		}
		app.MoaFile = refFromNull(moa)
		app.ReconstructionFile = refFromNull(recon)

		if err := readIncomeTax(ctx, tx, id, &app.IncomeTaxReturns); err != nil {
			return err
		}
		rows, err := readAnnualAccounts(ctx, tx, id)
		if err != nil {
			return err
		}
		app.AnnualAccounts = rows
		for _, t := range gradingTables {
			if err := t.read(ctx, tx, id, app); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	app.AnnualAccounts = models.NormalizeAnnualAccounts(app.AnnualAccounts)
	policy.Annotate(app)
	return app, nil
}

// ListPage returns one newest-first window of summaries. The window and the
// count run in the same snapshot so Total agrees with Items.
func (s *Store) ListPage(ctx context.Context, limit, offset int, search string) (*Page, error) {
	ctx, span := s.tracer.Start(ctx, "store.list")
	defer span.End()

	where, args := searchClause(search)
	page := &Page{Items: []models.ApplicationSummary{}}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := s.inTx(ctx, opts, func(tx *sql.Tx) error {
		query := `
			SELECT id, startup_video_link, moa_file_url, reconstruction_file_url, created_at, updated_at
			FROM startup_applications` + where + fmt.Sprintf(`
			ORDER BY created_at DESC, id DESC
			LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

		rows, err := tx.QueryContext(ctx, query, append(args, limit, offset)...)
		if err != nil {
			return fmt.Errorf("list applications: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item models.ApplicationSummary
			var moa, recon sql.NullString
			if err := rows.Scan(&item.ID, &item.StartupVideoLink, &moa, &recon, &item.CreatedAt, &item.UpdatedAt); err != nil {
				return fmt.Errorf("scan application: %w", err)
			}
			item.MoaFile = refFromNull(moa)
			item.ReconstructionFile = refFromNull(recon)
			page.Items = append(page.Items, item)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate applications: %w", err)
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM startup_applications`+where, args...).Scan(&page.Total); err != nil {
			return fmt.Errorf("count applications: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	span.SetAttributes(attribute.Int("result.count", len(page.Items)), attribute.Int("result.total", page.Total))
	return page, nil
}

// Delete removes an aggregate; child rows go with it by cascade.
func (s *Store) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "store.delete", trace.WithAttributes(attribute.Int64("application.id", id)))
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM startup_applications WHERE id = $1`, id)
	if err != nil {
		recordSpanError(span, err)
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	s.logger.Info("application deleted", map[string]interface{}{"applicationId": id})
	return nil
}

// inTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", map[string]interface{}{"error": rbErr.Error()})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func writeChildren(ctx context.Context, tx *sql.Tx, id int64, app *models.Application) error {
	itr := app.IncomeTaxReturns
	_, err := tx.ExecContext(ctx, `
		INSERT INTO income_tax_returns (startup_application_id, fy2024_25_url, fy2023_24_url, fy2022_23_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (startup_application_id) DO UPDATE SET
			fy2024_25_url = EXCLUDED.fy2024_25_url,
			fy2023_24_url = EXCLUDED.fy2023_24_url,
			fy2022_23_url = EXCLUDED.fy2022_23_url`,
		id, nullableRef(itr.FY2024_25), nullableRef(itr.FY2023_24), nullableRef(itr.FY2022_23),
	)
	if err != nil {
		return fmt.Errorf("write income tax returns: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM annual_accounts WHERE startup_application_id = $1`, id); err != nil {
		return fmt.Errorf("clear annual accounts: %w", err)
	}
	for _, row := range models.NormalizeAnnualAccounts(app.AnnualAccounts) {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO annual_accounts (
				startup_application_id, year, revenue, profit_loss, balance_sheet_url, profit_loss_doc_url
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			id, row.Year, row.Revenue, row.ProfitLoss,
			nullableRef(row.BalanceSheet), nullableRef(row.ProfitLossDoc),
		)
		if err != nil {
			return fmt.Errorf("insert annual account %s: %w", row.Year, err)
		}
	}

	for _, t := range gradingTables {
		if err := t.write(ctx, tx, id, app); err != nil {
			return err
		}
	}
	return nil
}

func readIncomeTax(ctx context.Context, tx *sql.Tx, id int64, out *models.IncomeTaxReturns) error {
	var a, b, c sql.NullString
	err := tx.QueryRowContext(ctx, `
		SELECT fy2024_25_url, fy2023_24_url, fy2022_23_url
		FROM income_tax_returns
		WHERE startup_application_id = $1`, id,
	).Scan(&a, &b, &c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select income tax returns: %w", err)
	}
	out.FY2024_25 = refFromNull(a)
	out.FY2023_24 = refFromNull(b)
	out.FY2022_23 = refFromNull(c)
	return nil
}

func readAnnualAccounts(ctx context.Context, tx *sql.Tx, id int64) ([]models.AnnualAccount, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT year, revenue, profit_loss, balance_sheet_url, profit_loss_doc_url
		FROM annual_accounts
		WHERE startup_application_id = $1
		ORDER BY year DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("select annual accounts: %w", err)
	}
	defer rows.Close()

	var out []models.AnnualAccount
	for rows.Next() {
		var row models.AnnualAccount
		var bs, pl sql.NullString
		if err := rows.Scan(&row.Year, &row.Revenue, &row.ProfitLoss, &bs, &pl); err != nil {
			return nil, fmt.Errorf("scan annual account: %w", err)
		}
		row.BalanceSheet = refFromNull(bs)
		row.ProfitLossDoc = refFromNull(pl)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annual accounts: %w", err)
	}
	return out, nil
}

// searchClause matches the video link case-insensitively as a substring.
func searchClause(search string) (string, []interface{}) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	return `
			WHERE startup_video_link ILIKE $1 ESCAPE '\'`, []interface{}{"%" + escapeLike(search) + "%"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableRef(p *string) interface{} {
	if p == nil {
		return nil
	}
	return nullable(*p)
}

func refFromNull(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	v := ns.String
	return &v
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
