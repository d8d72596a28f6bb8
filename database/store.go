package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is the Postgres-backed repository for companies, IPOs and their
// satellite tables.
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, now: time.Now}
}

const companyColumns = `id, name, symbol, description, industry, founded_year, headquarters,
	website, ceo, employees, created_at, updated_at`

const ipoColumns = `id, company_id, status, exchange, price_band_min, price_band_max, final_price,
	open_date, close_date, listing_date, total_shares, lot_size, issue_size, market_cap,
	subscription_rate, listing_gains, lead_managers, registrar, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner, c *models.Company, extra ...interface{}) error {
	dest := []interface{}{
		&c.ID, &c.Name, &c.Symbol, &c.Description, &c.Industry, &c.FoundedYear, &c.Headquarters,
		&c.Website, &c.CEO, &c.Employees, &c.CreatedAt, &c.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func scanIPO(row rowScanner, i *models.IPO, extra ...interface{}) error {
	dest := []interface{}{
		&i.ID, &i.CompanyID, &i.Status, &i.Exchange, &i.PriceBandMin, &i.PriceBandMax, &i.FinalPrice,
		&i.OpenDate, &i.CloseDate, &i.ListingDate, &i.TotalShares, &i.LotSize, &i.IssueSize, &i.MarketCap,
		&i.SubscriptionRate, &i.ListingGains, &i.LeadManagers, &i.Registrar, &i.CreatedAt, &i.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	i.OpenDate = models.CalendarDate(i.OpenDate)
	i.CloseDate = models.CalendarDate(i.CloseDate)
	if i.ListingDate != nil {
		listing := models.CalendarDate(*i.ListingDate)
		i.ListingDate = &listing
	}
	return nil
}

// dateArg renders a calendar date as a DATE literal so the session time zone
// cannot shift it.
func dateArg(t time.Time) string {
	return t.Format(models.DateLayout)
}

func nullableDateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateArg(*t)
}

// GetCompanyBySymbol returns nil, nil when the symbol is unknown.
func (s *Store) GetCompanyBySymbol(ctx context.Context, symbol string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE symbol = $1`

	var company models.Company
	if err := scanCompany(s.DB.QueryRowContext(ctx, query, symbol), &company); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classifyError(err, "get company")
	}
	return &company, nil
}

// GetOrCreateCompany inserts c unless its symbol exists and returns the stored
// row. created is true only when this call inserted it.
func (s *Store) GetOrCreateCompany(ctx context.Context, c *models.Company) (*models.Company, bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := s.now()

	// The no-op update makes RETURNING yield the existing row; xmax is zero
	// only for freshly inserted tuples.
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (symbol) DO UPDATE SET symbol = EXCLUDED.symbol
		RETURNING ` + companyColumns + `, (xmax = 0) AS inserted`

	var stored models.Company
	var created bool
	err := scanCompany(s.DB.QueryRowContext(ctx, query,
		c.ID, c.Name, c.Symbol, c.Description, c.Industry, c.FoundedYear, c.Headquarters,
		c.Website, c.CEO, c.Employees, now,
	), &stored, &created)
	if err != nil {
		return nil, false, classifyError(err, "upsert company")
	}
	return &stored, created, nil
}

// UpdateCompanyProfile overwrites profile columns with the non-empty values of update
func (s *Store) UpdateCompanyProfile(ctx context.Context, companyID uuid.UUID, update models.CompanyProfileUpdate) error {
	query := `
		UPDATE companies SET
			industry = COALESCE(NULLIF($2, ''), industry),
			headquarters = COALESCE(NULLIF($3, ''), headquarters),
			website = COALESCE(NULLIF($4, ''), website),
			updated_at = $5
		WHERE id = $1`

	_, err := s.DB.ExecContext(ctx, query, companyID, update.Industry, update.Headquarters, update.Website, s.now())
	return classifyError(err, "update company profile")
}

// GetIPOByCompany returns the company's IPO or nil, nil when it has none
func (s *Store) GetIPOByCompany(ctx context.Context, companyID uuid.UUID) (*models.IPO, error) {
	query := `SELECT ` + ipoColumns + ` FROM ipos WHERE company_id = $1`

	var ipo models.IPO
	if err := scanIPO(s.DB.QueryRowContext(ctx, query, companyID), &ipo); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classifyError(err, "get ipo")
	}
	return &ipo, nil
}

func ipoInsertArgs(ipo *models.IPO, now time.Time) []interface{} {
	return []interface{}{
		ipo.ID, ipo.CompanyID, ipo.Status, ipo.Exchange, ipo.PriceBandMin, ipo.PriceBandMax, ipo.FinalPrice,
		dateArg(ipo.OpenDate), dateArg(ipo.CloseDate), nullableDateArg(ipo.ListingDate),
		ipo.TotalShares, ipo.LotSize, ipo.IssueSize, ipo.MarketCap,
		ipo.SubscriptionRate, ipo.ListingGains, ipo.LeadManagers, ipo.Registrar, now,
	}
}

// UpsertIPO inserts ipo for its company or, when the company already has one,
// refreshes only status and price band. ipo is overwritten with the stored
// row. created reports which branch ran.
func (s *Store) UpsertIPO(ctx context.Context, ipo *models.IPO) (bool, error) {
	if ipo.ID == uuid.Nil {
		ipo.ID = uuid.New()
	}

	query := `
		INSERT INTO ipos (` + ipoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		ON CONFLICT (company_id) DO UPDATE SET
			status = EXCLUDED.status,
			price_band_min = EXCLUDED.price_band_min,
			price_band_max = EXCLUDED.price_band_max,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + ipoColumns + `, (xmax = 0) AS inserted`

	var created bool
	var stored models.IPO
	if err := scanIPO(s.DB.QueryRowContext(ctx, query, ipoInsertArgs(ipo, s.now())...), &stored, &created); err != nil {
		return false, classifyError(err, "upsert ipo")
	}
	*ipo = stored
	return created, nil
}

// InsertIPOIfAbsent creates ipo unless the company already has one, in which
// case ipo is replaced by the stored row and false is returned.
func (s *Store) InsertIPOIfAbsent(ctx context.Context, ipo *models.IPO) (bool, error) {
	if ipo.ID == uuid.Nil {
		ipo.ID = uuid.New()
	}

	query := `
		INSERT INTO ipos (` + ipoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		ON CONFLICT (company_id) DO NOTHING
		RETURNING ` + ipoColumns

	var stored models.IPO
	err := scanIPO(s.DB.QueryRowContext(ctx, query, ipoInsertArgs(ipo, s.now())...), &stored)
	if err == sql.ErrNoRows {
		existing, getErr := s.GetIPOByCompany(ctx, ipo.CompanyID)
		if getErr != nil {
			return false, getErr
		}
		if existing != nil {
			*ipo = *existing
		}
		return false, nil
	}
	if err != nil {
		return false, classifyError(err, "insert ipo")
	}
	*ipo = stored
	return true, nil
}

// UpsertFinancialMetrics stores the company's metrics, replacing earlier values
func (s *Store) UpsertFinancialMetrics(ctx context.Context, f *models.FinancialMetrics) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := s.now()

	query := `
		INSERT INTO financial_metrics (id, company_id, revenue_fy1, revenue_fy2, revenue_fy3,
			profit_fy1, profit_fy2, profit_fy3, pe_ratio, roe, debt_to_equity, book_value_per_share,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		ON CONFLICT (company_id) DO UPDATE SET
			revenue_fy1 = EXCLUDED.revenue_fy1,
			revenue_fy2 = EXCLUDED.revenue_fy2,
			revenue_fy3 = EXCLUDED.revenue_fy3,
			profit_fy1 = EXCLUDED.profit_fy1,
			profit_fy2 = EXCLUDED.profit_fy2,
			profit_fy3 = EXCLUDED.profit_fy3,
			pe_ratio = EXCLUDED.pe_ratio,
			roe = EXCLUDED.roe,
			debt_to_equity = EXCLUDED.debt_to_equity,
			book_value_per_share = EXCLUDED.book_value_per_share,
			updated_at = EXCLUDED.updated_at`

	_, err := s.DB.ExecContext(ctx, query,
		f.ID, f.CompanyID, f.RevenueFY1, f.RevenueFY2, f.RevenueFY3,
		f.ProfitFY1, f.ProfitFY2, f.ProfitFY3, f.PERatio, f.ROE, f.DebtToEquity, f.BookValuePerShare, now,
	)
	return classifyError(err, "upsert financial metrics")
}

func nullableRating(r models.AnalystRating) interface{} {
	if r == "" {
		return nil
	}
	return string(r)
}

// UpsertMarketData stores the IPO's market data, replacing earlier values
func (s *Store) UpsertMarketData(ctx context.Context, m *models.MarketData) error {
	if err := m.Validate(); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryValidation, "INVALID_MARKET_DATA",
			err.Error(), "database", "upsert market data", false, err)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := s.now()

	query := `
		INSERT INTO market_data (id, ipo_id, retail_subscription, hni_subscription,
			institutional_subscription, grey_market_premium, analyst_rating, risk_score,
			application_count, amount_collected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (ipo_id) DO UPDATE SET
			retail_subscription = EXCLUDED.retail_subscription,
			hni_subscription = EXCLUDED.hni_subscription,
			institutional_subscription = EXCLUDED.institutional_subscription,
			grey_market_premium = EXCLUDED.grey_market_premium,
			analyst_rating = EXCLUDED.analyst_rating,
			risk_score = EXCLUDED.risk_score,
			application_count = EXCLUDED.application_count,
			amount_collected = EXCLUDED.amount_collected,
			updated_at = EXCLUDED.updated_at`

	_, err := s.DB.ExecContext(ctx, query,
		m.ID, m.IPOID, m.RetailSubscription, m.HNISubscription, m.InstitutionalSubscription,
		m.GreyMarketPremium, nullableRating(m.AnalystRating), m.RiskScore, m.ApplicationCount,
		m.AmountCollected, now,
	)
	return classifyError(err, "upsert market data")
}

// UpdateMarketSignals records a scraped grey market premium and, when known,
// the overall subscription rate, in one transaction.
func (s *Store) UpdateMarketSignals(ctx context.Context, ipoID uuid.UUID, gmp float64, subscription *float64) error {
	now := s.now()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return classifyError(err, "begin market signals")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO market_data (id, ipo_id, grey_market_premium, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (ipo_id) DO UPDATE SET
			grey_market_premium = EXCLUDED.grey_market_premium,
			updated_at = EXCLUDED.updated_at`,
		uuid.New(), ipoID, gmp, now)
	if err != nil {
		return classifyError(err, "update grey market premium")
	}

	if subscription != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE ipos SET subscription_rate = $2, updated_at = $3 WHERE id = $1`,
			ipoID, *subscription, now)
		if err != nil {
			return classifyError(err, "update subscription rate")
		}
	}

	return classifyError(tx.Commit(), "commit market signals")
}

// RefreshStatuses advances non-cancelled IPOs along upcoming, ongoing,
// completed using the stored open date and returns the number of rows changed.
// A status is never moved backwards: a sync may have derived it from a newer
// calendar date than the one stored.
func (s *Store) RefreshStatuses(ctx context.Context, today time.Time) (int64, error) {
	query := `
		WITH derived AS (
			SELECT id,
				CASE
					WHEN open_date > $1::date THEN 'upcoming'
					WHEN open_date = $1::date THEN 'ongoing'
					ELSE 'completed'
				END AS status,
				CASE
					WHEN open_date > $1::date THEN 0
					WHEN open_date = $1::date THEN 1
					ELSE 2
				END AS stage,
				CASE status
					WHEN 'upcoming' THEN 0
					WHEN 'ongoing' THEN 1
					ELSE 2
				END AS current_stage
			FROM ipos
			WHERE status <> 'cancelled'
		)
		UPDATE ipos SET status = derived.status, updated_at = $2
		FROM derived
		WHERE ipos.id = derived.id AND derived.stage > derived.current_stage`

	result, err := s.DB.ExecContext(ctx, query, dateArg(today), s.now())
	if err != nil {
		return 0, classifyError(err, "refresh statuses")
	}
	return result.RowsAffected()
}

const listItemSelect = `SELECT i.id, i.company_id, i.status, i.exchange, i.price_band_min, i.price_band_max,
	i.final_price, i.open_date, i.close_date, i.listing_date, i.total_shares, i.lot_size, i.issue_size,
	i.market_cap, i.subscription_rate, i.listing_gains, i.lead_managers, i.registrar, i.created_at,
	i.updated_at, c.name, c.symbol, c.industry, m.grey_market_premium
	FROM ipos i
	JOIN companies c ON c.id = i.company_id
	LEFT JOIN market_data m ON m.ipo_id = i.id`

// ListIPOs returns IPOs matching filter, most recent open date first
func (s *Store) ListIPOs(ctx context.Context, filter models.IPOFilter) ([]models.IPOListItem, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	if filter.Exchange != "" {
		args = append(args, filter.Exchange)
		conditions = append(conditions, fmt.Sprintf("i.exchange = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(c.name ILIKE $%d OR c.symbol ILIKE $%d OR c.industry ILIKE $%d)", len(args), len(args), len(args)))
	}

	query := listItemSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY i.open_date DESC, c.name ASC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classifyError(err, "list ipos")
	}
	defer rows.Close()

	items := []models.IPOListItem{}
	for rows.Next() {
		var item models.IPOListItem
		if err := scanIPO(rows, &item.IPO, &item.CompanyName, &item.CompanySymbol, &item.Industry, &item.GreyMarketPremium); err != nil {
			return nil, fmt.Errorf("failed to scan IPO row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyError(err, "list ipos")
	}
	return items, nil
}

// GetIPODetail loads an IPO with its company, financials, market data and
// latest news. Returns nil, nil for an unknown id.
func (s *Store) GetIPODetail(ctx context.Context, id uuid.UUID, newsLimit int) (*models.IPODetail, error) {
	query := `SELECT i.id, i.company_id, i.status, i.exchange, i.price_band_min, i.price_band_max,
		i.final_price, i.open_date, i.close_date, i.listing_date, i.total_shares, i.lot_size, i.issue_size,
		i.market_cap, i.subscription_rate, i.listing_gains, i.lead_managers, i.registrar, i.created_at,
		i.updated_at, c.id, c.name, c.symbol, c.description, c.industry, c.founded_year, c.headquarters,
		c.website, c.ceo, c.employees, c.created_at, c.updated_at
		FROM ipos i JOIN companies c ON c.id = i.company_id
		WHERE i.id = $1`

	var detail models.IPODetail
	c := &detail.Company
	err := scanIPO(s.DB.QueryRowContext(ctx, query, id), &detail.IPO,
		&c.ID, &c.Name, &c.Symbol, &c.Description, &c.Industry, &c.FoundedYear, &c.Headquarters,
		&c.Website, &c.CEO, &c.Employees, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, classifyError(err, "get ipo detail")
	}

	if detail.Financials, err = s.getFinancialMetrics(ctx, c.ID); err != nil {
		return nil, err
	}
	if detail.MarketData, err = s.getMarketData(ctx, id); err != nil {
		return nil, err
	}
	if detail.News, err = s.listNewsForIPO(ctx, id, newsLimit); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *Store) getFinancialMetrics(ctx context.Context, companyID uuid.UUID) (*models.FinancialMetrics, error) {
	query := `SELECT id, company_id, revenue_fy1, revenue_fy2, revenue_fy3, profit_fy1, profit_fy2,
		profit_fy3, pe_ratio, roe, debt_to_equity, book_value_per_share, created_at, updated_at
		FROM financial_metrics WHERE company_id = $1`

	var f models.FinancialMetrics
	err := s.DB.QueryRowContext(ctx, query, companyID).Scan(
		&f.ID, &f.CompanyID, &f.RevenueFY1, &f.RevenueFY2, &f.RevenueFY3, &f.ProfitFY1, &f.ProfitFY2,
		&f.ProfitFY3, &f.PERatio, &f.ROE, &f.DebtToEquity, &f.BookValuePerShare, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyError(err, "get financial metrics")
	}
	return &f, nil
}

func (s *Store) getMarketData(ctx context.Context, ipoID uuid.UUID) (*models.MarketData, error) {
	query := `SELECT id, ipo_id, retail_subscription, hni_subscription, institutional_subscription,
		grey_market_premium, analyst_rating, risk_score, application_count, amount_collected,
		created_at, updated_at
		FROM market_data WHERE ipo_id = $1`

	var m models.MarketData
	var rating sql.NullString
	err := s.DB.QueryRowContext(ctx, query, ipoID).Scan(
		&m.ID, &m.IPOID, &m.RetailSubscription, &m.HNISubscription, &m.InstitutionalSubscription,
		&m.GreyMarketPremium, &rating, &m.RiskScore, &m.ApplicationCount, &m.AmountCollected,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, classifyError(err, "get market data")
	}
	m.AnalystRating = models.AnalystRating(rating.String)
	return &m, nil
}

const newsColumns = `id, ipo_id, title, content, source, published_date, url, created_at`

func scanNews(rows *sql.Rows) ([]models.IPONews, error) {
	news := []models.IPONews{}
	for rows.Next() {
		var n models.IPONews
		if err := rows.Scan(&n.ID, &n.IPOID, &n.Title, &n.Content, &n.Source, &n.PublishedDate, &n.URL, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}
		news = append(news, n)
	}
	return news, rows.Err()
}

func (s *Store) listNewsForIPO(ctx context.Context, ipoID uuid.UUID, limit int) ([]models.IPONews, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM ipo_news WHERE ipo_id = $1 ORDER BY published_date DESC LIMIT $2`,
		ipoID, limit)
	if err != nil {
		return nil, classifyError(err, "list ipo news")
	}
	defer rows.Close()
	return scanNews(rows)
}

// ListNews returns the most recent articles across all IPOs
func (s *Store) ListNews(ctx context.Context, limit int) ([]models.IPONews, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM ipo_news ORDER BY published_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, classifyError(err, "list news")
	}
	defer rows.Close()
	return scanNews(rows)
}

// InsertNews stores an article unless the same URL is already attached to the IPO
func (s *Store) InsertNews(ctx context.Context, n *models.IPONews) (bool, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}

	result, err := s.DB.ExecContext(ctx, `
		INSERT INTO ipo_news (`+newsColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ipo_id, url) DO NOTHING`,
		n.ID, n.IPOID, truncate(n.Title, 300), n.Content, truncate(n.Source, 100), n.PublishedDate,
		truncate(n.URL, 500), s.now(),
	)
	if err != nil {
		return false, classifyError(err, "insert news")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, classifyError(err, "insert news")
	}
	return affected == 1, nil
}

// ListIPOReferences returns every IPO with its company name and symbol
func (s *Store) ListIPOReferences(ctx context.Context) ([]models.IPOReference, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT i.id, c.id, c.name, c.symbol, i.status
		FROM ipos i JOIN companies c ON c.id = i.company_id
		ORDER BY i.open_date DESC`)
	if err != nil {
		return nil, classifyError(err, "list ipo references")
	}
	defer rows.Close()

	var refs []models.IPOReference
	for rows.Next() {
		var ref models.IPOReference
		if err := rows.Scan(&ref.IPOID, &ref.CompanyID, &ref.CompanyName, &ref.Symbol, &ref.Status); err != nil {
			return nil, fmt.Errorf("failed to scan ipo reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// Counts returns row counts for every table
func (s *Store) Counts(ctx context.Context) (models.EntityCounts, error) {
	var counts models.EntityCounts
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM ipos),
			(SELECT COUNT(*) FROM financial_metrics),
			(SELECT COUNT(*) FROM market_data),
			(SELECT COUNT(*) FROM ipo_news)`,
	).Scan(&counts.Companies, &counts.IPOs, &counts.FinancialMetrics, &counts.MarketData, &counts.News)
	if err != nil {
		return counts, classifyError(err, "count rows")
	}

	logrus.WithFields(logrus.Fields{
		"component": "database",
		"companies": counts.Companies,
		"ipos":      counts.IPOs,
	}).Debug("Counted rows")

	return counts, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
