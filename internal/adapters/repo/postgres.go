package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"panchang-backend/internal/domain"
	"panchang-backend/internal/infra/metrics"
)

// Postgres implements the repositories on pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.PanchangRepo       = (*Postgres)(nil)
	_ domain.UserRepo           = (*Postgres)(nil)
	_ domain.CredentialRepo     = (*Postgres)(nil)
	_ domain.ChatRepo           = (*Postgres)(nil)
	_ domain.InsightRepo        = (*Postgres)(nil)
	_ domain.ScheduleTaskRepo   = (*Postgres)(nil)
	_ domain.DeliveryStatusRepo = (*Postgres)(nil)
	_ domain.EventRepo          = (*Postgres)(nil)
	_ domain.FeedbackRepo       = (*Postgres)(nil)
)

// NewPostgres creates the database adapter.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// ---- almanac day cache ----

const panchangColumns = `date, location, sunrise, sunset, tithi, paksha, nakshatra, pada, yoga, karana, vara, rahu_kaal, gulika_kaal, yamaganda, abhijit_muhurat, brahma_muhurta, choghadiya, planets, generated_at`

// GetByDate returns the cached almanac row for a date key and location
// label, domain.ErrNotFound when the day was never generated.
func (p *Postgres) GetByDate(dateKey, location string) (domain.Panchang, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var (
		day        domain.Panchang
		rahu       []byte
		gulika     []byte
		yamaganda  []byte
		abhijit    []byte
		brahma     []byte
		choghadiya []byte
		planets    []byte
	)

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT `+panchangColumns+`
FROM panchang_days WHERE date=$1::date AND location=$2
`, dateKey, location).Scan(&day.Date, &day.Location, &day.Sunrise, &day.Sunset, &day.Tithi, &day.Paksha, &day.Nakshatra, &day.Pada, &day.Yoga, &day.Karana, &day.Vara, &rahu, &gulika, &yamaganda, &abhijit, &brahma, &choghadiya, &planets, &day.GeneratedAt)
	metrics.ObserveNetworkRequest("postgres", "panchang_get_by_date", "panchang_days", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Panchang{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Panchang{}, err
	}
	for _, f := range []struct {
		raw []byte
		out any
	}{
		{rahu, &day.RahuKaal},
		{gulika, &day.GulikaKaal},
		{yamaganda, &day.Yamaganda},
		{abhijit, &day.AbhijitMuhurat},
		{brahma, &day.BrahmaMuhurta},
		{choghadiya, &day.Choghadiya},
		{planets, &day.Planets},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.out); err != nil {
			return domain.Panchang{}, fmt.Errorf("decode panchang field: %w", err)
		}
	}
	return day, nil
}

// Upsert writes the almanac row, replacing a previous generation for the
// same date and location.
func (p *Postgres) Upsert(day domain.Panchang) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	rahu, err := json.Marshal(day.RahuKaal)
	if err != nil {
		return fmt.Errorf("encode rahu kaal: %w", err)
	}
	gulika, err := json.Marshal(day.GulikaKaal)
	if err != nil {
		return fmt.Errorf("encode gulika kaal: %w", err)
	}
	yamagandaRaw, err := json.Marshal(day.Yamaganda)
	if err != nil {
		return fmt.Errorf("encode yamaganda: %w", err)
	}
	abhijit, err := json.Marshal(day.AbhijitMuhurat)
	if err != nil {
		return fmt.Errorf("encode abhijit muhurat: %w", err)
	}
	brahma, err := json.Marshal(day.BrahmaMuhurta)
	if err != nil {
		return fmt.Errorf("encode brahma muhurta: %w", err)
	}
	choghadiya, err := json.Marshal(day.Choghadiya)
	if err != nil {
		return fmt.Errorf("encode choghadiya: %w", err)
	}
	planets, err := json.Marshal(day.Planets)
	if err != nil {
		return fmt.Errorf("encode planets: %w", err)
	}
	generatedAt := day.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err = p.pool.Exec(ctx, `
INSERT INTO panchang_days (`+panchangColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (date, location) DO UPDATE SET
    sunrise = EXCLUDED.sunrise,
    sunset = EXCLUDED.sunset,
    tithi = EXCLUDED.tithi,
    paksha = EXCLUDED.paksha,
    nakshatra = EXCLUDED.nakshatra,
    pada = EXCLUDED.pada,
    yoga = EXCLUDED.yoga,
    karana = EXCLUDED.karana,
    vara = EXCLUDED.vara,
    rahu_kaal = EXCLUDED.rahu_kaal,
    gulika_kaal = EXCLUDED.gulika_kaal,
    yamaganda = EXCLUDED.yamaganda,
    abhijit_muhurat = EXCLUDED.abhijit_muhurat,
    brahma_muhurta = EXCLUDED.brahma_muhurta,
    choghadiya = EXCLUDED.choghadiya,
    planets = EXCLUDED.planets,
    generated_at = EXCLUDED.generated_at
`, day.Date, day.Location, day.Sunrise, day.Sunset, day.Tithi, day.Paksha, day.Nakshatra, day.Pada, day.Yoga, day.Karana, day.Vara, rahu, gulika, yamagandaRaw, abhijit, brahma, choghadiya, planets, generatedAt)
	metrics.ObserveNetworkRequest("postgres", "panchang_upsert", "panchang_days", start, err)
	return err
}

// ---- users ----

const userColumns = `id, email, display_name, locale, tz, location_label, latitude, longitude, birth_date, birth_time, birth_place, role, tg_chat_id, username, daily_time, asks_total, asks_today, asks_date, created_at, updated_at`

func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var (
		u         domain.User
		email     sql.NullString
		tz        sql.NullString
		birthDate sql.NullTime
		tgChatID  sql.NullInt64
		dailyTime sql.NullString
		asksDate  sql.NullTime
	)
	err := scan(&u.ID, &email, &u.DisplayName, &u.Locale, &tz, &u.Location.Label, &u.Location.Latitude, &u.Location.Longitude, &birthDate, &u.BirthTime, &u.BirthPlace, &u.Role, &tgChatID, &u.Username, &dailyTime, &u.AsksTotal, &u.AsksToday, &asksDate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	if email.Valid {
		u.Email = email.String
	}
	if tz.Valid {
		u.Timezone = tz.String
	}
	if birthDate.Valid {
		ts := birthDate.Time
		u.BirthDate = &ts
	}
	if tgChatID.Valid {
		chatID := tgChatID.Int64
		u.TelegramChatID = &chatID
	}
	if dailyTime.Valid {
		if ts, err := time.Parse("15:04:05", dailyTime.String); err == nil {
			u.DailyTime = &ts
		}
	}
	if asksDate.Valid {
		ts := asksDate.Time
		u.AsksDate = &ts
	}
	return u, nil
}

// GetByID returns a user by primary key.
func (p *Postgres) GetByID(id int64) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	user, err := scanUser(row.Scan)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_id", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

// GetByEmail returns a user by email.
func (p *Postgres) GetByEmail(email string) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
	user, err := scanUser(row.Scan)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_email", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

// GetByTelegram returns a user by linked chat id.
func (p *Postgres) GetByTelegram(chatID int64) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tg_chat_id=$1`, chatID)
	user, err := scanUser(row.Scan)
	metrics.ObserveNetworkRequest("postgres", "users_get_by_telegram", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

// UpsertByTelegram creates or refreshes the account behind a chat peer and
// reports whether it was created now.
func (p *Postgres) UpsertByTelegram(profile domain.TelegramProfile) (domain.User, bool, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	displayName := strings.TrimSpace(strings.TrimSpace(profile.FirstName) + " " + strings.TrimSpace(profile.LastName))
	locale := strings.TrimSpace(profile.Locale)
	username := strings.TrimSpace(profile.Username)

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO users (tg_chat_id, locale, display_name, username, role)
VALUES ($1, COALESCE(NULLIF($2,''),'en'), $3, $4, 'free')
ON CONFLICT (tg_chat_id) DO UPDATE SET locale = EXCLUDED.locale, display_name = EXCLUDED.display_name, username = EXCLUDED.username, updated_at = now()
RETURNING `+userColumns+`, (xmax = 0) AS inserted
`, profile.ChatID, locale, displayName, username)

	var created bool
	user, err := scanUser(func(dest ...any) error {
		return row.Scan(append(dest, &created)...)
	})
	metrics.ObserveNetworkRequest("postgres", "users_upsert_by_telegram", "users", start, err)
	if err != nil {
		return domain.User{}, false, err
	}
	if created {
		userID := user.ID
		_ = p.saveEvent(ctx, domain.BusinessEvent{
			Event:  domain.EventUserRegistered,
			UserID: &userID,
			Metadata: map[string]any{
				"source":     "telegram",
				"tg_chat_id": profile.ChatID,
				"locale":     user.Locale,
			},
		})
	}
	return user, created, nil
}

// UpdateProfile saves the editable profile fields and returns the fresh row.
func (p *Postgres) UpdateProfile(userID int64, update domain.ProfileUpdate) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var birthDate any
	if update.BirthDate != nil {
		birthDate = *update.BirthDate
	}
	var tzArg any
	if strings.TrimSpace(update.Timezone) != "" {
		tzArg = update.Timezone
	}

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
UPDATE users
SET display_name=$2, locale=COALESCE(NULLIF($3,''),locale), tz=$4, location_label=$5, latitude=$6, longitude=$7, birth_date=$8, birth_time=$9, birth_place=$10, updated_at=now()
WHERE id=$1
RETURNING `+userColumns+`
`, userID, update.DisplayName, update.Locale, tzArg, update.Location.Label, update.Location.Latitude, update.Location.Longitude, birthDate, update.BirthTime, update.BirthPlace)
	user, err := scanUser(row.Scan)
	metrics.ObserveNetworkRequest("postgres", "users_update_profile", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return user, err
}

// UpdateDailyTime sets or clears the daily delivery time.
func (p *Postgres) UpdateDailyTime(userID int64, daily *time.Time) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	var dailyArg any
	if daily != nil {
		dailyArg = daily.Format("15:04:05")
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE users SET daily_time=$2, updated_at=now() WHERE id=$1`, userID, dailyArg)
	metrics.ObserveNetworkRequest("postgres", "users_update_daily_time", "users", start, err)
	return err
}

// UpdateTimezone sets the user timezone.
func (p *Postgres) UpdateTimezone(userID int64, timezone string) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	var tzArg any
	if strings.TrimSpace(timezone) != "" {
		tzArg = timezone
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE users SET tz=$2, updated_at=now() WHERE id=$1`, userID, tzArg)
	metrics.ObserveNetworkRequest("postgres", "users_update_timezone", "users", start, err)
	return err
}

// ListForDailyTime returns users with a configured delivery time and a
// linked chat. The now parameter is kept for interface compatibility;
// timezone filtering happens in the scheduler.
func (p *Postgres) ListForDailyTime(now time.Time) ([]domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE daily_time IS NOT NULL AND tg_chat_id IS NOT NULL`)
	metrics.ObserveNetworkRequest("postgres", "users_list_for_daily_time", "users", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ReserveAsk reserves one assistant question under the user's plan. The row
// is locked so concurrent questions cannot both pass the limit.
func (p *Postgres) ReserveAsk(userID int64, now time.Time) (domain.AskState, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "users", start, err)
	if err != nil {
		return domain.AskState{}, err
	}
	defer tx.Rollback(ctx)

	var (
		role      domain.UserRole
		asksTotal int
		asksToday int
		asksDate  sql.NullTime
	)

	start = time.Now()
	err = tx.QueryRow(ctx, `
SELECT role, asks_total, asks_today, asks_date
FROM users WHERE id=$1 FOR UPDATE
`, userID).Scan(&role, &asksTotal, &asksToday, &asksDate)
	metrics.ObserveNetworkRequest("postgres", "users_get_for_update", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AskState{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.AskState{}, err
	}

	plan := domain.PlanForRole(role)
	state := domain.AskState{
		Plan:      plan,
		TotalUsed: asksTotal,
		UsedToday: asksToday,
	}

	today := now.UTC().Truncate(24 * time.Hour)
	usedToday := asksToday
	if !asksDate.Valid || !sameDay(asksDate.Time, today) {
		usedToday = 0
	}
	state.UsedToday = usedToday

	allowed := false
	newTotal := asksTotal
	newToday := usedToday

	switch {
	case plan.AskDailyLimit <= 0:
		allowed = true
		newTotal++
		newToday = 0
	case plan.AskIntroTotal > 0 && asksTotal < plan.AskIntroTotal:
		allowed = true
		newTotal++
		newToday = usedToday + 1
	case usedToday < plan.AskDailyLimit:
		allowed = true
		newTotal++
		newToday = usedToday + 1
	}

	if !allowed {
		return state, nil
	}

	state.Allowed = true
	state.TotalUsed = newTotal
	state.UsedToday = newToday

	var dateArg any
	if plan.AskDailyLimit > 0 {
		dateArg = today
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `
UPDATE users
SET asks_total=$2, asks_today=$3, asks_date=$4, updated_at=now()
WHERE id=$1
`, userID, newTotal, newToday, dateArg)
	metrics.ObserveNetworkRequest("postgres", "users_update_asks", "users", start, err)
	if err != nil {
		return domain.AskState{}, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "users", start, err)
	if err != nil {
		return domain.AskState{}, err
	}

	return state, nil
}

// DeleteUserData removes the account and everything keyed to it.
func (p *Postgres) DeleteUserData(userID int64) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "users", start, err)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, q := range []struct {
		op    string
		table string
		sql   string
	}{
		{"chat_messages_delete_user", "chat_messages", `DELETE FROM chat_messages WHERE user_id=$1`},
		{"feedback_delete_user", "feedback", `DELETE FROM feedback WHERE user_id=$1`},
		{"schedule_tasks_delete_user", "schedule_tasks", `DELETE FROM schedule_tasks WHERE user_id=$1`},
		{"users_delete", "users", `DELETE FROM users WHERE id=$1`},
	} {
		start = time.Now()
		_, err = tx.Exec(ctx, q.sql, userID)
		metrics.ObserveNetworkRequest("postgres", q.op, q.table, start, err)
		if err != nil {
			return err
		}
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "users", start, err)
	return err
}

// ---- credentials ----

// CreateWithPassword registers an email account with a password hash,
// domain.ErrEmailTaken when the email exists.
func (p *Postgres) CreateWithPassword(email, displayName, passwordHash string) (domain.User, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO users (email, password_hash, display_name, locale, role)
VALUES ($1, $2, $3, 'en', 'free')
RETURNING `+userColumns+`
`, strings.ToLower(strings.TrimSpace(email)), passwordHash, strings.TrimSpace(displayName))
	user, err := scanUser(row.Scan)
	metrics.ObserveNetworkRequest("postgres", "users_create_with_password", "users", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}

	userID := user.ID
	_ = p.saveEvent(ctx, domain.BusinessEvent{
		Event:  domain.EventUserRegistered,
		UserID: &userID,
		Metadata: map[string]any{
			"source": "email",
		},
	})
	return user, nil
}

// CredentialsByEmail returns the account and its password hash.
func (p *Postgres) CredentialsByEmail(email string) (domain.User, string, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT password_hash, `+userColumns+` FROM users WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))

	var hash sql.NullString
	user, err := scanUser(func(dest ...any) error {
		return row.Scan(append([]any{&hash}, dest...)...)
	})
	metrics.ObserveNetworkRequest("postgres", "users_credentials_by_email", "users", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, "", domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, "", err
	}
	return user, hash.String, nil
}

// ---- chat history ----

// SaveMessage stores one turn of the assistant dialog.
func (p *Postgres) SaveMessage(msg domain.ChatMessage) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO chat_messages (id, user_id, role, text, date, created_at)
VALUES ($1, $2, $3, $4, $5, now())
`, msg.ID, msg.UserID, msg.Role, msg.Text, msg.Date)
	metrics.ObserveNetworkRequest("postgres", "chat_messages_insert", "chat_messages", start, err)
	return err
}

// ListHistory returns the user's messages newest-first.
func (p *Postgres) ListHistory(userID int64, limit int) ([]domain.ChatMessage, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, role, text, date, created_at
FROM chat_messages WHERE user_id=$1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	metrics.ObserveNetworkRequest("postgres", "chat_messages_list", "chat_messages", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Text, &m.Date, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ---- insights ----

// SaveInsight upserts the generated text for a day, location and language.
func (p *Postgres) SaveInsight(ins domain.Insight) (domain.Insight, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	var saved domain.Insight
	err := p.pool.QueryRow(ctx, `
INSERT INTO insights (id, date, location, language, text, model, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (date, location, language) DO UPDATE SET text = EXCLUDED.text, model = EXCLUDED.model
RETURNING id, date, location, language, text, model, created_at
`, ins.ID, ins.Date, ins.Location, ins.Language, ins.Text, ins.Model).Scan(&saved.ID, &saved.Date, &saved.Location, &saved.Language, &saved.Text, &saved.Model, &saved.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "insights_upsert", "insights", start, err)
	return saved, err
}

// GetInsight returns the stored text, domain.ErrNotFound when absent.
func (p *Postgres) GetInsight(dateKey, location, language string) (domain.Insight, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	var ins domain.Insight
	err := p.pool.QueryRow(ctx, `
SELECT id, date, location, language, text, model, created_at
FROM insights WHERE date=$1::date AND location=$2 AND language=$3
`, dateKey, location, language).Scan(&ins.ID, &ins.Date, &ins.Location, &ins.Language, &ins.Text, &ins.Model, &ins.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "insights_get", "insights", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Insight{}, domain.ErrNotFound
	}
	return ins, err
}

// ---- delivery bookkeeping ----

// AcquireScheduleTask inserts the schedule mark and reports true when this
// call created it.
func (p *Postgres) AcquireScheduleTask(userID int64, scheduledFor time.Time) (bool, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
INSERT INTO schedule_tasks (user_id, scheduled_for)
VALUES ($1, $2)
ON CONFLICT (user_id, scheduled_for) DO NOTHING
`, userID, scheduledFor)
	metrics.ObserveNetworkRequest("postgres", "schedule_tasks_acquire", "schedule_tasks", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// EnsureDeliveryJob registers a processing attempt for a delivery job.
func (p *Postgres) EnsureDeliveryJob(jobID string) (bool, int, error) {
	ctx, cancel := p.connCtx()
	defer cancel()

	var (
		delivered sql.NullTime
		attempts  int
	)

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO delivery_job_statuses (job_id, attempts, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (job_id) DO UPDATE
    SET attempts = delivery_job_statuses.attempts + 1,
        updated_at = now()
RETURNING delivered_at, attempts
`, jobID).Scan(&delivered, &attempts)
	metrics.ObserveNetworkRequest("postgres", "delivery_job_statuses_upsert", "delivery_job_statuses", start, err)
	if err != nil {
		return false, 0, err
	}

	return delivered.Valid, attempts, nil
}

// MarkDeliveryJobDone marks the job as finally delivered.
func (p *Postgres) MarkDeliveryJobDone(jobID string) error {
	ctx, cancel := p.connCtx()
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE delivery_job_statuses
SET delivered_at = COALESCE(delivered_at, now()),
    updated_at = now()
WHERE job_id = $1
`, jobID)
	metrics.ObserveNetworkRequest("postgres", "delivery_job_statuses_mark_done", "delivery_job_statuses", start, err)
	return err
}

// ---- feedback and events ----

// SaveFeedback stores one feedback message.
func (p *Postgres) SaveFeedback(ctx context.Context, feedback domain.Feedback) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO feedback (user_id, chat_id, message, created_at)
VALUES ($1, $2, $3, now())
`, feedback.UserID, feedback.ChatID, feedback.Message)
	metrics.ObserveNetworkRequest("postgres", "feedback_insert", "feedback", start, err)
	return err
}

func (p *Postgres) saveEvent(ctx context.Context, event domain.BusinessEvent) error {
	if event.Event == "" {
		return nil
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var userID sql.NullInt64
	if event.UserID != nil {
		userID = sql.NullInt64{Int64: *event.UserID, Valid: true}
	}

	var payload []byte
	if event.Metadata != nil {
		if data, err := json.Marshal(event.Metadata); err == nil {
			payload = data
		}
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO business_events (event, user_id, metadata, occurred_at)
VALUES ($1, $2, $3, $4)
`, event.Event, userID, payload, event.OccurredAt)
	metrics.ObserveNetworkRequest("postgres", "business_events_insert", "business_events", start, err)
	return err
}

// RecordEvent stores a business event.
func (p *Postgres) RecordEvent(ctx context.Context, event domain.BusinessEvent) error {
	return p.saveEvent(ctx, event)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
