package sqlite

import (
	"database/sql"
	"errors"

	"BabyKeeper/internal/cli/model"
	"BabyKeeper/internal/cli/store"
)

// LogRepo persists the per-activity log tables. All upserts are pure
// id-keyed writes of the full row, so re-applying the same change is a
// no-op (pulled batches may be replayed after a partial failure).
type LogRepo struct {
	s *store.Store
}

func NewLogRepo(s *store.Store) *LogRepo {
	return &LogRepo{s: s}
}

// ---- feed ----

func (r *LogRepo) UpsertFeed(q DBTX, l model.FeedLog) error {
	_, err := q.Exec(`INSERT INTO feed_logs(id, baby_id, logged_by, method, started_at, ended_at,
          duration_minutes, amount_ml, is_estimated, end_side, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by, method = excluded.method,
          started_at = excluded.started_at, ended_at = excluded.ended_at,
          duration_minutes = excluded.duration_minutes, amount_ml = excluded.amount_ml,
          is_estimated = excluded.is_estimated, end_side = excluded.end_side,
          notes = excluded.notes, updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, string(l.Method), unix(l.StartedAt), unix(l.EndedAt),
		l.DurationMinutes, l.AmountML, boolInt(l.IsEstimated), string(l.EndSide), l.Notes,
		unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteFeed(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM feed_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetFeed(id string) (*model.FeedLog, error) {
	row := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, method, started_at, ended_at,
        duration_minutes, amount_ml, is_estimated, end_side, notes, created_at, updated_at
        FROM feed_logs WHERE id = ?`, id)
	l, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LogRepo) ListFeed(babyID string, limit int) ([]model.FeedLog, error) {
	rows, err := r.s.DB().Query(`SELECT id, baby_id, logged_by, method, started_at, ended_at,
        duration_minutes, amount_ml, is_estimated, end_side, notes, created_at, updated_at
        FROM feed_logs WHERE baby_id = ? ORDER BY started_at DESC LIMIT ?`, babyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.FeedLog
	for rows.Next() {
		l, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func scanFeed(row interface{ Scan(...any) error }) (model.FeedLog, error) {
	var l model.FeedLog
	var method, side string
	var started, ended, created, updated int64
	var estimated int
	err := row.Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &method, &started, &ended,
		&l.DurationMinutes, &l.AmountML, &estimated, &side, &l.Notes, &created, &updated)
	if err != nil {
		return l, err
	}
	l.Method = model.FeedMethod(method)
	l.EndSide = model.FeedSide(side)
	l.IsEstimated = estimated != 0
	l.StartedAt, l.EndedAt = fromUnix(started), fromUnix(ended)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return l, nil
}

// ---- sleep ----

func (r *LogRepo) UpsertSleep(q DBTX, l model.SleepLog) error {
	_, err := q.Exec(`INSERT INTO sleep_logs(id, baby_id, logged_by, started_at, ended_at,
          duration_minutes, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by,
          started_at = excluded.started_at, ended_at = excluded.ended_at,
          duration_minutes = excluded.duration_minutes, notes = excluded.notes,
          updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, unix(l.StartedAt), unix(l.EndedAt),
		l.DurationMinutes, l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteSleep(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM sleep_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetSleep(id string) (*model.SleepLog, error) {
	var l model.SleepLog
	var started, ended, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, started_at, ended_at,
        duration_minutes, notes, created_at, updated_at
        FROM sleep_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &started, &ended,
			&l.DurationMinutes, &l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.StartedAt, l.EndedAt = fromUnix(started), fromUnix(ended)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

func (r *LogRepo) ListSleep(babyID string, limit int) ([]model.SleepLog, error) {
	rows, err := r.s.DB().Query(`SELECT id, baby_id, logged_by, started_at, ended_at,
        duration_minutes, notes, created_at, updated_at
        FROM sleep_logs WHERE baby_id = ? ORDER BY started_at DESC LIMIT ?`, babyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.SleepLog
	for rows.Next() {
		var l model.SleepLog
		var started, ended, created, updated int64
		if err := rows.Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &started, &ended,
			&l.DurationMinutes, &l.Notes, &created, &updated); err != nil {
			return nil, err
		}
		l.StartedAt, l.EndedAt = fromUnix(started), fromUnix(ended)
		l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
		res = append(res, l)
	}
	return res, rows.Err()
}

// ---- nappy ----

func (r *LogRepo) UpsertNappy(q DBTX, l model.NappyLog) error {
	_, err := q.Exec(`INSERT INTO nappy_logs(id, baby_id, logged_by, type, colour, consistency,
          started_at, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by, type = excluded.type,
          colour = excluded.colour, consistency = excluded.consistency,
          started_at = excluded.started_at, notes = excluded.notes,
          updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, string(l.Type), l.Colour, l.Consistency,
		unix(l.StartedAt), l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteNappy(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM nappy_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetNappy(id string) (*model.NappyLog, error) {
	var l model.NappyLog
	var typ string
	var started, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, type, colour, consistency,
        started_at, notes, created_at, updated_at
        FROM nappy_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &typ, &l.Colour, &l.Consistency,
			&started, &l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.Type = model.NappyType(typ)
	l.StartedAt = fromUnix(started)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

func (r *LogRepo) ListNappy(babyID string, limit int) ([]model.NappyLog, error) {
	rows, err := r.s.DB().Query(`SELECT id, baby_id, logged_by, type, colour, consistency,
        started_at, notes, created_at, updated_at
        FROM nappy_logs WHERE baby_id = ? ORDER BY started_at DESC LIMIT ?`, babyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []model.NappyLog
	for rows.Next() {
		var l model.NappyLog
		var typ string
		var started, created, updated int64
		if err := rows.Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &typ, &l.Colour, &l.Consistency,
			&started, &l.Notes, &created, &updated); err != nil {
			return nil, err
		}
		l.Type = model.NappyType(typ)
		l.StartedAt = fromUnix(started)
		l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
		res = append(res, l)
	}
	return res, rows.Err()
}

// ---- solids ----

func (r *LogRepo) UpsertSolids(q DBTX, l model.SolidsLog) error {
	_, err := q.Exec(`INSERT INTO solids_logs(id, baby_id, logged_by, food, reaction, started_at,
          notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by, food = excluded.food,
          reaction = excluded.reaction, started_at = excluded.started_at,
          notes = excluded.notes, updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, l.Food, l.Reaction, unix(l.StartedAt),
		l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteSolids(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM solids_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetSolids(id string) (*model.SolidsLog, error) {
	var l model.SolidsLog
	var started, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, food, reaction, started_at,
        notes, created_at, updated_at FROM solids_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &l.Food, &l.Reaction, &started,
			&l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.StartedAt = fromUnix(started)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

// ---- growth ----

func (r *LogRepo) UpsertGrowth(q DBTX, l model.GrowthLog) error {
	_, err := q.Exec(`INSERT INTO growth_logs(id, baby_id, logged_by, weight_g, height_cm, head_cm,
          measured_at, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by,
          weight_g = excluded.weight_g, height_cm = excluded.height_cm, head_cm = excluded.head_cm,
          measured_at = excluded.measured_at, notes = excluded.notes,
          updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, l.WeightG, l.HeightCM, l.HeadCM,
		unix(l.MeasuredAt), l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteGrowth(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM growth_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetGrowth(id string) (*model.GrowthLog, error) {
	var l model.GrowthLog
	var measured, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, weight_g, height_cm, head_cm,
        measured_at, notes, created_at, updated_at FROM growth_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &l.WeightG, &l.HeightCM, &l.HeadCM,
			&measured, &l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.MeasuredAt = fromUnix(measured)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

// ---- bath ----

func (r *LogRepo) UpsertBath(q DBTX, l model.BathLog) error {
	_, err := q.Exec(`INSERT INTO bath_logs(id, baby_id, logged_by, started_at, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by,
          started_at = excluded.started_at, notes = excluded.notes,
          updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, unix(l.StartedAt), l.Notes,
		unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteBath(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM bath_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetBath(id string) (*model.BathLog, error) {
	var l model.BathLog
	var started, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, started_at, notes, created_at, updated_at
        FROM bath_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &started, &l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.StartedAt = fromUnix(started)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

// ---- medication ----

func (r *LogRepo) UpsertMedication(q DBTX, l model.MedicationLog) error {
	_, err := q.Exec(`INSERT INTO medication_logs(id, baby_id, logged_by, name, dose_amount, dose_unit,
          given_at, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by, name = excluded.name,
          dose_amount = excluded.dose_amount, dose_unit = excluded.dose_unit,
          given_at = excluded.given_at, notes = excluded.notes,
          updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, l.Name, l.DoseAmount, l.DoseUnit,
		unix(l.GivenAt), l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteMedication(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM medication_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetMedication(id string) (*model.MedicationLog, error) {
	var l model.MedicationLog
	var given, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, name, dose_amount, dose_unit,
        given_at, notes, created_at, updated_at FROM medication_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &l.Name, &l.DoseAmount, &l.DoseUnit,
			&given, &l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.GivenAt = fromUnix(given)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

// ---- pumping ----

func (r *LogRepo) UpsertPumping(q DBTX, l model.PumpingLog) error {
	_, err := q.Exec(`INSERT INTO pumping_logs(id, baby_id, logged_by, side, amount_ml, duration_minutes,
          started_at, notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by, side = excluded.side,
          amount_ml = excluded.amount_ml, duration_minutes = excluded.duration_minutes,
          started_at = excluded.started_at, notes = excluded.notes,
          updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, string(l.Side), l.AmountML, l.DurationMinutes,
		unix(l.StartedAt), l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeletePumping(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM pumping_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetPumping(id string) (*model.PumpingLog, error) {
	var l model.PumpingLog
	var side string
	var started, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, side, amount_ml, duration_minutes,
        started_at, notes, created_at, updated_at FROM pumping_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &side, &l.AmountML, &l.DurationMinutes,
			&started, &l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.Side = model.FeedSide(side)
	l.StartedAt = fromUnix(started)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

// ---- generic activity ----

func (r *LogRepo) UpsertActivity(q DBTX, l model.ActivityLog) error {
	_, err := q.Exec(`INSERT INTO activity_logs(id, baby_id, logged_by, kind, started_at, ended_at,
          notes, created_at, updated_at)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
          baby_id = excluded.baby_id, logged_by = excluded.logged_by, kind = excluded.kind,
          started_at = excluded.started_at, ended_at = excluded.ended_at,
          notes = excluded.notes, updated_at = excluded.updated_at`,
		l.ID, l.BabyID, l.LoggedByUserID, l.Kind, unix(l.StartedAt), unix(l.EndedAt),
		l.Notes, unix(l.CreatedAt), unix(l.UpdatedAt))
	return err
}

func (r *LogRepo) DeleteActivity(q DBTX, id string) error {
	_, err := q.Exec(`DELETE FROM activity_logs WHERE id = ?`, id)
	return err
}

func (r *LogRepo) GetActivity(id string) (*model.ActivityLog, error) {
	var l model.ActivityLog
	var started, ended, created, updated int64
	err := r.s.DB().QueryRow(`SELECT id, baby_id, logged_by, kind, started_at, ended_at,
        notes, created_at, updated_at FROM activity_logs WHERE id = ?`, id).
		Scan(&l.ID, &l.BabyID, &l.LoggedByUserID, &l.Kind, &started, &ended,
			&l.Notes, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	l.StartedAt, l.EndedAt = fromUnix(started), fromUnix(ended)
	l.CreatedAt, l.UpdatedAt = fromUnix(created), fromUnix(updated)
	return &l, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
