package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"curriculum-scraper/internal/cooldown"
	"curriculum-scraper/lib/sqliteutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

//go:embed schema.sql
var Schema string

var tracer = otel.Tracer("curriculum.services.cooldown.store")

// Store keeps batch responses in sqlite.
type Store struct {
	db *sql.DB
}

// Open opens the database at `path`, see sqliteutil.OpenDB for the accepted
// paths.
func Open(path string) (Store, error) {
	db, err := sqliteutil.OpenDB(Schema, path)
	if err != nil {
		return Store{}, err
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Save writes a batch response and all of its lessons in one transaction.
func (s Store) Save(ctx context.Context, res cooldown.BatchResponse) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()

	err := s.save(ctx, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) save(ctx context.Context, res cooldown.BatchResponse) error {
	if res.RunId == "" {
		return fmt.Errorf("save run: batch response has no run id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`insert into runs(id, success, total_requested, total_successful, total_failed, start_time, end_time, duration)
		values (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunId,
		boolInt(res.Success),
		res.TotalRequested,
		res.TotalSuccessful,
		res.TotalFailed,
		res.StartTime,
		res.EndTime,
		res.Duration,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", res.RunId, err)
	}

	for i, lesson := range res.Lessons {
		var data sql.NullString
		if lesson.Cooldown != nil {
			encoded, err := json.Marshal(lesson.Cooldown)
			if err != nil {
				return fmt.Errorf("encode cool-down of %s: %w", lesson.Url, err)
			}
			data = sql.NullString{String: string(encoded), Valid: true}
		}
		var lessonErr sql.NullString
		if lesson.Error != nil {
			lessonErr = sql.NullString{String: *lesson.Error, Valid: true}
		}

		_, err = tx.ExecContext(
			ctx,
			`insert into lessons(run_id, position, url, grade, unit, section, lesson, success, error, scraped_at, cooldown)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunId,
			i,
			lesson.Url,
			lesson.Grade,
			lesson.Unit,
			lesson.Section,
			lesson.Lesson,
			boolInt(lesson.Success),
			lessonErr,
			lesson.ScrapedAt,
			data,
		)
		if err != nil {
			return fmt.Errorf("save lesson %s: %w", lesson.Url, err)
		}
	}

	return tx.Commit()
}

// Lessons returns the lessons of a run in their original order.
func (s Store) Lessons(ctx context.Context, runId string) ([]cooldown.LessonResult, error) {
	ctx, span := tracer.Start(ctx, "Lessons")
	defer span.End()

	rows, err := s.db.QueryContext(
		ctx,
		`select url, grade, unit, section, lesson, success, error, scraped_at, cooldown
		from lessons where run_id = ? order by position`,
		runId,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var out []cooldown.LessonResult
	for rows.Next() {
		var (
			lesson    cooldown.LessonResult
			success   int
			lessonErr sql.NullString
			data      sql.NullString
		)
		err = rows.Scan(
			&lesson.Url,
			&lesson.Grade,
			&lesson.Unit,
			&lesson.Section,
			&lesson.Lesson,
			&success,
			&lessonErr,
			&lesson.ScrapedAt,
			&data,
		)
		if err != nil {
			return nil, err
		}
		lesson.Success = success != 0
		if lessonErr.Valid {
			msg := lessonErr.String
			lesson.Error = &msg
		}
		if data.Valid {
			lesson.Cooldown = &cooldown.Data{}
			err = json.Unmarshal([]byte(data.String), lesson.Cooldown)
			if err != nil {
				return nil, fmt.Errorf("decode cool-down of %s: %w", lesson.Url, err)
			}
		}
		out = append(out, lesson)
	}
	return out, rows.Err()
}

// Runs returns the ids of the stored runs, most recent first.
func (s Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `select id from runs order by start_time desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
