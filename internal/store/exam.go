package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/alexandernovadev/languagesai/internal/exam"
)

// ErrAttemptClosed is returned when submitting an attempt that is no longer
// in progress.
var ErrAttemptClosed = errors.New("attempt is not in progress")

// ExamRepo persists exams and their attempts.
type ExamRepo struct {
	db  *sql.DB
	now func() time.Time
}

var examColumns = []string{"id", "title", "parameters", "questions", "created_at"}

var attemptColumns = []string{
	"id", "exam_id", "user_id", "status", "time_limit",
	"started_at", "submitted_at", "score", "results",
}

// Create stores a generated exam under a new id.
func (r *ExamRepo) Create(ctx context.Context, in exam.NewExam) (*exam.Exam, error) {
	e := &exam.Exam{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Parameters: in.Parameters,
		Questions:  in.Questions,
		CreatedAt:  r.now().UTC().Truncate(time.Millisecond),
	}

	params, err := json.Marshal(e.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}
	questions, err := json.Marshal(e.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}

	query, args := builder().Insert("exams").
		Columns(examColumns...).
		Values(e.ID, e.Title, string(params), string(questions), toMillis(e.CreatedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert exam: %w", err)
	}
	return e, nil
}

// GetByID returns the exam with the given id, or ErrNotFound.
func (r *ExamRepo) GetByID(ctx context.Context, id string) (*exam.Exam, error) {
	b := builder()
	query, args := b.Select(examColumns...).
		From(b.Table("exams")).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanExam(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return e, nil
}

// List returns the most recently created exams first. A limit of zero
// returns all of them.
func (r *ExamRepo) List(ctx context.Context, limit int) ([]exam.Exam, error) {
	b := builder()
	sel := b.Select(examColumns...).
		From(b.Table("exams")).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()

	var out []exam.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// StartAttempt records a new in-progress attempt for examID.
func (r *ExamRepo) StartAttempt(ctx context.Context, examID, userID string, timeLimit int) (*exam.Attempt, error) {
	if _, err := r.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	a := &exam.Attempt{
		ID:        uuid.NewString(),
		ExamID:    examID,
		UserID:    userID,
		Status:    exam.AttemptInProgress,
		TimeLimit: timeLimit,
		StartedAt: r.now().UTC().Truncate(time.Millisecond),
	}

	query, args := builder().Insert("attempts").
		Columns("id", "exam_id", "user_id", "status", "time_limit", "started_at").
		Values(a.ID, a.ExamID, a.UserID, string(a.Status), a.TimeLimit, toMillis(a.StartedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return a, nil
}

// SubmitAttempt stores the graded results and closes the attempt. It fails
// with ErrAttemptClosed when the attempt was already submitted.
func (r *ExamRepo) SubmitAttempt(ctx context.Context, sub exam.Submission) (*exam.Attempt, error) {
	results, err := json.Marshal(sub.Results)
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}

	submittedAt := r.now().UTC().Truncate(time.Millisecond)
	query, args := builder().Update("attempts").
		Set("status", string(exam.AttemptSubmitted)).
		Set("submitted_at", toMillis(submittedAt)).
		Set("score", sub.Score).
		Set("results", string(results)).
		Where(entsql.And(
			entsql.EQ("id", sub.AttemptID),
			entsql.EQ("status", string(exam.AttemptInProgress)),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	a, err := r.GetAttempt(ctx, sub.AttemptID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("attempt %s: %w", sub.AttemptID, ErrAttemptClosed)
	}
	return a, nil
}

// GetAttempt returns one attempt, or ErrNotFound.
func (r *ExamRepo) GetAttempt(ctx context.Context, id string) (*exam.Attempt, error) {
	b := builder()
	query, args := b.Select(attemptColumns...).
		From(b.Table("attempts")).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("attempt %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

// ListAttempts returns the attempts of one exam, newest first.
func (r *ExamRepo) ListAttempts(ctx context.Context, examID string) ([]exam.Attempt, error) {
	b := builder()
	query, args := b.Select(attemptColumns...).
		From(b.Table("attempts")).
		Where(entsql.EQ("exam_id", examID)).
		OrderBy(entsql.Desc("started_at"), entsql.Desc("id")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []exam.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (*exam.Exam, error) {
	var (
		e         exam.Exam
		params    string
		questions string
		createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Title, &params, &questions, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &e.Parameters); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &e.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	e.CreatedAt = fromMillis(createdAt)
	return &e, nil
}

func scanAttempt(row rowScanner) (*exam.Attempt, error) {
	var (
		a           exam.Attempt
		status      string
		startedAt   int64
		submittedAt sql.NullInt64
		results     sql.NullString
	)
	if err := row.Scan(&a.ID, &a.ExamID, &a.UserID, &status, &a.TimeLimit,
		&startedAt, &submittedAt, &a.Score, &results); err != nil {
		return nil, err
	}
	a.Status = exam.AttemptStatus(status)
	a.StartedAt = fromMillis(startedAt)
	if submittedAt.Valid {
		t := fromMillis(submittedAt.Int64)
		a.SubmittedAt = &t
	}
	if results.Valid && results.String != "" {
		if err := json.Unmarshal([]byte(results.String), &a.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
	}
	return &a, nil
}
