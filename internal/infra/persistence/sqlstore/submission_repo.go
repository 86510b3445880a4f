/*
 * @Description: 提交记录的 SQL 实现
 * @Author: 安知鱼
 * @Date: 2026-10-17 16:05:40
 * @LastEditTime: 2026-10-18 10:12:09
 * @LastEditors: 安知鱼
 */
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/persistence/database"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/idgen"
)

const submissionColumns = "id, draft_id, record_id, kind, method, endpoint, status, http_status, message, created_at, updated_at"

type submissionRepo struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// NewSubmissionRepo 创建提交记录仓库，dialect 为 database.NormalizeDialect 的结果
func NewSubmissionRepo(db *sql.DB, dialect string) repository.SubmissionRepository {
	return &submissionRepo{db: db, dialect: dialect, now: time.Now}
}

// rebind 将 ? 占位符转换为 PostgreSQL 的 $n
func (r *submissionRepo) rebind(query string) string {
	if r.dialect != database.DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func (r *submissionRepo) Create(ctx context.Context, s *model.Submission) error {
	now := r.now().UTC()
	if s.Status == "" {
		s.Status = model.SubmissionPending
	}
	s.CreatedAt, s.UpdatedAt = now, now

	args := []interface{}{s.DraftID, s.RecordID, s.Kind, s.Method, s.Endpoint, string(s.Status), s.HTTPStatus, s.Message, now, now}
	insert := "INSERT INTO submissions (draft_id, record_id, kind, method, endpoint, status, http_status, message, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	var id int64
	if r.dialect == database.DialectPostgres {
		if err := r.db.QueryRowContext(ctx, r.rebind(insert+" RETURNING id"), args...).Scan(&id); err != nil {
			return fmt.Errorf("创建提交记录失败: %w", err)
		}
	} else {
		res, err := r.db.ExecContext(ctx, insert, args...)
		if err != nil {
			return fmt.Errorf("创建提交记录失败: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("获取提交记录ID失败: %w", err)
		}
	}

	s.ID = uint(id)
	publicID, err := idgen.GeneratePublicID(s.ID, idgen.EntityTypeSubmission)
	if err != nil {
		return err
	}
	s.PublicID = publicID
	return nil
}

func (r *submissionRepo) UpdateResult(ctx context.Context, id uint, status model.SubmissionStatus, httpStatus int, message string) error {
	res, err := r.db.ExecContext(ctx,
		r.rebind("UPDATE submissions SET status = ?, http_status = ?, message = ?, updated_at = ? WHERE id = ?"),
		string(status), httpStatus, message, r.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("更新提交记录失败: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: 提交记录 %d", constant.ErrNotFound, id)
	}
	return nil
}

func (r *submissionRepo) FindByID(ctx context.Context, id uint) (*model.Submission, error) {
	row := r.db.QueryRowContext(ctx, r.rebind("SELECT "+submissionColumns+" FROM submissions WHERE id = ?"), id)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: 提交记录 %d", constant.ErrNotFound, id)
	}
	return s, err
}

func (r *submissionRepo) List(ctx context.Context, opts model.ListSubmissionsOptions) ([]*model.Submission, int64, error) {
	opts.Normalize()

	var (
		where []string
		args  []interface{}
	)
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, r.rebind("SELECT COUNT(*) FROM submissions"+clause), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计提交记录失败: %w", err)
	}

	query := "SELECT " + submissionColumns + " FROM submissions" + clause + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	pageArgs := append(args, opts.PageSize, (opts.Page-1)*opts.PageSize)
	rows, err := r.db.QueryContext(ctx, r.rebind(query), pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询提交记录失败: %w", err)
	}
	defer rows.Close()

	list := make([]*model.Submission, 0, opts.PageSize)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	var (
		s       model.Submission
		id      int64
		status  string
		message sql.NullString
		created dbTime
		updated dbTime
	)
	err := row.Scan(&id, &s.DraftID, &s.RecordID, &s.Kind, &s.Method, &s.Endpoint, &status, &s.HTTPStatus, &message, &created, &updated)
	if err != nil {
		return nil, err
	}
	s.ID = uint(id)
	s.CreatedAt, s.UpdatedAt = created.Time, updated.Time
	s.Status = model.SubmissionStatus(status)
	s.Message = message.String
	if s.PublicID, err = idgen.GeneratePublicID(s.ID, idgen.EntityTypeSubmission); err != nil {
		return nil, err
	}
	return &s, nil
}

// dbTime 兼容以 time.Time 或文本形式返回时间的驱动
type dbTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *dbTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("无法将 %T 转换为时间", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("无法解析时间 '%s'", s)
}
