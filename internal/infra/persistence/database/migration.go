/*
 * @Description: 数据库迁移服务（建表与增量字段）
 * @Author: 安知鱼
 * @Date: 2025-12-08
 */
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// MigrationService 数据库迁移服务
type MigrationService struct {
	db     *sql.DB
	dbType string
}

// NewMigrationService 创建迁移服务，dbType 为 NormalizeDialect 的结果
func NewMigrationService(db *sql.DB, dbType string) *MigrationService {
	return &MigrationService{
		db:     db,
		dbType: dbType,
	}
}

// RunMigrations 执行所有迁移，可重复执行
func (m *MigrationService) RunMigrations(ctx context.Context) error {
	log.Println("📋 开始执行数据库迁移...")

	if err := m.createSubmissions(ctx); err != nil {
		return fmt.Errorf("创建 submissions 表失败: %w", err)
	}
	if err := m.migrateRecordID(ctx); err != nil {
		return fmt.Errorf("record_id 字段迁移失败: %w", err)
	}

	log.Println("✅ 数据库迁移完成")
	return nil
}

func (m *MigrationService) createSubmissions(ctx context.Context) error {
	var ddl []string
	switch m.dbType {
	case DialectMySQL:
		ddl = []string{`
			CREATE TABLE IF NOT EXISTS submissions (
				id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
				draft_id VARCHAR(64) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				method VARCHAR(8) NOT NULL,
				endpoint VARCHAR(255) NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				http_status INT NOT NULL DEFAULT 0,
				message TEXT,
				created_at DATETIME(3) NOT NULL,
				updated_at DATETIME(3) NOT NULL,
				INDEX idx_submissions_draft_id (draft_id),
				INDEX idx_submissions_kind_status (kind, status)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	case DialectPostgres:
		ddl = []string{`
			CREATE TABLE IF NOT EXISTS submissions (
				id SERIAL PRIMARY KEY,
				draft_id VARCHAR(64) NOT NULL,
				kind VARCHAR(32) NOT NULL,
				method VARCHAR(8) NOT NULL,
				endpoint VARCHAR(255) NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				http_status INTEGER NOT NULL DEFAULT 0,
				message TEXT,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_draft_id ON submissions(draft_id)`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_kind_status ON submissions(kind, status)`,
		}
	case DialectSQLite:
		ddl = []string{`
			CREATE TABLE IF NOT EXISTS submissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				draft_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				method TEXT NOT NULL,
				endpoint TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				http_status INTEGER NOT NULL DEFAULT 0,
				message TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_draft_id ON submissions(draft_id)`,
			`CREATE INDEX IF NOT EXISTS idx_submissions_kind_status ON submissions(kind, status)`,
		}
	default:
		return fmt.Errorf("不支持的数据库类型: %s", m.dbType)
	}

	for _, stmt := range ddl {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateRecordID 为早期版本创建的表补充 record_id 字段（编辑已有记录时的后端 ID）
func (m *MigrationService) migrateRecordID(ctx context.Context) error {
	exists, err := m.columnExists(ctx, "submissions", "record_id")
	if err != nil {
		return err
	}
	if exists {
		log.Println("  ✓ record_id 字段已存在，跳过迁移")
		return nil
	}

	log.Println("  → 添加 record_id 字段...")
	var stmt string
	switch m.dbType {
	case DialectMySQL:
		stmt = `ALTER TABLE submissions ADD COLUMN record_id VARCHAR(64) NOT NULL DEFAULT '' COMMENT '编辑的后端记录ID' AFTER draft_id`
	case DialectPostgres:
		stmt = `ALTER TABLE submissions ADD COLUMN IF NOT EXISTS record_id VARCHAR(64) NOT NULL DEFAULT ''`
	default:
		stmt = `ALTER TABLE submissions ADD COLUMN record_id TEXT NOT NULL DEFAULT ''`
	}
	if _, err := m.db.ExecContext(ctx, stmt); err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
		return fmt.Errorf("添加 record_id 字段失败: %w", err)
	}
	return nil
}

// columnExists 检查列是否存在
func (m *MigrationService) columnExists(ctx context.Context, tableName, columnName string) (bool, error) {
	var query string
	args := []interface{}{tableName, columnName}

	switch m.dbType {
	case DialectMySQL:
		query = `
			SELECT COUNT(*)
			FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE()
			AND TABLE_NAME = ?
			AND COLUMN_NAME = ?
		`
	case DialectPostgres:
		query = `
			SELECT COUNT(*)
			FROM information_schema.columns
			WHERE table_name = $1
			AND column_name = $2
		`
	case DialectSQLite:
		query = `
			SELECT COUNT(*)
			FROM pragma_table_info(?)
			WHERE name = ?
		`
	default:
		return false, fmt.Errorf("不支持的数据库类型: %s", m.dbType)
	}

	var count int
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
