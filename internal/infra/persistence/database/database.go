/*
 * @Description: 数据库连接管理 (支持多种数据库)
 * @Author: 安知鱼
 * @Date: 2025-07-12 16:09:46
 * @LastEditTime: 2026-10-17 15:40:12
 * @LastEditors: 安知鱼
 */
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// 规范化后的数据库类型
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// NormalizeDialect 将配置中的数据库类型统一为驱动名
func NormalizeDialect(dbType string) (string, error) {
	switch dbType {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "sqlite", "sqlite3", "":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("不支持的数据库驱动: %s (支持: mysql/mariadb, postgres, sqlite)", dbType)
	}
}

// NewSQLDB 创建并返回一个标准的 *sql.DB 连接池，以及规范化后的数据库类型。
func NewSQLDB(cfg *config.Config) (*sql.DB, string, error) {
	dbType := cfg.GetString(config.KeyDBType)
	if dbType == "" {
		log.Println("提示: 配置文件中未指定 'Database.Type'，将默认使用 'sqlite'")
	}
	dialect, err := NormalizeDialect(dbType)
	if err != nil {
		return nil, "", err
	}

	dbUser := cfg.GetString(config.KeyDBUser)
	dbPass := cfg.GetString(config.KeyDBPassword)
	dbHost := cfg.GetString(config.KeyDBHost)
	dbPort := cfg.GetString(config.KeyDBPort)
	dbName := cfg.GetString(config.KeyDBName)

	var dsn string
	switch dialect {
	case DialectMySQL:
		if dbUser == "" || dbHost == "" || dbPort == "" || dbName == "" {
			return nil, "", fmt.Errorf("MySQL 连接参数不完整 (需要 User, Host, Port, Name)")
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbUser, dbPass, dbHost, dbPort, dbName)
	case DialectPostgres:
		if dbUser == "" || dbHost == "" || dbPort == "" || dbName == "" {
			return nil, "", fmt.Errorf("PostgreSQL 连接参数不完整 (需要 User, Host, Port, Name)")
		}
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPass, dbName)
	case DialectSQLite:
		dataDir := "./data"
		if err := os.MkdirAll(dataDir, os.ModePerm); err != nil {
			return nil, "", fmt.Errorf("无法创建 data 目录: %w", err)
		}
		if dbName == "" {
			dbName = "fm_console.db"
		}
		finalPath := filepath.Join(dataDir, dbName)
		log.Printf("【提示】SQLite 数据库路径: %s\n", finalPath)
		dsn = SQLiteDSN(finalPath)
	}

	db, err := Open(dialect, dsn)
	if err != nil {
		return nil, "", err
	}
	log.Printf("✅ %s 数据库连接池创建成功！\n", dialect)
	return db, dialect, nil
}

// SQLiteDSN 返回 SQLite 文件的 DSN
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
}

// Open 打开连接池并验证连通性
func Open(dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开 sql.DB 连接失败 (驱动: %s): %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// SQLite 写操作串行，单连接可避免 database is locked
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(10)
		db.SetMaxOpenConns(100)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("无法 Ping 通数据库 (驱动: %s): %w", dialect, err)
	}
	return db, nil
}
