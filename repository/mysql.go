// mysql.go
package repository

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
)

var Db *sql.DB

func InitMySQL() {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/cardbattle?parseTime=true"
	}

	var err error
	Db, err = sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("MySQL 打开失败: %v", err)
	}
	if err := Db.Ping(); err != nil {
		log.Fatalf("MySQL 连接失败: %v", err)
	}

	if err := initTables(); err != nil {
		log.Fatalf("MySQL 建表失败: %v", err)
	}
	log.Println("✅ MySQL 连接成功")
}

// initTables 开发用的简易建表，生产环境走迁移脚本
func initTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			user_id     VARCHAR(64) PRIMARY KEY,
			username    VARCHAR(64) NOT NULL UNIQUE,
			level       INT NOT NULL DEFAULT 1,
			experience  INT NOT NULL DEFAULT 0,
			gold        INT NOT NULL DEFAULT 1000,
			gems        INT NOT NULL DEFAULT 50,
			wins        INT NOT NULL DEFAULT 0,
			losses      INT NOT NULL DEFAULT 0,
			total_games INT NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS decks (
			id        VARCHAR(64) PRIMARY KEY,
			user_id   VARCHAR(64) NOT NULL,
			name      VARCHAR(64) NOT NULL,
			card_ids  TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			INDEX idx_decks_user (user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS battle_results (
			id        VARCHAR(64) PRIMARY KEY,
			room_id   VARCHAR(64) NOT NULL,
			winner_id VARCHAR(64) NOT NULL,
			loser_id  VARCHAR(64) NOT NULL,
			ended_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := Db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
