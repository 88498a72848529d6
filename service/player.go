package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"go-battle/battle"
	"go-battle/entities"
)

// PlayerService 玩家档案读写（players 表）
type PlayerService struct {
	db *sql.DB
}

func NewPlayerService(db *sql.DB) *PlayerService {
	return &PlayerService{db: db}
}

// GetPlayer 按 ID 查档案，不存在返回 battle.ErrPlayerNotFound
func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (*entities.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, level, experience, gold, gems, wins, losses, total_games, created_at
		 FROM players WHERE user_id = ?`, playerID)

	var p entities.Player
	err := row.Scan(&p.UserID, &p.Username, &p.Level, &p.Experience, &p.Gold, &p.Gems,
		&p.Wins, &p.Losses, &p.TotalGames, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, battle.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询玩家失败: %w", err)
	}
	return &p, nil
}

// CreatePlayer 注册新玩家，初始 1000 金币 50 宝石
func (s *PlayerService) CreatePlayer(ctx context.Context, username string) (*entities.Player, error) {
	userID := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (user_id, username) VALUES (?, ?)`, userID, username)
	if err != nil {
		return nil, fmt.Errorf("创建玩家失败: %w", err)
	}

	return s.GetPlayer(ctx, userID)
}
