package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 对战奖励数值
const (
	winnerGold  = 50
	winnerExp   = 100
	loserGold   = 10
	loserExp    = 25
	expPerLevel = 1000
)

// RewardService 对战结算：奖励入账、胜负计数、对局存档
type RewardService struct {
	db  *sql.DB
	rdb *redis.Client
	log *zap.SugaredLogger
}

func NewRewardService(db *sql.DB, rdb *redis.Client, logger *zap.Logger) *RewardService {
	return &RewardService{db: db, rdb: rdb, log: logger.Sugar()}
}

// ApplyOutcome 按对战结果给双方发奖励并写对局记录
func (s *RewardService) ApplyOutcome(ctx context.Context, roomID, winnerID, loserID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if err := applyDelta(ctx, tx, winnerID, winnerGold, winnerExp, true); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, loserID, loserGold, loserExp, false); err != nil {
		return err
	}

	resultID := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO battle_results (id, room_id, winner_id, loser_id) VALUES (?, ?, ?, ?)`,
		resultID, roomID, winnerID, loserID); err != nil {
		return fmt.Errorf("写对局记录失败: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	if s.rdb != nil {
		s.rdb.Incr(ctx, "stats:rewards")
	}
	s.log.Infow("✅ 对战奖励已发放", "roomId", roomID, "winner", winnerID, "loser", loserID)
	return nil
}

// applyDelta 给一名玩家加金币/经验并更新胜负场次和等级。
// 等级在 Go 侧由结算后的累计经验推导，避免 SQL 里重复加经验。
func applyDelta(ctx context.Context, tx *sql.Tx, playerID string, gold, exp int, won bool) error {
	col := "losses"
	if won {
		col = "wins"
	}

	var current int
	err := tx.QueryRowContext(ctx,
		`SELECT experience FROM players WHERE user_id = ? FOR UPDATE`, playerID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("玩家 %s 不存在", playerID)
	}
	if err != nil {
		return fmt.Errorf("读取玩家 %s 失败: %w", playerID, err)
	}

	newExp := current + exp
	query := fmt.Sprintf(
		`UPDATE players
		 SET gold = gold + ?,
		     experience = ?,
		     %s = %s + 1,
		     total_games = total_games + 1,
		     level = ?
		 WHERE user_id = ?`, col, col)

	if _, err := tx.ExecContext(ctx, query, gold, newExp, levelFor(newExp), playerID); err != nil {
		return fmt.Errorf("更新玩家 %s 失败: %w", playerID, err)
	}
	return nil
}

// levelFor 每 1000 经验升一级，1 级起步
func levelFor(experience int) int {
	return 1 + experience/expPerLevel
}
