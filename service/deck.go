package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"go-battle/battle"
	"go-battle/entities"
)

// DeckService 卡组读写（decks 表），card_ids 按 JSON 存
type DeckService struct {
	db *sql.DB
}

func NewDeckService(db *sql.DB) *DeckService {
	return &DeckService{db: db}
}

// GetPlayerDecks 玩家的全部卡组
func (s *DeckService) GetPlayerDecks(ctx context.Context, playerID string) ([]entities.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, card_ids, is_active FROM decks WHERE user_id = ?`, playerID)
	if err != nil {
		return nil, fmt.Errorf("查询卡组失败: %w", err)
	}
	defer rows.Close()

	var decks []entities.Deck
	for rows.Next() {
		var d entities.Deck
		var rawIDs string
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &rawIDs, &d.IsActive); err != nil {
			return nil, fmt.Errorf("读取卡组失败: %w", err)
		}
		if err := json.Unmarshal([]byte(rawIDs), &d.CardIDs); err != nil {
			return nil, fmt.Errorf("卡组数据解析失败: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// ActiveDeckCards 玩家启用卡组的卡牌列表，没配置就回落默认卡组
func (s *DeckService) ActiveDeckCards(ctx context.Context, playerID string) ([]string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT card_ids FROM decks WHERE user_id = ? AND is_active = TRUE LIMIT 1`, playerID)

	var rawIDs string
	err := row.Scan(&rawIDs)
	if err == sql.ErrNoRows {
		return battle.DefaultDeck(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询启用卡组失败: %w", err)
	}

	var cardIDs []string
	if err := json.Unmarshal([]byte(rawIDs), &cardIDs); err != nil {
		return nil, fmt.Errorf("卡组数据解析失败: %w", err)
	}
	if len(cardIDs) == 0 {
		return battle.DefaultDeck(), nil
	}
	return cardIDs, nil
}

// SaveDeck 保存一套卡组并设为启用（旧的启用卡组自动取消）
func (s *DeckService) SaveDeck(ctx context.Context, playerID, name string, cardIDs []string) (*entities.Deck, error) {
	for _, id := range cardIDs {
		if _, ok := battle.CardByID(id); !ok {
			return nil, fmt.Errorf("未知卡牌: %s", id)
		}
	}

	rawIDs, err := json.Marshal(cardIDs)
	if err != nil {
		return nil, err
	}
	deckID := "deck_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE decks SET is_active = FALSE WHERE user_id = ?`, playerID); err != nil {
		return nil, fmt.Errorf("取消旧卡组失败: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO decks (id, user_id, name, card_ids, is_active) VALUES (?, ?, ?, ?, TRUE)`,
		deckID, playerID, name, string(rawIDs)); err != nil {
		return nil, fmt.Errorf("保存卡组失败: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	return &entities.Deck{
		ID:       deckID,
		UserID:   playerID,
		Name:     name,
		CardIDs:  cardIDs,
		IsActive: true,
	}, nil
}
