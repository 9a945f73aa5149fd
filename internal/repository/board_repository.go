package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"syncboard/internal/model"

	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return wrap("board.create", r.db.WithContext(ctx).Create(board).Error)
}

func (r *BoardRepository) GetAll(ctx context.Context) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&boards).Error
	return boards, wrap("board.getAll", err)
}

func (r *BoardRepository) GetByID(ctx context.Context, id string) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("board.getByID", err)
	}
	return &board, nil
}

func (r *BoardRepository) Update(ctx context.Context, board *model.Board) error {
	return wrap("board.update", r.db.WithContext(ctx).Save(board).Error)
}

// Delete removes a board together with its cards and their comment and
// version rows, all-or-nothing.
func (r *BoardRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cardIDs []string
		if err := tx.Model(&model.Card{}).Where("board_id = ?", id).
			Pluck("id", &cardIDs).Error; err != nil {
			return err
		}
		if len(cardIDs) > 0 {
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&model.CardVersion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id = ?", id).Delete(&model.Card{}).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).Delete(&model.Board{}).Error
	})
	return wrap("board.delete", err)
}

// UpdateColumnPositions applies a batch reorder of a board's column list.
// The whole batch commits or none of it does.
func (r *BoardRepository) UpdateColumnPositions(ctx context.Context, boardID string, updates []model.ColumnPosition) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var board model.Board
		if err := tx.Where("id = ?", boardID).First(&board).Error; err != nil {
			return err
		}

		positions := make(map[string]int, len(board.Columns))
		for i, col := range board.Columns {
			positions[col] = i
		}
		for _, u := range updates {
			if _, ok := positions[u.ID]; !ok {
				return fmt.Errorf("column %q not on board %s", u.ID, boardID)
			}
			positions[u.ID] = u.Position
		}

		sort.SliceStable(board.Columns, func(i, j int) bool {
			return positions[board.Columns[i]] < positions[board.Columns[j]]
		})
		return tx.Save(&board).Error
	})
	return wrap("board.updateColumnPositions", err)
}
