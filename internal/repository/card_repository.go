package repository

import (
	"context"
	"encoding/json"
	"errors"

	"syncboard/internal/model"

	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) Create(ctx context.Context, card *model.Card) error {
	return wrap("card.create", r.db.WithContext(ctx).Create(card).Error)
}

func (r *CardRepository) GetByID(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		Where("id = ?", id).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("card.getByID", err)
	}
	return &card, nil
}

func (r *CardRepository) GetAll(ctx context.Context) ([]model.Card, error) {
	var cards []model.Card
	err := r.db.WithContext(ctx).Order("position").Find(&cards).Error
	return cards, wrap("card.getAll", err)
}

func (r *CardRepository) GetByBoardID(ctx context.Context, boardID string) ([]model.Card, error) {
	var cards []model.Card
	err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at")
		}).
		Where("board_id = ?", boardID).
		Order("position").
		Find(&cards).Error
	return cards, wrap("card.getByBoardID", err)
}

// Update snapshots the card's current state into card_versions, then saves
// the new state. Both happen in one transaction, so the version row always
// holds the state immediately prior to the update that produced it.
func (r *CardRepository) Update(ctx context.Context, card *model.Card, actor string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Card
		if err := tx.Where("id = ?", card.ID).First(&current).Error; err != nil {
			return err
		}

		snapshot, err := json.Marshal(&current)
		if err != nil {
			return err
		}
		version := model.CardVersion{
			CardID:    card.ID,
			Snapshot:  string(snapshot),
			ChangedBy: actor,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		card.CreatedAt = current.CreatedAt
		return tx.Save(card).Error
	})
	return wrap("card.update", err)
}

// Delete removes the card with its comments and version history.
func (r *CardRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", id).Delete(&model.CardVersion{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Card{}).Error
	})
	return wrap("card.delete", err)
}

func (r *CardRepository) AddComment(ctx context.Context, comment *model.Comment) error {
	return wrap("card.addComment", r.db.WithContext(ctx).Create(comment).Error)
}

func (r *CardRepository) GetVersions(ctx context.Context, cardID string) ([]model.CardVersion, error) {
	var versions []model.CardVersion
	err := r.db.WithContext(ctx).
		Where("card_id = ?", cardID).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, wrap("card.getVersions", err)
}
