package repository

import (
	"context"
	"encoding/json"
	"errors"

	"syncboard/internal/model"

	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	return wrap("note.create", r.db.WithContext(ctx).Create(note).Error)
}

func (r *NoteRepository) GetAll(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&notes).Error
	return notes, wrap("note.getAll", err)
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, wrap("note.getByID", err)
	}
	return &note, nil
}

// Update appends the note's current state to note_versions before saving
// the new state, inside one transaction.
func (r *NoteRepository) Update(ctx context.Context, note *model.Note, actor string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.Note
		if err := tx.Where("id = ?", note.ID).First(&current).Error; err != nil {
			return err
		}

		snapshot, err := json.Marshal(&current)
		if err != nil {
			return err
		}
		version := model.NoteVersion{
			NoteID:    note.ID,
			Snapshot:  string(snapshot),
			ChangedBy: actor,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		note.CreatedAt = current.CreatedAt
		return tx.Save(note).Error
	})
	return wrap("note.update", err)
}

// Delete removes the note and its version history.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", id).Delete(&model.NoteVersion{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Note{}).Error
	})
	return wrap("note.delete", err)
}

func (r *NoteRepository) GetVersions(ctx context.Context, noteID string) ([]model.NoteVersion, error) {
	var versions []model.NoteVersion
	err := r.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("created_at DESC").
		Find(&versions).Error
	return versions, wrap("note.getVersions", err)
}
