package repository_test

import (
	"context"
	"database/sql/driver"
	"strings"
	"testing"
	"time"

	"syncboard/internal/model"
	"syncboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// containsArg matches any string argument containing the given fragment.
type containsArg string

func (c containsArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, string(c))
}

func TestCardRepository_Create(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	card := &model.Card{
		ID:       "card-0123456789ab",
		BoardID:  "board-1a2b3c4d",
		ColumnID: "todo",
		Title:    "Setup the board",
		Tags:     []string{"high-priority"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "cards"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := cardRepo.Create(context.Background(), card)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_GetByID_WithComments(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectQuery(`SELECT (.+) FROM "cards" WHERE id = (.+)`).
		WithArgs("card-0123456789ab", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "column_id", "title", "tags", "created_at", "updated_at"}).
			AddRow("card-0123456789ab", "board-1a2b3c4d", "todo", "Setup the board", `["high-priority"]`, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM "comments" WHERE (.+)card_id(.+)`).
		WithArgs("card-0123456789ab").
		WillReturnRows(sqlmock.NewRows([]string{"id", "card_id", "author", "text", "created_at"}).
			AddRow(1, "card-0123456789ab", "alice", "first, with|delimiters, kept intact", time.Now()).
			AddRow(2, "card-0123456789ab", "bob", "second", time.Now()))

	// Act
	card, err := cardRepo.GetByID(context.Background(), "card-0123456789ab")

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, card)
	assert.Equal(t, []string{"high-priority"}, card.Tags)
	assert.Len(t, card.Comments, 2)
	assert.Equal(t, "first, with|delimiters, kept intact", card.Comments[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_GetByID_NotFound(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectQuery(`SELECT (.+) FROM "cards" WHERE id = (.+)`).
		WithArgs("card-missing", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	// Act
	card, err := cardRepo.GetByID(context.Background(), "card-missing")

	// Assert
	assert.NoError(t, err)
	assert.Nil(t, card)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Update_AppendsVersionBeforeSave(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	// Expectations are ordered: the snapshot of the pre-update state must
	// be inserted before the new state is saved.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "cards" WHERE id = (.+)`).
		WithArgs("card-0123456789ab", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_id", "column_id", "title", "tags", "created_at", "updated_at"}).
			AddRow("card-0123456789ab", "board-1a2b3c4d", "todo", "Old title", `[]`, time.Now(), time.Now()))
	mock.ExpectQuery(`INSERT INTO "card_versions"`).
		WithArgs("card-0123456789ab", containsArg(`"title":"Old title"`), "alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "cards" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	card := &model.Card{
		ID:       "card-0123456789ab",
		BoardID:  "board-1a2b3c4d",
		ColumnID: "doing",
		Title:    "New title",
	}

	// Act
	err := cardRepo.Update(context.Background(), card, "alice")

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Update_MissingCardRollsBack(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "cards" WHERE id = (.+)`).
		WithArgs("card-missing", 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	card := &model.Card{ID: "card-missing", BoardID: "board-1a2b3c4d", ColumnID: "todo", Title: "x"}

	// Act
	err := cardRepo.Update(context.Background(), card, "alice")

	// Assert
	assert.Error(t, err)
	var perr *repository.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "card.update", perr.Op)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Delete_CascadesHistory(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "comments"`).
		WithArgs("card-0123456789ab").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "card_versions"`).
		WithArgs("card-0123456789ab").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(`DELETE FROM "cards"`).
		WithArgs("card-0123456789ab").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	err := cardRepo.Delete(context.Background(), "card-0123456789ab")

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_AddComment(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "comments"`).
		WithArgs("card-0123456789ab", "alice", "looks good", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	comment := &model.Comment{
		CardID: "card-0123456789ab",
		Author: "alice",
		Text:   "looks good",
	}

	// Act
	err := cardRepo.AddComment(context.Background(), comment)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_GetVersions_NewestFirst(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectQuery(`SELECT (.+) FROM "card_versions" WHERE card_id = (.+) ORDER BY created_at DESC`).
		WithArgs("card-0123456789ab").
		WillReturnRows(sqlmock.NewRows([]string{"id", "card_id", "snapshot", "changed_by", "created_at"}).
			AddRow(2, "card-0123456789ab", `{"title":"second"}`, "bob", time.Now()).
			AddRow(1, "card-0123456789ab", `{"title":"first"}`, "alice", time.Now().Add(-time.Hour)))

	// Act
	versions, err := cardRepo.GetVersions(context.Background(), "card-0123456789ab")

	// Assert
	assert.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Equal(t, "bob", versions[0].ChangedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
