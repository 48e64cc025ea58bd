package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	apperrors "gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
)

func TestPostgresRepo_UpsertReaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	reaction := model.Reaction{
		MessageID:   "msg-1",
		UserID:      "user-1",
		Emoji:       "👍",
		AuthorPhone: "+5491122334455",
		CompanyID:   testTenantID,
	}

	insertPattern := `INSERT INTO "reactions" ("message_id","user_id","emoji","author_phone","company_id","created_at") VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT ("message_id","user_id","emoji") DO NOTHING RETURNING "id"`
	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
	mock.ExpectQuery(insertPattern).
		WithArgs(reaction.MessageID, reaction.UserID, reaction.Emoji, reaction.AuthorPhone, reaction.CompanyID, AnyTime{}).
		WillReturnRows(rows)

	err := repo.UpsertReaction(ctx, reaction)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_UpsertReaction_TenantMismatch(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	reaction := model.Reaction{MessageID: "msg-1", UserID: "user-1", Emoji: "👍", CompanyID: "wrong-tenant"}

	err := repo.UpsertReaction(ctx, reaction)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_DeleteReaction(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()

	deleteQuery := `DELETE FROM "reactions" WHERE message_id = $1 AND user_id = $2 AND emoji = $3 AND company_id = $4`
	mock.ExpectExec(deleteQuery).
		WithArgs("msg-1", "user-1", "👍", testTenantID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DeleteReaction(ctx, "msg-1", "user-1", "👍")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_DeleteReaction_AbsentRowIsNotAnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()

	deleteQuery := `DELETE FROM "reactions" WHERE message_id = $1 AND user_id = $2 AND emoji = $3 AND company_id = $4`
	mock.ExpectExec(deleteQuery).
		WithArgs("msg-1", "user-1", "🔥", testTenantID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteReaction(ctx, "msg-1", "user-1", "🔥")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindReactionsByMessageID(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	now := time.Now()

	cols := []string{"id", "message_id", "user_id", "emoji", "company_id", "created_at"}
	rows := sqlmock.NewRows(cols).
		AddRow(int64(1), "msg-1", "user-1", "👍", testTenantID, now.Add(-time.Minute)).
		AddRow(int64(2), "msg-1", "user-2", "❤️", testTenantID, now)
	selectQuery := `SELECT * FROM "reactions" WHERE message_id = $1 AND company_id = $2 ORDER BY created_at ASC`
	mock.ExpectQuery(selectQuery).WithArgs("msg-1", testTenantID).WillReturnRows(rows)

	reactions, err := repo.FindReactionsByMessageID(ctx, "msg-1")
	assert.NoError(t, err)
	assert.Len(t, reactions, 2)
	assert.Equal(t, "👍", reactions[0].Emoji)
	assert.Equal(t, "user-2", reactions[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
