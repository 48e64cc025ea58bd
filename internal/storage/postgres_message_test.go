package storage

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	apperrors "gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/model"
)

func TestPostgresRepo_SaveInboundMessage_Success(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	now := time.Now()
	message := model.Message{
		ID:                "msg-1",
		ConversationID:    "conv-1",
		Body:              "hola",
		SenderRole:        model.SenderContact,
		ProviderMessageID: "wamid.abc",
		Timestamp:         now,
		CompanyID:         testTenantID,
	}

	convCols := []string{"id", "contact_id", "area", "status", "company_id", "last_activity_at"}
	convRows := sqlmock.NewRows(convCols).
		AddRow("conv-1", "contact-1", "ventas", model.ConversationStatusActive, testTenantID, now.Add(-time.Hour))

	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "conversations" WHERE id = $1 AND company_id = $2 ORDER BY "conversations"."id" LIMIT $3 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs("conv-1", testTenantID, 1).WillReturnRows(convRows)

	insertPattern := `INSERT INTO "messages" ("id","conversation_id","body","sender_role","provider_message_id","reply_to_id","media_id","media_url","media_mime_type","media_caption","media_filename","media_sha256","media_duration","timestamp","company_id","created_at") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	mock.ExpectExec(insertPattern).
		WithArgs(
			message.ID, message.ConversationID, message.Body, message.SenderRole,
			message.ProviderMessageID, message.ReplyToID, message.MediaID, message.MediaURL, message.MediaMimeType,
			message.MediaCaption, message.MediaFilename, message.MediaSHA256, message.MediaDuration,
			AnyTime{}, message.CompanyID, AnyTime{},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updatePattern := `UPDATE "conversations" SET "last_activity_at"=$1,"updated_at"=$2 WHERE "id" = $3`
	mock.ExpectExec(updatePattern).
		WithArgs(AnyTime{}, AnyTime{}, "conv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveInboundMessage(ctx, message)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveInboundMessage_ActivatesNewConversation(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	now := time.Now()
	message := model.Message{
		ID:             "msg-2",
		ConversationID: "conv-new",
		Body:           "primer mensaje",
		SenderRole:     model.SenderContact,
		Timestamp:      now,
		CompanyID:      testTenantID,
	}

	convCols := []string{"id", "contact_id", "area", "status", "company_id", "last_activity_at"}
	convRows := sqlmock.NewRows(convCols).
		AddRow("conv-new", "contact-1", "ventas", model.ConversationStatusNew, testTenantID, now.Add(-time.Minute))

	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "conversations" WHERE id = $1 AND company_id = $2 ORDER BY "conversations"."id" LIMIT $3 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs("conv-new", testTenantID, 1).WillReturnRows(convRows)

	insertPattern := `INSERT INTO "messages" ("id","conversation_id","body","sender_role","provider_message_id","reply_to_id","media_id","media_url","media_mime_type","media_caption","media_filename","media_sha256","media_duration","timestamp","company_id","created_at") VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	mock.ExpectExec(insertPattern).
		WithArgs(
			message.ID, message.ConversationID, message.Body, message.SenderRole,
			message.ProviderMessageID, message.ReplyToID, message.MediaID, message.MediaURL, message.MediaMimeType,
			message.MediaCaption, message.MediaFilename, message.MediaSHA256, message.MediaDuration,
			AnyTime{}, message.CompanyID, AnyTime{},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updatePattern := `UPDATE "conversations" SET "last_activity_at"=$1,"status"=$2,"updated_at"=$3 WHERE "id" = $4`
	mock.ExpectExec(updatePattern).
		WithArgs(AnyTime{}, model.ConversationStatusActive, AnyTime{}, "conv-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveInboundMessage(ctx, message)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveInboundMessage_ConversationNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	message := model.Message{
		ID:             "msg-3",
		ConversationID: "conv-missing",
		Body:           "hola",
		SenderRole:     model.SenderContact,
		Timestamp:      time.Now(),
		CompanyID:      testTenantID,
	}

	mock.ExpectBegin()
	selectQuery := `SELECT * FROM "conversations" WHERE id = $1 AND company_id = $2 ORDER BY "conversations"."id" LIMIT $3 FOR UPDATE`
	mock.ExpectQuery(selectQuery).WithArgs("conv-missing", testTenantID, 1).WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	err := repo.SaveInboundMessage(ctx, message)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SaveInboundMessage_TenantMismatch(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	message := model.Message{ID: "msg-4", ConversationID: "conv-1", CompanyID: "wrong-tenant"}

	err := repo.SaveInboundMessage(ctx, message)
	assert.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindMessageByProviderID_Found(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	now := time.Now()

	cols := []string{"id", "conversation_id", "body", "sender_role", "provider_message_id", "company_id", "timestamp"}
	rows := sqlmock.NewRows(cols).
		AddRow("msg-1", "conv-1", "hola", model.SenderContact, "wamid.abc", testTenantID, now)
	selectQuery := `SELECT * FROM "messages" WHERE provider_message_id = $1 AND company_id = $2 ORDER BY created_at DESC,"messages"."id" LIMIT $3`
	mock.ExpectQuery(selectQuery).WithArgs("wamid.abc", testTenantID, 1).WillReturnRows(rows)

	msg, err := repo.FindMessageByProviderID(ctx, "wamid.abc")
	assert.NoError(t, err)
	assert.NotNil(t, msg)
	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, "conv-1", msg.ConversationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindMessageByProviderID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()

	selectQuery := `SELECT * FROM "messages" WHERE provider_message_id = $1 AND company_id = $2 ORDER BY created_at DESC,"messages"."id" LIMIT $3`
	mock.ExpectQuery(selectQuery).WithArgs("wamid.missing", testTenantID, 1).WillReturnError(gorm.ErrRecordNotFound)

	msg, err := repo.FindMessageByProviderID(ctx, "wamid.missing")
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_FindMessagesByConversationID(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := contextWithTenant()
	now := time.Now()

	cols := []string{"id", "conversation_id", "body", "sender_role", "company_id", "timestamp"}
	rows := sqlmock.NewRows(cols).
		AddRow("msg-1", "conv-1", "hola", model.SenderContact, testTenantID, now.Add(-time.Minute)).
		AddRow("msg-2", "conv-1", "buenas", model.SenderAgent, testTenantID, now)
	selectQuery := `SELECT * FROM "messages" WHERE conversation_id = $1 AND company_id = $2 ORDER BY timestamp ASC LIMIT $3`
	mock.ExpectQuery(selectQuery).WithArgs("conv-1", testTenantID, 50).WillReturnRows(rows)

	msgs, err := repo.FindMessagesByConversationID(ctx, "conv-1", 50, 0)
	assert.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Equal(t, "msg-1", msgs[0].ID)
	assert.Equal(t, model.SenderAgent, msgs[1].SenderRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}
