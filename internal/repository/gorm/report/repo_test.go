package reportgorm

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/oggyb/sms-framework/internal/db/gormdb"
	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewRepository(gormdb.Wrap(conn)), mock
}

var revisionColumns = []string{"id", "message_id", "recipient", "gateway_id", "message_uuid", "status", "status_message", "status_time"}

func TestRepository_AppendInheritsLink(t *testing.T) {
	repo, mock := setupTestDB(t)
	link := uuid.New()
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "delivery_report_revisions" WHERE message_id = $1 AND recipient = $2 AND message_uuid IS NOT NULL`)).
		WillReturnRows(sqlmock.NewRows(revisionColumns).AddRow(3, "m1", "+1", "log", link.String(), "queued", "", t0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "delivery_report_revisions"`)).
		WithArgs("m1", "+1", "log", link.String(), "delivered", "ok", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	rev, err := repo.Append(context.Background(), nil, &message.DeliveryReport{
		MessageID: "m1", Recipient: "+1", GatewayID: "log",
		Status: message.StatusDelivered, StatusMessage: "ok", StatusTime: t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rev.ID)
	assert.Equal(t, message.StatusDelivered, rev.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RevisionAtStatusOrdering(t *testing.T) {
	repo, mock := setupTestDB(t)
	t1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE message_id = $1 AND recipient = $2 AND status = $3 ORDER BY status_time DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows(revisionColumns).AddRow(9, "m1", "+1", "log", nil, "queued", "", t1))

	rev, ok, err := repo.RevisionAtStatus(context.Background(), "m1", "+1", message.StatusQueued)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(9), rev.ID)
	assert.True(t, rev.StatusTime.Equal(t1))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindBuildsHistory(t *testing.T) {
	repo, mock := setupTestDB(t)
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "delivery_report_revisions" WHERE message_id = $1 AND recipient = $2 ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows(revisionColumns).
			AddRow(1, "m1", "+1", "log", nil, "queued", "", t0).
			AddRow(2, "m1", "+1", "log", nil, "pending", "", t0.Add(1800*time.Second)).
			AddRow(3, "m1", "+1", "log", nil, "delivered", "", t0.Add(3600*time.Second)))

	rep, err := repo.Find(context.Background(), "m1", "+1")
	require.NoError(t, err)
	require.Len(t, rep.Revisions, 3)
	assert.Equal(t, message.StatusDelivered, rep.Status)

	queued, ok := rep.TimeQueued()
	require.True(t, ok)
	assert.True(t, queued.Equal(t0))
	delivered, ok := rep.TimeDelivered()
	require.True(t, ok)
	assert.True(t, delivered.Equal(t0.Add(time.Hour)))
}

func TestRepository_FindNotFound(t *testing.T) {
	repo, mock := setupTestDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "delivery_report_revisions"`)).
		WillReturnRows(sqlmock.NewRows(revisionColumns))

	_, err := repo.Find(context.Background(), "m1", "+1")
	assert.ErrorIs(t, err, message.ErrNotFound)
}

func TestGroup(t *testing.T) {
	now := time.Now()
	reports := group([]RevisionModel{
		{ID: 1, MessageID: "a", Recipient: "+1", Status: "queued", StatusTime: now},
		{ID: 2, MessageID: "b", Recipient: "+2", Status: "queued", StatusTime: now},
		{ID: 3, MessageID: "a", Recipient: "+1", Status: "delivered", StatusTime: now},
	})
	require.Len(t, reports, 2)
	assert.Equal(t, "a", reports[0].MessageID)
	assert.Len(t, reports[0].Revisions, 2)
	assert.Equal(t, int64(3), reports[0].Revisions[1].ID)
}
