package audit

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMarshalsSnapshots(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs("ops", ActionEmployeeUpdate, EntityEmployee, "e-1",
			[]byte(`{"name":"Old"}`), []byte(`{"name":"New"}`), "req-1", "10.0.0.1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = New(mock).Record(context.Background(), Entry{
		Actor:      "ops",
		Action:     ActionEmployeeUpdate,
		EntityType: EntityEmployee,
		EntityID:   "e-1",
		RequestID:  "req-1",
		IP:         "10.0.0.1",
		Before:     map[string]string{"name": "Old"},
		After:      map[string]string{"name": "New"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordWithoutSnapshotsStoresNull(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_events")).
		WithArgs("anonymous", ActionEmployeeDelete, EntityEmployee, "e-2", []byte(nil), []byte(nil), "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = New(mock).Record(context.Background(), Entry{
		Actor:      "anonymous",
		Action:     ActionEmployeeDelete,
		EntityType: EntityEmployee,
		EntityID:   "e-2",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppliesFiltersAndPaging(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND action = $1 AND actor = $2 ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4")).
		WithArgs(ActionSettingsUpdate, "ops", 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "actor", "action", "entity_type", "entity_id", "request_id", "ip", "created_at", "before_json", "after_json"}).
			AddRow("7", "ops", ActionSettingsUpdate, EntityCompanySettings, "1", "req-9", "127.0.0.1", at,
				json.RawMessage(nil), json.RawMessage(`{"companyName":"Acme"}`)))

	events, err := New(mock).List(context.Background(), Filter{Action: ActionSettingsUpdate, Actor: "ops"}, true, 10, 20)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "7", events[0].ID)
	assert.Equal(t, at, events[0].CreatedAt)
	assert.JSONEq(t, `{"companyName":"Acme"}`, string(events[0].After))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithoutLimitReturnsEverything(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM audit_events WHERE 1=1 ORDER BY created_at DESC, id DESC$`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "actor", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}))

	events, err := New(mock).List(context.Background(), Filter{}, false, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(1) FROM audit_events WHERE 1=1 AND entity_type = $1")).
		WithArgs(EntityEmployee).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	total, err := New(mock).Count(context.Background(), Filter{EntityType: EntityEmployee})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPrune(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM audit_events WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := New(mock).Prune(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
