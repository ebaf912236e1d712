package history

import (
	"context"
	stderrors "errors"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/models"
)

var testItem = models.MenuItem{
	MenuID:       1,
	RestaurantID: 7,
	PlaceName:    "국밥집",
	MenuName:     "순대국밥",
	Price:        9000,
	Region:       "강남",
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 50},
		{"negative uses default", -3, 50},
		{"within range", 20, 20},
		{"capped", 10000, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampLimit(tt.limit, DefaultLimit, MaxLimit))
		})
	}
}

// ==========================
// Postgres
// ==========================

func TestPostgresStore_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO recommendation_history`).
		WithArgs("u1", int64(1), int64(7), "국밥집", "순대국밥", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	rec, err := NewPostgresStore(db).Record(context.Background(), "u1", testItem, at)
	require.NoError(t, err)
	assert.Equal(t, "42", rec.ID)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "순대국밥", rec.MenuName)
	assert.True(t, rec.RecommendedAt.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO recommendation_history`).WillReturnError(stderrors.New("disk full"))

	_, err = NewPostgresStore(db).Record(context.Background(), "u1", testItem, time.Now())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeHistoryPersistenceFailed))
}

func TestPostgresStore_History(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	newer := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "menu_id", "restaurant_id", "place_name", "menu_name", "recommended_at"}).
		AddRow(int64(2), "u1", int64(3), int64(7), "국밥집", "돼지국밥", newer).
		AddRow(int64(1), "u1", int64(1), int64(7), "국밥집", "순대국밥", older)

	mock.ExpectQuery(`FROM recommendation_history WHERE user_id = \$1 AND recommended_at >= \$2 ORDER BY recommended_at DESC, id DESC LIMIT \$3`).
		WithArgs("u1", sqlmock.AnyArg(), 50).
		WillReturnRows(rows)

	records, err := NewPostgresStore(db).History(context.Background(), models.HistoryFilter{UserID: "u1", Since: older})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[0].ID)
	assert.Equal(t, "1", records[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_HistoryWithoutFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM recommendation_history ORDER BY recommended_at DESC, id DESC LIMIT \$1`).
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "menu_id", "restaurant_id", "place_name", "menu_name", "recommended_at"}))

	records, err := NewPostgresStore(db).History(context.Background(), models.HistoryFilter{Limit: 9999})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_HistoryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM recommendation_history`).WillReturnError(stderrors.New("connection reset"))

	_, err = NewPostgresStore(db).History(context.Background(), models.HistoryFilter{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeHistoryQueryFailed))
}

// ==========================
// Redis
// ==========================

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_RecordAndHistory(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.Record(ctx, "u1", testItem, base)
	require.NoError(t, err)
	second, err := store.Record(ctx, "u2", testItem, base.Add(time.Minute))
	require.NoError(t, err)
	third, err := store.Record(ctx, "u1", testItem, base.Add(2*time.Minute))
	require.NoError(t, err)

	all, err := store.History(ctx, models.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := store.History(ctx, models.HistoryFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, third.ID, mine[0].ID)
	assert.Equal(t, "순대국밥", mine[0].MenuName)
	assert.True(t, mine[0].RecommendedAt.Equal(base.Add(2*time.Minute)))

	recent, err := store.History(ctx, models.HistoryFilter{Since: base.Add(30 * time.Second)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := store.History(ctx, models.HistoryFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, third.ID, limited[0].ID)
}

func TestRedisStore_MicrosecondBounds(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first, err := store.Record(ctx, "u1", testItem, base)
	require.NoError(t, err)
	second, err := store.Record(ctx, "u1", testItem, base.Add(time.Microsecond))
	require.NoError(t, err)

	all, err := store.History(ctx, models.HistoryFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []string{second.ID, first.ID}, []string{all[0].ID, all[1].ID})

	upTo, err := store.History(ctx, models.HistoryFilter{UserID: "u1", Until: base.Add(500 * time.Nanosecond)})
	require.NoError(t, err)
	require.Len(t, upTo, 1)
	assert.Equal(t, first.ID, upTo[0].ID)

	from, err := store.History(ctx, models.HistoryFilter{UserID: "u1", Since: base.Add(500 * time.Nanosecond)})
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, second.ID, from[0].ID)
}

func TestRedisStore_HistoryBoundsInMicroseconds(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)
	since := time.Date(2024, 5, 1, 12, 0, 0, 1500, time.UTC)
	until := since.Add(time.Hour)

	mock.ExpectZRevRangeByScore("history:all", &redis.ZRangeBy{
		Min:   strconv.FormatInt(since.UnixMicro()+1, 10),
		Max:   strconv.FormatInt(until.UnixMicro(), 10),
		Count: 50,
	}).SetVal([]string{})

	_, err := store.History(context.Background(), models.HistoryFilter{Since: since, Until: until})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_SkipsMissingRecords(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	rec, err := store.Record(ctx, "u1", testItem, time.Now())
	require.NoError(t, err)
	mr.Del(recordKey(rec.ID))

	records, err := store.History(ctx, models.HistoryFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRedisStore_RecordFailure(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mr.Close()

	_, err := store.Record(context.Background(), "u1", testItem, time.Now())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeHistoryPersistenceFailed))
}

func TestRedisStore_HistoryFailure(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectZRevRangeByScore("history:user:u1", &redis.ZRangeBy{Min: "-inf", Max: "+inf", Count: 50}).
		SetErr(stderrors.New("READONLY"))

	_, err := store.History(context.Background(), models.HistoryFilter{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeHistoryQueryFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_HistoryEmpty(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectZRevRangeByScore("history:all", &redis.ZRangeBy{Min: "-inf", Max: "+inf", Count: 50}).
		SetVal([]string{})

	records, err := store.History(context.Background(), models.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
