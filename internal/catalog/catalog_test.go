package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
	"menu-recommender/internal/models"
)

const csvHeader = "place_name,menu_name,menu_price,region,address,url,allergy,menu_id,restaurant_id\n"

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// ==========================
// Store
// ==========================

func TestStore_ItemsInRegion(t *testing.T) {
	store := NewStore("test", []models.MenuItem{
		{MenuID: 1, Region: "강남"},
		{MenuID: 2, Region: "강남"},
		{MenuID: 3, Region: "홍대"},
	})

	assert.Equal(t, 3, store.Len())
	assert.Equal(t, []string{"강남", "홍대"}, store.Regions())
	assert.Len(t, store.ItemsInRegion("강남"), 2)
	assert.Empty(t, store.ItemsInRegion("강남 "))
	assert.Empty(t, store.ItemsInRegion("잠실"))

	// callers get a copy
	items := store.ItemsInRegion("홍대")
	items[0].MenuID = 99
	assert.Equal(t, int64(3), store.ItemsInRegion("홍대")[0].MenuID)
}

func TestHolder_Swap(t *testing.T) {
	first := NewStore("a", nil)
	holder := NewHolder(first)
	assert.Same(t, first, holder.Current())

	second := NewStore("b", []models.MenuItem{{MenuID: 1}})
	previous := holder.Swap(second)

	assert.Same(t, first, previous)
	assert.Same(t, second, holder.Current())
	assert.Nil(t, NewHolder(nil).Current())
}

// ==========================
// Normalization
// ==========================

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "12,000", want: 12000},
		{raw: " 9000 ", want: 9000},
		{raw: "9000.0", want: 9000},
		{raw: "0", want: 0},
		{raw: "", wantErr: true},
		{raw: "-100", wantErr: true},
		{raw: "무료", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "Inf", wantErr: true},
		{raw: "1e30", wantErr: true},
		{raw: "9223372036854775808", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePrice(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAllergens(t *testing.T) {
	assert.Equal(t, models.NewStringSet("땅콩", "우유"), ParseAllergens(" 땅콩, 우유 ,,"))
	assert.Empty(t, ParseAllergens(""))
	assert.Empty(t, ParseAllergens(" , "))
}

// ==========================
// CSV source
// ==========================

func TestReadCSV_Success(t *testing.T) {
	data := "\ufeffmenu_id,restaurant_id,place_name,menu_name,menu_price,region,address,url,allergy,rating\n" +
		"1,10, 김밥천국 , 참치김밥 ,\"4,500\", 강남 ,서울 강남구,http://a,\"우유, 대두\",4.5\n" +
		"2,10,김밥천국,라면,4000,강남,서울 강남구,http://a,,4.1\n"

	items, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, models.MenuItem{
		MenuID:       1,
		RestaurantID: 10,
		PlaceName:    "김밥천국",
		MenuName:     "참치김밥",
		Price:        4500,
		Region:       "강남",
		Address:      "서울 강남구",
		URL:          "http://a",
		Allergens:    models.NewStringSet("우유", "대두"),
	}, items[0])
	assert.Empty(t, items[1].Allergens)
}

func TestReadCSV_SkipsMalformedRows(t *testing.T) {
	data := csvHeader +
		"a,b,1000,강남,addr,url,,1,2\n" +
		"too,few,fields\n" +
		"c,d,2000,강남,addr,url,,3,4\n"

	items, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestReadCSV_IntegrityErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		errContains string
	}{
		{
			name:        "missing id columns",
			data:        "place_name,menu_name,menu_price,region,address,url,allergy\na,b,1000,강남,addr,url,\n",
			errContains: "menu_id, restaurant_id",
		},
		{
			name:        "empty menu id",
			data:        csvHeader + "a,b,1000,강남,addr,url,,,2\n",
			errContains: "line 2: menu_id",
		},
		{
			name:        "bad price",
			data:        csvHeader + "a,b,1000,강남,addr,url,,1,2\nc,d,싸요,강남,addr,url,,3,4\n",
			errContains: "line 3: menu_price",
		},
		{
			name:        "price beyond int range",
			data:        csvHeader + "a,b,1e30,강남,addr,url,,1,2\n",
			errContains: "line 2: menu_price",
		},
		{
			name:        "empty file",
			data:        "",
			errContains: "no header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeDataIntegrity))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), NewCSVSource("/nonexistent/menu.csv"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogLoadFailed))
}

// ==========================
// Postgres source
// ==========================

const catalogQuery = `SELECT place_name, menu_name, menu_price, region, address, url, allergy, menu_id, restaurant_id FROM menu_catalog ORDER BY menu_id`

func TestPostgresSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(RequiredColumns).
		AddRow("국밥집", "순대국밥", "9,000", "강남", "addr", "url", nil, int64(1), int64(7)).
		AddRow("국밥집", "돼지국밥", "10000", "강남", "addr", "url", "돼지고기", int64(2), int64(7))
	mock.ExpectQuery(catalogQuery).WillReturnRows(rows)

	source, err := NewPostgresSource(db, "menu_catalog")
	require.NoError(t, err)

	items, err := source.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 9000, items[0].Price)
	assert.Equal(t, int64(7), items[0].RestaurantID)
	assert.Empty(t, items[0].Allergens)
	assert.True(t, items[1].Allergens.Has("돼지고기"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_NullRestaurantID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(RequiredColumns).
		AddRow("국밥집", "순대국밥", "9000", "강남", "addr", "url", nil, int64(1), nil)
	mock.ExpectQuery(catalogQuery).WillReturnRows(rows)

	source, err := NewPostgresSource(db, "menu_catalog")
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataIntegrity))
	assert.Contains(t, err.Error(), "restaurant_id")
}

func TestPostgresSource_MissingColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(catalogQuery).WillReturnError(&pq.Error{Code: "42703", Message: `column "menu_id" does not exist`})

	source, err := NewPostgresSource(db, "menu_catalog")
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataIntegrity))
}

func TestPostgresSource_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(catalogQuery).WillReturnError(fmt.Errorf("connection refused"))

	source, err := NewPostgresSource(db, "menu_catalog")
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogLoadFailed))
}

func TestNewPostgresSource_RejectsBadTableName(t *testing.T) {
	_, err := NewPostgresSource(nil, "menu; DROP TABLE x")
	assert.Error(t, err)

	_, err = NewPostgresSource(nil, "public.menu_catalog")
	assert.NoError(t, err)
}

// ==========================
// Elasticsearch source
// ==========================

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func hitJSON(id int, restaurant interface{}, name string) string {
	source := map[string]interface{}{
		"menu_id":    id,
		"place_name": "분식집",
		"menu_name":  name,
		"menu_price": 5000,
		"region":     "강남",
		"address":    "addr",
		"url":        "url",
		"allergy":    []string{"밀"},
	}
	if restaurant != nil {
		source["restaurant_id"] = restaurant
	}
	b, _ := json.Marshal(map[string]interface{}{
		"_id":     fmt.Sprint(id),
		"_source": source,
		"sort":    []int{id},
	})
	return string(b)
}

func TestESSource_PagesWithSearchAfter(t *testing.T) {
	var calls int32
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/menus/_search", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			assert.NotContains(t, body, "search_after")
			fmt.Fprintf(w, `{"hits":{"hits":[%s,%s]}}`, hitJSON(1, 10, "떡볶이"), hitJSON(2, 10, "순대"))
		default:
			assert.Equal(t, []interface{}{float64(2)}, body["search_after"])
			fmt.Fprintf(w, `{"hits":{"hits":[%s]}}`, hitJSON(3, "11", "튀김"))
		}
	})

	source, err := NewESSource(client, "menus", 2)
	require.NoError(t, err)

	items, err := source.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(11), items[2].RestaurantID)
	assert.Equal(t, 5000, items[0].Price)
	assert.True(t, items[0].Allergens.Has("밀"))
}

func TestESSource_DocumentWithoutRestaurantID(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"hits":{"hits":[%s]}}`, hitJSON(1, nil, "떡볶이"))
	})

	source, err := NewESSource(client, "menus", 10)
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataIntegrity))
	assert.Contains(t, err.Error(), "restaurant_id")
}

func TestESSource_LargeIDsKeepPrecision(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits":{"hits":[{"_id":"a","sort":[9007199254740993],"_source":{`+
			`"menu_id":9007199254740993,"restaurant_id":9007199254740995,"place_name":"분식집",`+
			`"menu_name":"떡볶이","menu_price":4500,"region":"강남","address":"addr","url":"url","allergy":null}}]}}`)
	})

	source, err := NewESSource(client, "menus", 10)
	require.NoError(t, err)

	items, err := source.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(9007199254740993), items[0].MenuID)
	assert.Equal(t, int64(9007199254740995), items[0].RestaurantID)
	assert.Equal(t, 4500, items[0].Price)
}

func TestESSource_IndexNotFound(t *testing.T) {
	client := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
	})

	source, err := NewESSource(client, "menus", 10)
	require.NoError(t, err)

	_, err = source.Load(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeIndexNotFound))
}

// ==========================
// Loader
// ==========================

type fakeSource struct {
	items []models.MenuItem
	err   error
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Load(context.Context) ([]models.MenuItem, error) {
	return f.items, f.err
}

func TestLoader_Reload(t *testing.T) {
	holder := NewHolder(nil)
	source := &fakeSource{items: []models.MenuItem{{MenuID: 1, Region: "강남"}}}
	loader := NewLoader(source, holder, createTestLogger(t))

	store, err := loader.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, store, holder.Current())
	assert.Equal(t, 1, store.Len())

	source.err = fmt.Errorf("disk gone")
	_, err = loader.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogLoadFailed))
	assert.Same(t, store, holder.Current(), "failed reload keeps the store in service")

	source.err = errors.NewDataIntegrityError("fake", "menu_id missing")
	_, err = loader.Reload(context.Background())
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataIntegrity))
}
