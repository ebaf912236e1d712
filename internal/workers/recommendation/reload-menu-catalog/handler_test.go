package reloadcatalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"menu-recommender/internal/catalog"
	"menu-recommender/internal/common/errors"
	"menu-recommender/internal/common/logger"
)

const csvHeader = "menu_id,restaurant_id,place_name,menu_name,menu_price,region,address,url,allergy\n"

func writeCSV(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "menus.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func createTestHandler(t *testing.T, path string) (*Handler, *catalog.Holder) {
	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	holder := catalog.NewHolder(nil)
	loader := catalog.NewLoader(catalog.NewCSVSource(path), holder, log)

	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Loader:       loader,
		Logger:       log,
	})
	require.NoError(t, err)
	return h, holder
}

func TestExecute_ReloadsCatalog(t *testing.T) {
	path := writeCSV(t, csvHeader+
		"1,10,김밥천국,참치김밥,4500,강남,서울,http://a,\n"+
		"2,11,국밥집,순대국밥,9000,역삼,서울,http://b,\n")
	h, holder := createTestHandler(t, path)

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 2, output.ItemCount)
	assert.Equal(t, []string{"강남", "역삼"}, output.Regions)
	assert.Equal(t, "csv", output.Source)
	assert.Equal(t, 2, holder.Current().Len())

	vars := output.Variables()
	_, err = time.Parse(time.RFC3339, vars["loadedAt"].(string))
	assert.NoError(t, err)
}

func TestExecute_IntegrityFailureKeepsCurrentCatalog(t *testing.T) {
	path := writeCSV(t, csvHeader+"1,10,김밥천국,참치김밥,4500,강남,서울,http://a,\n")
	h, holder := createTestHandler(t, path)

	_, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	before := holder.Current()

	require.NoError(t, os.WriteFile(path, []byte("menu_id,menu_name\n1,라면\n"), 0o600))

	_, err = h.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeDataIntegrity))
	assert.Same(t, before, holder.Current())
}

func TestExecute_MissingFile(t *testing.T) {
	h, holder := createTestHandler(t, filepath.Join(t.TempDir(), "absent.csv"))

	_, err := h.Execute(context.Background(), &Input{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogLoadFailed))
	assert.Nil(t, holder.Current())
}

func TestProcess_IgnoresProcessVariables(t *testing.T) {
	path := writeCSV(t, csvHeader+"1,10,김밥천국,참치김밥,4500,강남,서울,http://a,\n")
	h, _ := createTestHandler(t, path)

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: TaskType, Retries: 3, Variables: `{"requestedBy":"ops"}`}}
	output, err := h.process(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, output.ItemCount)
}
