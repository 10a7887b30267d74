package normalizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"microharvest/internal/config"
	"microharvest/internal/daterange"
	"microharvest/internal/models"

	"github.com/stretchr/testify/require"
)

// stubResolver resolves a fixed set of names.
type stubResolver struct {
	byName map[string]string
	byCode map[string]string
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		byName: map[string]string{"afghanistan": "AFG", "philippines": "PHL", "kenya": "KEN", "somalia": "SOM"},
		byCode: map[string]string{"AFG": "Afghanistan", "PHL": "Philippines", "KEN": "Kenya", "SOM": "Somalia"},
	}
}

func (s *stubResolver) ISO3FromName(name string) (string, bool) {
	code, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]

	return code, ok
}

func (s *stubResolver) NameFromISO3(code string) (string, bool) {
	name, ok := s.byCode[code]

	return name, ok
}

func testConfig() *config.Config {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:          "https://lala/",
			CatalogURL:       "index.php/api/catalog/",
			MetadataURL:      "index.php/api/catalog/{id}",
			AuthURL:          "index.php/auth/login/?destination=catalog/{id}/get-microdata",
			DocumentationURL: "index.php/catalog/{id}/pdf-documentation",
		},
		Dataset: config.DatasetConfig{
			MaintainerID: "ac47b0c8-548b-4c37-a685-7377e75aad55",
			OwnerOrgID:   "abf4ca86-8e69-40b1-92f7-71509992be88",
		},
	}
	cfg.ApplyDefaults()

	return cfg
}

func newTestTransformer() *Transformer {
	return NewTransformer(testConfig(), newStubResolver(), daterange.NewParser(), nil)
}

func loadFixture(t *testing.T, name string) *models.MetadataDocument {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)

	var doc models.MetadataDocument
	require.NoError(t, json.Unmarshal(data, &doc))

	return &doc
}

func testEntry(id string) models.EntryDescriptor {
	return models.EntryDescriptor{
		ID:        id,
		Title:     "entry " + id,
		SourceURL: "https://microdata.unhcr.org/index.php/catalog/" + id,
		ChangedAt: time.Date(2019, time.December, 5, 0, 0, 0, 0, time.UTC),
	}
}

func ptr(s string) *string {
	return &s
}
