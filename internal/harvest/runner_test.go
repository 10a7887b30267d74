package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"microharvest/internal/checkpoint"
	"microharvest/internal/config"
	"microharvest/internal/country"
	"microharvest/internal/crawler"
	"microharvest/internal/daterange"
	"microharvest/internal/models"
	"microharvest/internal/normalizer"
	"microharvest/internal/publisher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublisher records published datasets and rejects configured names.
type fakePublisher struct {
	reject    map[string]error
	published []string
	mu        sync.Mutex
}

func (f *fakePublisher) Publish(_ context.Context, ds *models.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.reject[ds.Name]; ok {
		return err
	}

	f.published = append(f.published, ds.Name)

	return nil
}

type upstream struct {
	listing  models.CatalogListing
	metadata map[string]models.MetadataDocument
}

func (u *upstream) handler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/index.php/api/catalog/"

		id := strings.TrimPrefix(r.URL.Path, prefix)

		var payload any

		switch {
		case id == "latest":
			assert.Equal(t, "10000", r.URL.Query().Get("limit"))
			payload = u.listing
		default:
			doc, ok := u.metadata[id]
			if !ok {
				http.NotFound(w, r)
				return
			}

			payload = doc
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
}

func item(id, idno, title string) models.CatalogItem {
	return models.CatalogItem{
		ID:      models.FlexString(id),
		IDNo:    idno,
		Title:   title,
		Changed: "Dec-05-2019",
		URL:     "https://microdata.unhcr.org/index.php/catalog/" + id,
	}
}

func document(idno, title, iso3, start, end string) models.MetadataDocument {
	var doc models.MetadataDocument

	doc.StudyDesc.TitleStatement = models.TitleStatement{IDNo: idno, Title: title}
	doc.StudyDesc.AuthoringEntity = []models.AuthoringEntity{{Name: "UNHCR"}}
	doc.StudyDesc.StudyInfo.Nation = []models.Nation{{Abbreviation: iso3}}
	doc.StudyDesc.StudyInfo.Topics = []models.Topic{{Topic: "Food and nutrition"}}
	doc.StudyDesc.StudyInfo.CollDates = []models.CollDate{{Start: start, End: end}}

	return doc
}

func newUpstream() *upstream {
	return &upstream{
		listing: models.CatalogListing{
			Found: 5,
			Limit: 10000,
			Result: []models.CatalogItem{
				item("187", "UNHCR-AFG-2017-SEA_KhostPaktika-1.1", "Khost survey"),
				item("300", "UNHCR-KEN-2018-BAD", "Undated survey"),
				item("401", "WB-KEN-2018-EXT", "External survey"),
				item("500", "UNHCR-SOM-2019-GONE", "Missing metadata"),
				item("272", "UNHCR_PHL_2016_Zamboanga_HB_IDP_Profiling", "Zamboanga profiling"),
			},
		},
		metadata: map[string]models.MetadataDocument{
			"187": document("UNHCR-AFG-2017-SEA_KhostPaktika-1.1", "Khost survey", "AFG", "2017-05-11", "2017-05-29"),
			"300": document("UNHCR-KEN-2018-BAD", "Undated survey", "KEN", "unknown", "unknown"),
			"401": document("WB-KEN-2018-EXT", "External survey", "KEN", "2018", "2018"),
			"272": document("UNHCR_PHL_2016_Zamboanga_HB_IDP_Profiling", "Zamboanga profiling", "PHL", "2016-07", "2016-08"),
		},
	}
}

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:          baseURL + "/",
			CatalogURL:       "index.php/api/catalog/",
			MetadataURL:      "index.php/api/catalog/{id}",
			AuthURL:          "index.php/auth/login/?destination=catalog/{id}/get-microdata",
			DocumentationURL: "index.php/catalog/{id}/pdf-documentation",
		},
		Dataset: config.DatasetConfig{
			MaintainerID: "ac47b0c8-548b-4c37-a685-7377e75aad55",
			OwnerOrgID:   "abf4ca86-8e69-40b1-92f7-71509992be88",
		},
		Retry: config.RetryPolicy{MaxAttempts: 1, BackoffMultiplier: 1, TimeoutSec: 5},
	}
	cfg.ApplyDefaults()

	return cfg
}

func newTestRunner(t *testing.T, server *httptest.Server, pub publisher.Publisher, store *checkpoint.Store) *Runner {
	t.Helper()

	cfg := testConfig(server.URL)
	client := crawler.NewClient(crawler.NewScraperFromConfig(cfg), cfg.Upstream, nil)
	proc := normalizer.NewProcessor(cfg, country.NewResolver(nil, nil), daterange.NewParser(), nil)

	return NewRunner(client, proc, pub, Options{Store: store, RunID: "run-1"}, nil)
}

func TestRunner_Run(t *testing.T) {
	server := httptest.NewServer(newUpstream().handler(t))
	defer server.Close()

	pub := &fakePublisher{}
	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "progress.yaml"))

	summary, err := newTestRunner(t, server, pub, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.Equal(t, 4, summary.Listed, "external entries are never listed")
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, summary.Published)
	assert.Equal(t, []string{"unhcr-afg-2017-sea-khostpaktika-1-1", "unhcr-phl-2016-zamboanga-hb-idp-profiling"}, pub.published)

	require.Len(t, summary.Failures, 2)
	assert.Equal(t, "300", summary.Failures[0].EntryID)
	assert.Equal(t, models.ReasonInvalidDate, summary.Failures[0].Reason)
	assert.Equal(t, "Kenya - Undated survey", summary.Failures[0].Title)
	assert.Equal(t, server.URL+"/index.php/api/catalog/300", summary.Failures[0].MetadataURL)
	assert.Equal(t, "500", summary.Failures[1].EntryID)
	assert.Equal(t, models.ReasonMetadataFetch, summary.Failures[1].Reason)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.LastID, "checkpoint cleared after a complete run")
}

func TestRunner_Run_Resume(t *testing.T) {
	server := httptest.NewServer(newUpstream().handler(t))
	defer server.Close()

	store := checkpoint.NewStore(filepath.Join(t.TempDir(), "progress.yaml"))
	require.NoError(t, store.Save(checkpoint.State{LastID: "187", RunID: "earlier"}))

	pub := &fakePublisher{}

	summary, err := newTestRunner(t, server, pub, store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"unhcr-phl-2016-zamboanga-hb-idp-profiling"}, pub.published)
}

func TestRunner_Run_PublishRejected(t *testing.T) {
	server := httptest.NewServer(newUpstream().handler(t))
	defer server.Close()

	pub := &fakePublisher{reject: map[string]error{
		"unhcr-afg-2017-sea-khostpaktika-1-1":       fmt.Errorf("%w: AFG", publisher.ErrInvalidCountry),
		"unhcr-phl-2016-zamboanga-hb-idp-profiling": fmt.Errorf("%w: timeout", publisher.ErrRejected),
	}}

	summary, err := newTestRunner(t, server, pub, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Published)
	require.Len(t, summary.Failures, 4)

	byID := make(map[string]models.FailureReport, len(summary.Failures))
	for _, f := range summary.Failures {
		byID[f.EntryID] = f
	}

	assert.Equal(t, models.ReasonInvalidCountry, byID["187"].Reason)
	assert.Equal(t, `["AFG"]`, byID["187"].Detail)
	assert.Equal(t, "Afghanistan - Khost survey", byID["187"].Title)
	assert.Equal(t, models.ReasonPublishRejected, byID["272"].Reason)
}

func TestRunner_Run_EmptyCatalog(t *testing.T) {
	up := newUpstream()
	up.listing = models.CatalogListing{}

	server := httptest.NewServer(up.handler(t))
	defer server.Close()

	_, err := newTestRunner(t, server, &fakePublisher{}, nil).Run(context.Background())
	assert.ErrorIs(t, err, crawler.ErrEmptyCatalog)
}

func TestRunner_Run_Canceled(t *testing.T) {
	server := httptest.NewServer(newUpstream().handler(t))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(t, server, &fakePublisher{}, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunner_GeneratesRunID(t *testing.T) {
	r := NewRunner(nil, nil, nil, Options{}, nil)
	assert.Len(t, r.RunID(), 36)
}
