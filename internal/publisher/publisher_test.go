package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"microharvest/internal/config"
	"microharvest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnexpectedAction = errors.New("unexpected action")

const testVocabularyID = "b891512e-9516-4bf5-962a-7a289772a2a1"

// MockClient implements the Client interface for testing.
type MockClient struct {
	CallFunc func(action string, params any) (*ActionResponse, error)
	Calls    []string
}

func (m *MockClient) Call(_ context.Context, action string, params any) (*ActionResponse, error) {
	m.Calls = append(m.Calls, action)

	if m.CallFunc != nil {
		return m.CallFunc(action, params)
	}

	return &ActionResponse{Success: true}, nil
}

func result(t *testing.T, v any) *ActionResponse {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return &ActionResponse{Success: true, Result: data}
}

func notFound() error {
	return fmt.Errorf("%w: %w", ErrActionFailed, &APIError{Type: ErrorTypeNotFound, Message: "Not found"})
}

func testPublisherConfig() config.PublisherConfig {
	return config.PublisherConfig{
		TagVocabularyID: testVocabularyID,
		UpdatedBy:       "microharvest",
		TagMappings:     map[string]string{"displacement": "displaced persons locations - camps - shelters"},
	}
}

func testDataset() *models.Dataset {
	changed := time.Date(2019, time.December, 5, 0, 0, 0, 0, time.UTC)

	return &models.Dataset{
		Record: models.Record{
			Name:            "unhcr-afg-2017-sea-khostpaktika-1-1",
			Title:           "Afghanistan - Socio-economic assessment",
			Notes:           "Abstract",
			Source:          "Office of the High Commissioner for Refugees",
			Methodology:     "Other",
			MethodologyText: "Kind of Data: Sample survey data [ssd]  \n",
			MaintainerID:    "ac47b0c8-548b-4c37-a685-7377e75aad55",
			OwnerOrgID:      "abf4ca86-8e69-40b1-92f7-71509992be88",
			UpdateFrequency: "Never",
			Subnational:     true,
			Countries:       []string{"AFG"},
			Tags:            []string{"livelihoods", "displacement", "livelihoods"},
			DateRange: models.DateRange{
				Start: time.Date(2017, time.May, 11, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2017, time.May, 29, 0, 0, 0, 0, time.UTC),
			},
		},
		Resources: []models.Resource{
			{Name: "Afghanistan - Socio-economic assessment", URL: "https://lala/auth/187", Format: "web app", IsAPI: true, LastModified: changed},
			{Name: "Codebook", URL: "https://lala/catalog/187/pdf-documentation", Format: "pdf", LastModified: changed},
		},
	}
}

func TestBuildPackage(t *testing.T) {
	pkg, err := BuildPackage(testDataset(), testPublisherConfig(), "batch-1")
	require.NoError(t, err)

	assert.Equal(t, "unhcr-afg-2017-sea-khostpaktika-1-1", pkg.Name)
	assert.Equal(t, "Office of the High Commissioner for Refugees", pkg.DatasetSource)
	assert.Equal(t, "-1", pkg.DataUpdateFrequency)
	assert.Equal(t, "1", pkg.Subnational)
	assert.Equal(t, "[2017-05-11T00:00:00 TO 2017-05-29T00:00:00]", pkg.DatasetDate)
	assert.Equal(t, []Group{{Name: "afg"}}, pkg.Groups)
	assert.Equal(t, []Tag{
		{Name: "livelihoods", VocabularyID: testVocabularyID},
		{Name: "displaced persons locations - camps - shelters", VocabularyID: testVocabularyID},
	}, pkg.Tags)
	assert.Equal(t, "batch-1", pkg.Batch)
	assert.Equal(t, "microharvest", pkg.UpdatedByScript)

	require.Len(t, pkg.Resources, 2)
	assert.Equal(t, "api", pkg.Resources[0].ResourceType)
	assert.Equal(t, "api", pkg.Resources[0].URLType)
	assert.Equal(t, "2019-12-05T00:00:00", pkg.Resources[0].LastModified)
	assert.Empty(t, pkg.Resources[1].ResourceType)
}

func TestBuildPackage_UnknownFrequency(t *testing.T) {
	ds := testDataset()
	ds.UpdateFrequency = "Sometimes"

	_, err := BuildPackage(ds, testPublisherConfig(), "")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestCatalogPublisher_Publish_Create(t *testing.T) {
	var created *Package

	mock := &MockClient{
		CallFunc: func(action string, params any) (*ActionResponse, error) {
			switch action {
			case ActionGroupList:
				return result(t, []string{"afg", "phl"}), nil
			case ActionPackageShow:
				return nil, notFound()
			case ActionPackageCreate:
				created = params.(*Package)
				return result(t, map[string]string{"id": "new"}), nil
			}

			return nil, fmt.Errorf("%w: %s", errUnexpectedAction, action)
		},
	}

	p := NewCatalogPublisher(mock, testPublisherConfig(), "batch-1", nil)
	require.NoError(t, p.Publish(context.Background(), testDataset()))

	require.NotNil(t, created)
	assert.Empty(t, created.ID)
	assert.Equal(t, []string{ActionGroupList, ActionPackageShow, ActionPackageCreate}, mock.Calls)
}

func TestCatalogPublisher_Publish_Update(t *testing.T) {
	var updated *Package

	mock := &MockClient{
		CallFunc: func(action string, params any) (*ActionResponse, error) {
			switch action {
			case ActionGroupList:
				return result(t, []string{"AFG"}), nil
			case ActionPackageShow:
				return result(t, map[string]string{"id": "abc-123", "name": "unhcr-afg-2017-sea-khostpaktika-1-1"}), nil
			case ActionPackageUpdate:
				updated = params.(*Package)
				return result(t, map[string]string{"id": "abc-123"}), nil
			}

			return nil, fmt.Errorf("%w: %s", errUnexpectedAction, action)
		},
	}

	p := NewCatalogPublisher(mock, testPublisherConfig(), "", nil)
	require.NoError(t, p.Publish(context.Background(), testDataset()))
	require.NoError(t, p.Publish(context.Background(), testDataset()))

	require.NotNil(t, updated)
	assert.Equal(t, "abc-123", updated.ID)
	assert.Equal(t, 1, countCalls(mock.Calls, ActionGroupList), "locations are loaded once")
}

func TestCatalogPublisher_Publish_InvalidCountry(t *testing.T) {
	mock := &MockClient{
		CallFunc: func(action string, _ any) (*ActionResponse, error) {
			if action == ActionGroupList {
				return result(t, []string{"phl"}), nil
			}

			return nil, fmt.Errorf("%w: %s", errUnexpectedAction, action)
		},
	}

	err := NewCatalogPublisher(mock, testPublisherConfig(), "", nil).Publish(context.Background(), testDataset())
	assert.ErrorIs(t, err, ErrInvalidCountry)
	assert.Equal(t, []string{ActionGroupList}, mock.Calls)
}

func TestCatalogPublisher_Publish_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		apiErr  *APIError
		wantErr error
	}{
		{
			name:    "groups rejected",
			apiErr:  &APIError{Type: "Validation Error", Fields: map[string]json.RawMessage{"groups": json.RawMessage(`["Group afg not found"]`)}},
			wantErr: ErrInvalidCountry,
		},
		{
			name:    "other field rejected",
			apiErr:  &APIError{Type: "Validation Error", Fields: map[string]json.RawMessage{"name": json.RawMessage(`["That URL is already in use."]`)}},
			wantErr: ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockClient{
				CallFunc: func(action string, _ any) (*ActionResponse, error) {
					switch action {
					case ActionGroupList:
						return result(t, []string{"afg"}), nil
					case ActionPackageShow:
						return nil, notFound()
					default:
						return &ActionResponse{Error: tt.apiErr}, fmt.Errorf("%w: %w", ErrActionFailed, tt.apiErr)
					}
				},
			}

			err := NewCatalogPublisher(mock, testPublisherConfig(), "", nil).Publish(context.Background(), testDataset())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalogPublisher_Publish_LookupFailure(t *testing.T) {
	mock := &MockClient{
		CallFunc: func(action string, _ any) (*ActionResponse, error) {
			if action == ActionGroupList {
				return result(t, []string{"afg"}), nil
			}

			return nil, fmt.Errorf("%w: 500", ErrUnexpectedStatusCode)
		},
	}

	err := NewCatalogPublisher(mock, testPublisherConfig(), "", nil).Publish(context.Background(), testDataset())
	assert.ErrorIs(t, err, ErrRejected)
	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
}

func TestFilePublisher_Publish(t *testing.T) {
	dir := t.TempDir()
	p := NewFilePublisher(filepath.Join(dir, "out"), testPublisherConfig(), "batch-1", nil)

	require.NoError(t, p.Publish(context.Background(), testDataset()))

	data, err := os.ReadFile(filepath.Join(dir, "out", "unhcr-afg-2017-sea-khostpaktika-1-1.json"))
	require.NoError(t, err)

	var pkg Package
	require.NoError(t, json.Unmarshal(data, &pkg))
	assert.Equal(t, "Afghanistan - Socio-economic assessment", pkg.Title)
	assert.Equal(t, "[2017-05-11T00:00:00 TO 2017-05-29T00:00:00]", pkg.DatasetDate)
}

func TestFilePublisher_Publish_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFilePublisher(t.TempDir(), testPublisherConfig(), "", nil).Publish(ctx, testDataset())
	assert.ErrorIs(t, err, context.Canceled)
}

func countCalls(calls []string, action string) int {
	n := 0

	for _, c := range calls {
		if c == action {
			n++
		}
	}

	return n
}
