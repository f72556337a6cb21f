package onshape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cad-exporter/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "access", "secret"), srv
}

func TestEncodeConfiguration(t *testing.T) {
	var gotBody map[string]interface{}
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/elements/d/doc1/e/el1/configurationencodings", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "access", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{
			"queryParam": "configuration=List_abc%3D50%20mm",
			"encodedId":  "ENC123",
		})
	}))
	defer srv.Close()

	enc, err := client.EncodeConfiguration(context.Background(), "doc1", "el1", []models.ParameterRecord{
		{ParameterID: "List_abc", ParameterValue: "50 mm"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ENC123", enc.EncodedID)
	assert.Equal(t, "List_abc=50 mm", enc.QueryToken)

	params, ok := gotBody["parameters"].([]interface{})
	require.True(t, ok)
	require.Len(t, params, 1)
}

func TestExportSTLDirectResponse(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/parts/d/doc1/w/ws1/e/el1/partid/JHD/stl", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "binary", q.Get("mode"))
		assert.Equal(t, "millimeter", q.Get("units"))
		assert.Equal(t, "0.0254", q.Get("minFacetWidth"))
		assert.Equal(t, "cfg-token", q.Get("configuration"))
		assert.Empty(t, q.Get("grouping"))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("solid-binary"))
	}))
	defer srv.Close()

	payload, err := client.ExportSTL(context.Background(), STLExportOptions{
		DocumentID:  "doc1",
		WorkspaceID: "ws1",
		ElementID:   "el1",
		PartID:      "JHD",
		ConfigToken: "cfg-token",
		Quality:     models.MeshQuality{MinFacetWidth: "0.0254"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("solid-binary"), payload.Bytes)
	assert.Equal(t, "application/octet-stream", payload.ContentType)
}

func TestExportSTLFollowsRedirectOnce(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := NewClient(srv.URL, "access", "secret")

	redirectCalls := 0
	mux.HandleFunc("/api/partstudios/d/doc1/w/ws1/e/el1/stl", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("grouping"))
		w.Header().Set("Location", srv.URL+"/download/blob")
		w.WriteHeader(http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/download/blob", func(w http.ResponseWriter, r *http.Request) {
		redirectCalls++
		_, _, ok := r.BasicAuth()
		assert.True(t, ok, "redirect target must carry auth")
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("zip-bytes"))
	})

	payload, err := client.ExportSTL(context.Background(), STLExportOptions{
		DocumentID:  "doc1",
		WorkspaceID: "ws1",
		ElementID:   "el1",
		Grouped:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, redirectCalls)
	assert.Equal(t, "application/zip", payload.ContentType)
	assert.Equal(t, []byte("zip-bytes"), payload.Bytes)
}

func TestExportSTLRedirectWithoutLocation(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTemporaryRedirect)
	}))
	defer srv.Close()

	_, err := client.ExportSTL(context.Background(), STLExportOptions{
		DocumentID: "doc1", WorkspaceID: "ws1", ElementID: "el1", PartID: "JHD",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRedirect)
}

func TestExportSTLProviderError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "part studio not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := client.ExportSTL(context.Background(), STLExportOptions{
		DocumentID: "doc1", WorkspaceID: "ws1", ElementID: "el1", PartID: "JHD",
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Contains(t, apiErr.Body, "part studio not found")
}

func TestCreateTranslation(t *testing.T) {
	var gotBody map[string]interface{}
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/partstudios/d/doc1/w/ws1/e/el1/translations", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"id": "tr-9"})
	}))
	defer srv.Close()

	id, err := client.CreateTranslation(context.Background(), TranslationOptions{
		DocumentID:  "doc1",
		WorkspaceID: "ws1",
		ElementID:   "el1",
		FormatName:  "STEP",
		PartIDs:     []string{"JHD", "JHF"},
		EncodedID:   "ENC123",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr-9", id)
	assert.Equal(t, "STEP", gotBody["formatName"])
	assert.Equal(t, false, gotBody["storeInDocument"])
	assert.Equal(t, "JHD,JHF", gotBody["partIds"])
	assert.Equal(t, "ENC123", gotBody["configuration"])
}

func TestCreateTranslationCombineScopeOmitsPartIDs(t *testing.T) {
	var gotBody map[string]interface{}
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"id": "tr-10"})
	}))
	defer srv.Close()

	_, err := client.CreateTranslation(context.Background(), TranslationOptions{
		DocumentID: "doc1", WorkspaceID: "ws1", ElementID: "el1", FormatName: "IGES",
	})
	require.NoError(t, err)
	_, hasPartIDs := gotBody["partIds"]
	assert.False(t, hasPartIDs)
	_, hasConfig := gotBody["configuration"]
	assert.False(t, hasConfig)
}

func TestGetTranslation(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/translations/tr-9", r.URL.Path)
		json.NewEncoder(w).Encode(models.TranslationStatus{
			ID:                    "tr-9",
			RequestState:          models.TranslationDone,
			ResultExternalDataIDs: []string{"ext-1"},
		})
	}))
	defer srv.Close()

	status, err := client.GetTranslation(context.Background(), "tr-9")
	require.NoError(t, err)
	assert.Equal(t, models.TranslationDone, status.RequestState)
	assert.Equal(t, []string{"ext-1"}, status.ResultExternalDataIDs)
}

func TestListPartsCarriesConfigToken(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/parts/d/doc1/w/ws1/e/el1", r.URL.Path)
		assert.Equal(t, "List_abc=50 mm", r.URL.Query().Get("configuration"))
		json.NewEncoder(w).Encode([]models.Part{{PartID: "JHD", Name: "Bracket"}})
	}))
	defer srv.Close()

	parts, err := client.ListParts(context.Background(), "doc1", "ws1", "el1", "List_abc=50 mm")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "JHD", parts[0].PartID)
}

func TestListElements(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/d/doc1/w/ws1/elements", r.URL.Path)
		json.NewEncoder(w).Encode([]models.Element{
			{ID: "el1", Name: "Frame", Type: "PARTSTUDIO"},
			{ID: "el2", Name: "Drawing", Type: "DRAWING"},
		})
	}))
	defer srv.Close()

	elements, err := client.ListElements(context.Background(), "doc1", "ws1")
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, "PARTSTUDIO", elements[0].Type)
}

func TestResolveWorkspace(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/doc1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"defaultWorkspace": map[string]string{"id": "ws1"},
		})
	}))
	defer srv.Close()

	wid, err := client.ResolveWorkspace(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, "ws1", wid)
}
