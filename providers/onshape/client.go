// Package onshape is the HTTP client for the hosted CAD provider. It covers
// the endpoints the export engine needs: workspace resolution, element and
// part listings, configuration encoding, synchronous mesh export and the
// asynchronous translation lifecycle.
package onshape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cad-exporter/core/models"
)

// ErrMissingRedirect is returned when a synchronous export answers with a
// redirect status but no Location header.
var ErrMissingRedirect = errors.New("redirect response without Location header")

// APIError is a non-success response from the provider.
type APIError struct {
	Op     string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: provider returned %d: %s", e.Op, e.Status, e.Body)
}

// Client is the provider API client. Requests authenticate with API keys
// via basic auth. Redirects are never followed automatically; the
// synchronous export path handles them manually.
type Client struct {
	baseURL   string
	accessKey string
	secretKey string
	http      *http.Client
}

// NewClient creates a new provider client
func NewClient(baseURL, accessKey, secretKey string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		secretKey: secretKey,
		http: &http.Client{
			Timeout: 5 * time.Minute,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accessKey, c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doJSON executes a request and decodes a JSON response into out.
func (c *Client) doJSON(req *http.Request, op string, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Body: readBody(resp.Body)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	return strings.TrimSpace(string(data))
}

// ResolveWorkspace resolves the default workspace of a document.
func (c *Client) ResolveWorkspace(ctx context.Context, documentID string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/documents/"+documentID, nil, nil)
	if err != nil {
		return "", err
	}

	var doc struct {
		DefaultWorkspace struct {
			ID string `json:"id"`
		} `json:"defaultWorkspace"`
	}
	if err := c.doJSON(req, "resolve workspace", &doc); err != nil {
		return "", err
	}
	if doc.DefaultWorkspace.ID == "" {
		return "", fmt.Errorf("document %s has no default workspace", documentID)
	}
	return doc.DefaultWorkspace.ID, nil
}

// ListElements lists the elements (tabs) of a document workspace.
func (c *Client) ListElements(ctx context.Context, documentID, workspaceID string) ([]models.Element, error) {
	path := fmt.Sprintf("/api/documents/d/%s/w/%s/elements", documentID, workspaceID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var elements []models.Element
	if err := c.doJSON(req, "list elements", &elements); err != nil {
		return nil, err
	}
	return elements, nil
}

// ListParts lists the parts of a studio, optionally under a configuration
// query token. Part identifiers returned here are only valid for that
// configuration.
func (c *Client) ListParts(ctx context.Context, documentID, workspaceID, elementID, configToken string) ([]models.Part, error) {
	path := fmt.Sprintf("/api/parts/d/%s/w/%s/e/%s", documentID, workspaceID, elementID)
	query := url.Values{}
	if configToken != "" {
		query.Set("configuration", configToken)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	var parts []models.Part
	if err := c.doJSON(req, "list parts", &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// EncodeConfiguration asks the provider to encode a set of parameter values.
// The response carries both the query token used by synchronous endpoints
// and the opaque id used by asynchronous ones.
func (c *Client) EncodeConfiguration(ctx context.Context, documentID, elementID string, records []models.ParameterRecord) (models.ConfigEncoding, error) {
	path := fmt.Sprintf("/api/elements/d/%s/e/%s/configurationencodings", documentID, elementID)
	body := map[string]interface{}{"parameters": records}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return models.ConfigEncoding{}, err
	}

	var enc struct {
		QueryParam string `json:"queryParam"`
		EncodedID  string `json:"encodedId"`
	}
	if err := c.doJSON(req, "encode configuration", &enc); err != nil {
		return models.ConfigEncoding{}, err
	}

	token := strings.TrimPrefix(enc.QueryParam, "configuration=")
	if unescaped, err := url.QueryUnescape(token); err == nil {
		token = unescaped
	}
	return models.ConfigEncoding{QueryToken: token, EncodedID: enc.EncodedID}, nil
}

// STLExportOptions describe one synchronous mesh export request.
type STLExportOptions struct {
	DocumentID  string
	WorkspaceID string
	ElementID   string
	PartID      string // empty for whole-studio scope
	ConfigToken string
	Quality     models.MeshQuality
	Grouped     bool
}

// ExportSTL fetches a mesh export synchronously. The provider answers
// either with the binary body directly or with a 307 pointing at the
// download location, which is followed exactly once with the same auth.
func (c *Client) ExportSTL(ctx context.Context, opts STLExportOptions) (*models.Payload, error) {
	var path string
	if opts.PartID != "" {
		path = fmt.Sprintf("/api/parts/d/%s/w/%s/e/%s/partid/%s/stl",
			opts.DocumentID, opts.WorkspaceID, opts.ElementID, url.PathEscape(opts.PartID))
	} else {
		path = fmt.Sprintf("/api/partstudios/d/%s/w/%s/e/%s/stl",
			opts.DocumentID, opts.WorkspaceID, opts.ElementID)
	}

	query := url.Values{}
	query.Set("mode", "binary")
	query.Set("units", "millimeter")
	if opts.Quality.MinFacetWidth != "" {
		query.Set("minFacetWidth", opts.Quality.MinFacetWidth)
	}
	if opts.Quality.AngleTolerance != "" {
		query.Set("angleTolerance", opts.Quality.AngleTolerance)
	}
	if opts.Quality.ChordTolerance != "" {
		query.Set("chordTolerance", opts.Quality.ChordTolerance)
	}
	if opts.Grouped {
		query.Set("grouping", "true")
	}
	if opts.ConfigToken != "" {
		query.Set("configuration", opts.ConfigToken)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stl export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTemporaryRedirect {
		location := resp.Header.Get("Location")
		if location == "" {
			return nil, fmt.Errorf("stl export: %w", ErrMissingRedirect)
		}
		return c.followRedirect(ctx, location)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: "stl export", Status: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return readPayload(resp)
}

// followRedirect fetches the redirect target of a synchronous export with
// the same auth header. Not retried; a failure here is terminal for the
// export.
func (c *Client) followRedirect(ctx context.Context, location string) (*models.Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accessKey, c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stl export redirect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: "stl export redirect", Status: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return readPayload(resp)
}

func readPayload(resp *http.Response) (*models.Payload, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read export body: %w", err)
	}
	return &models.Payload{Bytes: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// TranslationOptions describe one asynchronous translation submission.
type TranslationOptions struct {
	DocumentID  string
	WorkspaceID string
	ElementID   string
	FormatName  string
	PartIDs     []string // nil for whole-studio scope
	EncodedID   string   // opaque configuration id, carried in the body
}

// CreateTranslation submits a translation job and returns its id. The
// configuration travels as the opaque encoded id in the request body; the
// translation endpoints do not accept the query-token form.
func (c *Client) CreateTranslation(ctx context.Context, opts TranslationOptions) (string, error) {
	path := fmt.Sprintf("/api/partstudios/d/%s/w/%s/e/%s/translations",
		opts.DocumentID, opts.WorkspaceID, opts.ElementID)

	body := map[string]interface{}{
		"formatName":      opts.FormatName,
		"storeInDocument": false,
	}
	if len(opts.PartIDs) > 0 {
		body["partIds"] = strings.Join(opts.PartIDs, ",")
	}
	if opts.EncodedID != "" {
		body["configuration"] = opts.EncodedID
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(req, "create translation", &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("create translation: provider returned no job id")
	}
	return created.ID, nil
}

// GetTranslation polls the status of a translation job.
func (c *Client) GetTranslation(ctx context.Context, translationID string) (*models.TranslationStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/translations/"+translationID, nil, nil)
	if err != nil {
		return nil, err
	}

	var status models.TranslationStatus
	if err := c.doJSON(req, "poll translation", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// DownloadExternalData fetches a translation result blob.
func (c *Client) DownloadExternalData(ctx context.Context, documentID, fileID string) (*models.Payload, error) {
	path := fmt.Sprintf("/api/documents/d/%s/externaldata/%s", documentID, fileID)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: "download result", Status: resp.StatusCode, Body: readBody(resp.Body)}
	}
	return readPayload(resp)
}
