package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Jeff496/PicAI-sub001/internal/config"
)

// Sentinel errors for the two remote states the pipeline absorbs.
// Everything else coming out of the client is a plain wrapped error and is
// fatal to the enclosing operation.
var (
	ErrAlreadyExists = errors.New("recognition: resource already exists")
	ErrNotFound      = errors.New("recognition: resource not found")
)

const apiKeyHeader = "X-Api-Key"

// Client talks to the remote face-recognition service over REST. It is
// injected into every component that needs it; there is no package-level
// instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.RecognitionConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CreateCollection creates a remote collection with the given id. Returns
// ErrAlreadyExists if the collection already exists.
func (c *Client) CreateCollection(ctx context.Context, collectionID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s", c.baseURL, url.PathEscape(collectionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	return c.doExpectEmpty(req, "create collection")
}

// DeleteCollection removes a remote collection. Returns ErrNotFound if it
// does not exist.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string) error {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s", c.baseURL, url.PathEscape(collectionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("delete collection request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	return c.doExpectEmpty(req, "delete collection")
}

// DetectFaces runs the stateless detect primitive on image bytes and
// returns candidate faces in service order.
func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]Detection, error) {
	endpoint := c.baseURL + "/api/v1/detect"

	req, err := c.newImageRequest(ctx, endpoint, image)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := c.doJSON(req, "detect faces", &resp); err != nil {
		return nil, err
	}
	return resp.Faces, nil
}

// IndexFace indexes the most prominent face in the image into the
// collection, recording externalRef as its correlation token. The service
// applies a quality filter; when it finds no indexable face the result is
// (nil, nil), which is not an error.
func (c *Client) IndexFace(ctx context.Context, collectionID string, image []byte, externalRef string) (*IndexedFace, error) {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/faces?external_ref=%s",
		c.baseURL, url.PathEscape(collectionID), url.QueryEscape(externalRef))

	req, err := c.newImageRequest(ctx, endpoint, image)
	if err != nil {
		return nil, err
	}

	var resp indexResponse
	if err := c.doJSON(req, "index face", &resp); err != nil {
		return nil, err
	}
	return resp.Face, nil
}

// SearchByImage searches the collection for faces similar to the most
// prominent face in the image. Returns ErrNotFound when the collection does
// not exist remotely.
func (c *Client) SearchByImage(ctx context.Context, collectionID string, image []byte, threshold float64, maxResults int) ([]FaceMatch, error) {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/search?threshold=%s&max_results=%d",
		c.baseURL, url.PathEscape(collectionID),
		strconv.FormatFloat(threshold, 'f', -1, 64), maxResults)

	req, err := c.newImageRequest(ctx, endpoint, image)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := c.doJSON(req, "search by image", &resp); err != nil {
		return nil, err
	}
	return resp.Matches, nil
}

// DeleteFaces removes the given face ids from the collection. Returns
// ErrNotFound when the collection or all of the faces are already gone.
func (c *Client) DeleteFaces(ctx context.Context, collectionID string, faceIDs []string) error {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/faces", c.baseURL, url.PathEscape(collectionID))

	payload, err := json.Marshal(faceIDs)
	if err != nil {
		return fmt.Errorf("marshal face ids: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("delete faces request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	return c.doExpectEmpty(req, "delete faces")
}

// newImageRequest builds a multipart POST carrying the image bytes.
func (c *Client) newImageRequest(ctx context.Context, endpoint string, image []byte) (*http.Request, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(apiKeyHeader, c.apiKey)
	return req, nil
}

func (c *Client) doJSON(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if err := statusError(resp.StatusCode, respBody, op); err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: parse response: %w", op, err)
	}
	return nil
}

func (c *Client) doExpectEmpty(req *http.Request, op string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return statusError(resp.StatusCode, respBody, op)
}

// statusError maps the two benign remote states to sentinel errors so
// callers can absorb them with errors.Is.
func statusError(status int, body []byte, op string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return fmt.Errorf("%s: %w", op, ErrAlreadyExists)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return fmt.Errorf("%s: service error %d: %s", op, status, er.Error)
	}
	return fmt.Errorf("%s: service error %d: %s", op, status, string(body))
}
