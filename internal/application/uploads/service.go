package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"estate-backend/internal/domain"

	"github.com/sony/gobreaker"
)

// SupabaseClient defines what we need from Supabase storage.
type SupabaseClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// HTTPClient is a SupabaseClient backed by the HTTP API.
type HTTPClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type supabaseSignedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative path returned by upload/sign API
	Path           string `json:"path"`
}

func (c *HTTPClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	// Signed upload URL: try upload/sign first (upload); fallback to object/sign if needed
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, path)

	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	// storage accepts the service key both as apikey and as bearer
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyStr := string(respBody)
		// 403 Unauthorized / Invalid Compact JWS = wrong API key (anon key sent as Bearer; need service_role)
		if resp.StatusCode == 400 || resp.StatusCode == 403 {
			if strings.Contains(bodyStr, "Invalid Compact JWS") || strings.Contains(bodyStr, "Unauthorized") {
				return "", fmt.Errorf("supabase storage requires the service_role key (secret), not the anon key: set SUPABASE_SECRET_KEY to your project's service_role key from Supabase Dashboard → Project Settings → API (raw body: %s)", bodyStr)
			}
		}
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, bodyStr)
	}

	var data supabaseSignedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	// API can return signedUrl, signed_url, or url (relative)
	if data.SignedURL != "" {
		return data.SignedURL, nil
	}
	if data.SignedURLSnake != "" {
		return data.SignedURLSnake, nil
	}
	if data.URL != "" {
		// Relative URL (e.g. /storage/v1/object/...?token=...): build full URL
		u := data.URL
		if len(u) > 0 && u[0] != '/' {
			u = "/" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// DocumentBucket holds property documents.
const DocumentBucket = "property-docs"

// DocumentAuthorizer confirms the caller owns the property before a document URL is signed.
type DocumentAuthorizer interface {
	AuthorizeDocumentUpload(ctx context.Context, caller domain.Account, propertyID int64) (*domain.Property, error)
}

// Service signs upload URLs for property documents.
type Service struct {
	Client      SupabaseClient
	SupabaseURL string
	Properties  DocumentAuthorizer
	Breaker     *gobreaker.CircuitBreaker
	now         func() time.Time
}

// UploadResult is returned to the client; the file is PUT to UploadURL.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFileName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if len(name) > 120 {
		name = name[len(name)-120:]
	}
	return name
}

// PropertyDocumentURL signs an upload URL under properties/<id>/. Property owner only.
func (s *Service) PropertyDocumentURL(ctx context.Context, caller domain.Account, propertyID int64, fileName string) (*UploadResult, error) {
	if _, err := s.Properties.AuthorizeDocumentUpload(ctx, caller, propertyID); err != nil {
		return nil, err
	}
	clean := sanitizeFileName(fileName)
	if clean == "" {
		return nil, domain.Errorf(domain.KindInvalidArgument, "file_name is required")
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	objectPath := fmt.Sprintf("properties/%d/%d-%s", propertyID, now().UnixMilli(), clean)
	return s.signedUploadURL(ctx, DocumentBucket, objectPath)
}

func (s *Service) signedUploadURL(ctx context.Context, bucket, objectPath string) (*UploadResult, error) {
	sign := func() (interface{}, error) {
		return s.Client.CreateSignedUploadURL(ctx, bucket, objectPath)
	}
	var (
		out interface{}
		err error
	)
	if s.Breaker != nil {
		out, err = s.Breaker.Execute(sign)
	} else {
		out, err = sign()
	}
	if err != nil {
		return nil, err
	}

	publicBase := strings.TrimRight(s.SupabaseURL, "/")
	return &UploadResult{
		UploadURL: out.(string),
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", publicBase, bucket, objectPath),
		Path:      objectPath,
	}, nil
}
