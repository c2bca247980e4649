package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"estate-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	propertyOwner = domain.MustAccount("0x8888888888888888888888888888888888888888")
	stranger      = domain.MustAccount("0x9999999999999999999999999999999999999999")
)

type fakeClient struct {
	lastBucket string
	lastPath   string
	err        error
}

func (f *fakeClient) CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error) {
	f.lastBucket = bucket
	f.lastPath = path
	if f.err != nil {
		return "", f.err
	}
	return "https://example.com/upload", nil
}

type ownerOnly struct{}

func (ownerOnly) AuthorizeDocumentUpload(ctx context.Context, caller domain.Account, id int64) (*domain.Property, error) {
	if id != 7 {
		return nil, domain.Errorf(domain.KindNotFound, "Property %d not found", id)
	}
	if caller != propertyOwner {
		return nil, domain.Errorf(domain.KindUnauthorized, "Not authorized to upload documents for this property")
	}
	return &domain.Property{PropertyID: 7, Owner: propertyOwner}, nil
}

func setupUploadTest(t *testing.T) (*Service, *fakeClient) {
	client := &fakeClient{}
	svc := &Service{
		Client:      client,
		SupabaseURL: "https://example.supabase.co/",
		Properties:  ownerOnly{},
		now:         func() time.Time { return time.UnixMilli(1700000000000) },
	}
	return svc, client
}

func TestPropertyDocumentURL(t *testing.T) {
	svc, client := setupUploadTest(t)

	res, err := svc.PropertyDocumentURL(context.Background(), propertyOwner, 7, "../deed scan (1).pdf")
	require.NoError(t, err)
	assert.Equal(t, DocumentBucket, client.lastBucket)
	assert.Equal(t, "properties/7/1700000000000-deed_scan_1_.pdf", res.Path)
	assert.Equal(t, "https://example.com/upload", res.UploadURL)
	assert.Equal(t, "https://example.supabase.co/storage/v1/object/public/property-docs/properties/7/1700000000000-deed_scan_1_.pdf", res.PublicURL)
}

func TestPropertyDocumentURL_Rejections(t *testing.T) {
	svc, client := setupUploadTest(t)
	ctx := context.Background()

	_, err := svc.PropertyDocumentURL(ctx, stranger, 7, "a.pdf")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	_, err = svc.PropertyDocumentURL(ctx, propertyOwner, 8, "a.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = svc.PropertyDocumentURL(ctx, propertyOwner, 7, "  ")
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Empty(t, client.lastPath)

	client.err = errors.New("storage down")
	_, err = svc.PropertyDocumentURL(ctx, propertyOwner, 7, "a.pdf")
	assert.EqualError(t, err, "storage down")
}

func TestHTTPClient_CreateSignedUploadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/object/upload/sign/property-docs/properties/1/x.pdf", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "storage/v1/object/upload/sign/property-docs/properties/1/x.pdf?token=t"})
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, SecretKey: "key"}
	u, err := c.CreateSignedUploadURL(context.Background(), DocumentBucket, "properties/1/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/v1/object/upload/sign/property-docs/properties/1/x.pdf?token=t", u)

	_, err = (&HTTPClient{SecretKey: "key"}).CreateSignedUploadURL(context.Background(), DocumentBucket, "p")
	assert.Error(t, err)
}
