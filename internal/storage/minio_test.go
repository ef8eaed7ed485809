package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firstListPage = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>catalog</Name><Prefix>videos/</Prefix><KeyCount>1</KeyCount><MaxKeys>1000</MaxKeys>
  <IsTruncated>true</IsTruncated><NextContinuationToken>next</NextContinuationToken>
  <Contents><Key>videos/a.mp4</Key><Size>3</Size><LastModified>2024-01-01T00:00:00.000Z</LastModified></Contents>
</ListBucketResult>`

const accessDenied = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message><Resource>/catalog</Resource></Error>`

func TestMinioListStopsOnPageError(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/xml")
		if r.URL.Query().Get("continuation-token") == "" {
			_, _ = w.Write([]byte(firstListPage))
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(accessDenied))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4("key", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	s := &MinioStorage{client: client, bucket: "catalog", publicBase: srv.URL + "/catalog"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	objects, err := s.List(ctx, AssetVideo.Prefix())

	var storageErr *Error
	require.True(t, errors.As(err, &storageErr), "got %v", err)
	assert.Equal(t, "list", storageErr.Op)
	assert.Equal(t, minioBackend, storageErr.Backend)
	assert.Nil(t, objects)
	assert.GreaterOrEqual(t, requests.Load(), int32(2), "second page was requested")
}
