package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, logger)
	require.NoError(t, err)
	return s
}

func TestLocalStorage_PutGetRoundTrip(t *testing.T) {
	s := testLocalStorage(t)
	ctx := context.Background()
	key := "tenants/abc/bills/test.jpg"

	err := s.Put(ctx, key, strings.NewReader("fake image data"), PutOptions{})
	require.NoError(t, err)

	reader, info, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "fake image data", string(data))
	assert.Equal(t, int64(15), info.Size)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	s := testLocalStorage(t)

	_, _, err := s.Get(context.Background(), "tenants/abc/bills/missing.jpg")
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_PutRejectsOversize(t *testing.T) {
	s := testLocalStorage(t)

	err := s.Put(context.Background(), "big.bin", strings.NewReader(strings.Repeat("x", 100)), PutOptions{MaxSize: 50})
	assert.True(t, IsTooLarge(err))

	// Oversize writes must not leave a partial object behind.
	_, _, err = s.Get(context.Background(), "big.bin")
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_PutNoOverwrite(t *testing.T) {
	s := testLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a.txt", strings.NewReader("one"), PutOptions{}))
	err := s.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{})
	assert.Error(t, err)

	require.NoError(t, s.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{Overwrite: true}))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := testLocalStorage(t)

	err := s.Put(context.Background(), "../outside.txt", strings.NewReader("x"), PutOptions{})
	assert.Error(t, err)
}

func TestLocalStorage_Delete(t *testing.T) {
	s := testLocalStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "d.txt", strings.NewReader("x"), PutOptions{}))
	require.NoError(t, s.Delete(ctx, "d.txt"))

	_, _, err := s.Get(ctx, "d.txt")
	assert.True(t, IsNotFound(err))

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete(ctx, "d.txt"))
}

func TestKeyHelpers(t *testing.T) {
	tenantID := uuid.New()

	billKey := BillImageKey(tenantID, "resit-tnb.jpg")
	assert.True(t, strings.HasPrefix(billKey, "tenants/"+tenantID.String()+"/bills/"))
	assert.True(t, strings.HasSuffix(billKey, ".jpg"))

	thumbKey := ThumbnailKey(tenantID)
	assert.Contains(t, thumbKey, "/thumbnails/")
	assert.True(t, strings.HasSuffix(thumbKey, ".jpg"))

	reportID := uuid.New()
	reportKey := ReportKey(tenantID, reportID, "csv")
	assert.Equal(t, "tenants/"+tenantID.String()+"/reports/"+reportID.String()+".csv", reportKey)
}

func TestIsAllowedBillType(t *testing.T) {
	assert.True(t, IsAllowedBillType("image/jpeg"))
	assert.True(t, IsAllowedBillType("image/png"))
	assert.True(t, IsAllowedBillType("application/pdf"))
	assert.True(t, IsAllowedBillType("image/jpeg; charset=binary"))
	assert.False(t, IsAllowedBillType("text/html"))
	assert.False(t, IsAllowedBillType("application/zip"))
}
