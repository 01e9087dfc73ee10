package storage

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newUploads(t *testing.T, maxBytes int64) *Uploads {
	t.Helper()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewUploads(store, NewSignedURLSigner("secret", time.Hour), "https://api.example/api/v1/", maxBytes)
}

func TestUploadsPutAndOpen(t *testing.T) {
	u := newUploads(t, 1024)

	stored, err := u.Put("../../Request Form.xlsx", strings.NewReader("payload"))
	require.NoError(t, err)
	require.Equal(t, "Request_Form.xlsx", stored.Name)
	require.True(t, strings.HasPrefix(stored.Path, "uploads/"))
	require.True(t, strings.HasPrefix(stored.DownloadURL, "https://api.example/api/v1/files/"))
	require.Equal(t, int64(7), stored.Size)

	token := strings.TrimPrefix(stored.DownloadURL, "https://api.example/api/v1/files/")
	f, name, err := u.Open(token)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "payload", string(body))
	require.Equal(t, "Request_Form.xlsx", name)
}

func TestUploadsRejectsOversizedFile(t *testing.T) {
	u := newUploads(t, 4)
	_, err := u.Put("big.pdf", strings.NewReader("12345"))
	require.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	path := store.Path("../../etc/passwd")
	require.True(t, strings.HasPrefix(path, store.baseDir))
}
