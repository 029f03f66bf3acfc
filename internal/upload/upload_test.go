package upload

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pulseboard/pulse/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func TestSaveStoresImage(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save(makeFileHeader(t, "photo.PNG", []byte("not really a png")))
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(name), "extension is normalized to lower case")

	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, []byte("not really a png"), data)
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(makeFileHeader(t, "payload.exe", []byte("nope")))
	assert.True(t, apperrors.IsValidation(err))
}

func TestSaveRejectsOversizedImage(t *testing.T) {
	store, err := NewImageStore(t.TempDir())
	require.NoError(t, err)

	header := makeFileHeader(t, "big.jpg", []byte("tiny"))
	header.Size = MaxImageSize + 1

	_, err = store.Save(header)
	assert.True(t, apperrors.IsValidation(err))
}
