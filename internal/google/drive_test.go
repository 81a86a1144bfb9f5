package google

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownload_ExportsWorkspaceFiles(t *testing.T) {
	conn := newFakeConnector(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/doc1/export"):
			assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", r.URL.Query().Get("mimeType"))
			_, _ = io.WriteString(w, "DOCX-BYTES")
		case strings.HasSuffix(r.URL.Path, "/files/doc1"):
			writeJSON(w, http.StatusOK, map[string]string{
				"id": "doc1", "name": "Plan", "mimeType": "application/vnd.google-apps.document",
			})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})
	client, err := conn.Drive(context.Background(), "tok")
	require.NoError(t, err)

	var buf bytes.Buffer
	info, err := client.Download(context.Background(), "doc1", &buf)
	require.NoError(t, err)

	assert.Equal(t, "DOCX-BYTES", buf.String())
	assert.Equal(t, "Plan.docx", info.FileName)
	assert.Equal(t, "application/vnd.google-apps.document", info.OriginalMimeType)
}

func TestDownload_BinaryFile(t *testing.T) {
	conn := newFakeConnector(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			_, _ = io.WriteString(w, "PNG")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "img", "name": "logo.png", "mimeType": "image/png"})
	})
	client, err := conn.Drive(context.Background(), "tok")
	require.NoError(t, err)

	var buf bytes.Buffer
	info, err := client.Download(context.Background(), "img", &buf)
	require.NoError(t, err)

	assert.Equal(t, "PNG", buf.String())
	assert.Equal(t, "logo.png", info.FileName)
	assert.Equal(t, "image/png", info.MimeType)
}

func TestListFolder_QueryEscaping(t *testing.T) {
	conn := newFakeConnector(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `'it\'s' in parents and trashed = false`, r.URL.Query().Get("q"))
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"files": []map[string]string{{"id": "f1", "name": "one"}},
		})
	})
	client, err := conn.Drive(context.Background(), "tok")
	require.NoError(t, err)

	files, err := client.ListFolder(context.Background(), "it's", 100)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].Id)
}
