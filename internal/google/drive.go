package google

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"

	listFields     = "nextPageToken, files(id, name, mimeType, webViewLink, createdTime, modifiedTime, size, iconLink, capabilities, parents)"
	metadataFields = "id, name, mimeType, webViewLink, createdTime, modifiedTime, parents, size, iconLink, capabilities, shared, owners, permissions"
)

// exportFormat says how a native Workspace file is exported for download.
type exportFormat struct {
	mimeType  string
	extension string
}

var exportFormats = map[string]exportFormat{
	"application/vnd.google-apps.document": {
		mimeType:  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		extension: ".docx",
	},
	"application/vnd.google-apps.spreadsheet": {
		mimeType:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		extension: ".xlsx",
	},
	"application/vnd.google-apps.presentation": {
		mimeType:  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		extension: ".pptx",
	},
}

// DriveClient wraps the Google Drive API.
type DriveClient struct {
	service *drive.Service
	logger  *slog.Logger
}

// Download describes a file written by DriveClient.Download.
type Download struct {
	FileName         string // Name to offer the caller, with export extension
	MimeType         string // Content type of the bytes written
	OriginalMimeType string // Drive MIME type of the source file
}

// CreateFolder creates a folder, optionally under parentID.
func (c *DriveClient) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	f := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		f.Parents = []string{parentID}
	}
	folder, err := c.service.Files.Create(f).Fields("id, name, webViewLink").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %q: %w", name, err)
	}
	c.logger.Info("Created folder", "folderID", folder.Id, "name", folder.Name)
	return folder, nil
}

// ListFolder returns the non-trashed children of folderID.
func (c *DriveClient) ListFolder(ctx context.Context, folderID string, pageSize int64) ([]*drive.File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(folderID))
	list, err := c.service.Files.List().Q(query).PageSize(pageSize).Fields(listFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	c.logger.Debug("Listed folder", "folderID", folderID, "count", len(list.Files))
	return list.Files, nil
}

// Upload stores media as a new file named name.
func (c *DriveClient) Upload(ctx context.Context, name, mimeType, folderID string, media io.Reader) (*drive.File, error) {
	f := &drive.File{Name: name}
	if folderID != "" {
		f.Parents = []string{folderID}
	}

	call := c.service.Files.Create(f).Fields("id, name, webViewLink").Context(ctx)
	if mimeType != "" {
		call = call.Media(media, googleapi.ContentType(mimeType))
	} else {
		call = call.Media(media)
	}

	file, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload %q: %w", name, err)
	}
	c.logger.Info("Uploaded file", "fileID", file.Id, "name", file.Name)
	return file, nil
}

// Download writes the file's content to w. Docs, Sheets and Slides files are
// exported to their Office equivalents.
func (c *DriveClient) Download(ctx context.Context, fileID string, w io.Writer) (*Download, error) {
	meta, err := c.service.Files.Get(fileID).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	info := &Download{FileName: meta.Name, MimeType: meta.MimeType, OriginalMimeType: meta.MimeType}
	if info.FileName == "" {
		info.FileName = "downloaded_file_" + fileID
	}

	var body io.ReadCloser
	if format, ok := exportFormats[meta.MimeType]; ok {
		c.logger.Info("Exporting Workspace file", "fileID", fileID, "as", format.mimeType)
		resp, err := c.service.Files.Export(fileID, format.mimeType).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("failed to export file %s: %w", fileID, err)
		}
		body = resp.Body
		info.MimeType = format.mimeType
		if !strings.HasSuffix(strings.ToLower(info.FileName), format.extension) {
			info.FileName += format.extension
		}
	} else {
		resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
		}
		body = resp.Body
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content of file %s: %w", fileID, err)
	}
	c.logger.Info("Downloaded file", "fileID", fileID, "name", info.FileName, "bytes", n)
	return info, nil
}

// Metadata returns detailed properties of a file.
func (c *DriveClient) Metadata(ctx context.Context, fileID string) (*drive.File, error) {
	f, err := c.service.Files.Get(fileID).Fields(metadataFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %s: %w", fileID, err)
	}
	return f, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
