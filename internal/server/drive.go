package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"suiteagent/internal/google"

	"github.com/gorilla/mux"
	"google.golang.org/api/drive/v3"
)

const (
	defaultFolderID = "root"
	defaultPageSize = 100
	maxFieldBytes   = 4 << 10
)

func (s *Server) driveRoutes(r routeGroup) {
	r.HandleFunc("/folder/create", s.handleCreateFolder).Methods(http.MethodPost)
	r.HandleFunc("/folder/list", s.handleListFolder).Methods(http.MethodPost)
	r.HandleFunc("/file/upload", s.handleUploadFile).Methods(http.MethodPost)
	r.HandleFunc("/file/{file_id}/download", s.handleDownloadFile).Methods(http.MethodPost)
	r.HandleFunc("/file/{file_id}/metadata", s.handleFileMetadata).Methods(http.MethodPost)
}

// driveClient resolves the caller's token and opens a Drive client.
func (s *Server) driveClient(r *http.Request) (*google.DriveClient, error) {
	token, err := s.accessToken(r)
	if err != nil {
		return nil, err
	}
	return s.google.Drive(r.Context(), token)
}

// stage creates a temporary file under the staging directory. The returned
// release func closes and removes it and must always be called.
func (s *Server) stage(pattern string) (*os.File, func(), error) {
	dir := s.cfg.StagingDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create staging dir: %w", err)
		}
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	release := func() {
		_ = f.Close()
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove staging file", "file", f.Name(), "error", err)
		}
	}
	return f, release, nil
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderName     string `json:"folder_name"`
		ParentFolderID string `json:"parent_folder_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	if strings.TrimSpace(req.FolderName) == "" {
		s.fail(w, r, invalid("folder_name", "folder_name is required"), "Folder")
		return
	}

	client, err := s.driveClient(r)
	if err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	folder, err := client.CreateFolder(r.Context(), req.FolderName, req.ParentFolderID)
	if err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	writeOK(w, envelope{"message": "Folder created successfully.", "folder": folder})
}

func (s *Server) handleListFolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FolderID string `json:"folder_id"`
		PageSize int64  `json:"page_size"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	if req.FolderID == "" {
		req.FolderID = defaultFolderID
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}

	client, err := s.driveClient(r)
	if err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	files, err := client.ListFolder(r.Context(), req.FolderID, req.PageSize)
	if err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	if files == nil {
		files = []*drive.File{}
	}
	writeOK(w, envelope{"folder_id": req.FolderID, "items": files, "count": len(files)})
}

// uploadForm is the parsed multipart upload. The file part is streamed into a
// staging file rather than held in memory.
type uploadForm struct {
	fileName string
	mimeType string
	folderID string
	partName string
	partType string
	size     int64
}

func (s *Server) readUpload(r *http.Request, dst io.Writer) (*uploadForm, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, invalid("file", "Request must be multipart/form-data with a 'file' part")
	}

	form := &uploadForm{}
	gotFile := false
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, invalid("file", "Malformed multipart body: %v", err)
		}

		switch part.FormName() {
		case "file":
			form.partName = part.FileName()
			form.partType = part.Header.Get("Content-Type")
			if form.size, err = io.Copy(dst, part); err != nil {
				return nil, fmt.Errorf("failed to stage upload: %w", err)
			}
			gotFile = true
		case "file_name", "mime_type", "folder_id":
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				return nil, invalid(part.FormName(), "Could not read %s: %v", part.FormName(), err)
			}
			v := strings.TrimSpace(string(value))
			switch part.FormName() {
			case "file_name":
				form.fileName = v
			case "mime_type":
				form.mimeType = v
			case "folder_id":
				form.folderID = v
			}
		}
		_ = part.Close()
	}

	if !gotFile {
		return nil, invalid("file", "No 'file' part in the request")
	}
	if form.fileName == "" {
		form.fileName = filepath.Base(form.partName)
	}
	if form.fileName == "" || form.fileName == "." {
		return nil, invalid("file_name", "No file name given and the file part has none")
	}
	if form.mimeType == "" && form.partType != "application/octet-stream" {
		form.mimeType = form.partType
	}
	return form, nil
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	staged, release, err := s.stage("upload-*")
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	defer release()

	form, err := s.readUpload(r, staged)
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		s.fail(w, r, fmt.Errorf("failed to rewind staged upload: %w", err), "File")
		return
	}

	client, err := s.driveClient(r)
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	file, err := client.Upload(r.Context(), form.fileName, form.mimeType, form.folderID, staged)
	if err != nil {
		s.fail(w, r, err, "Folder")
		return
	}
	s.logger.Info("Uploaded file to Drive", "fileID", file.Id, "bytes", form.size)
	writeOK(w, envelope{"message": "File uploaded successfully.", "file_info": file})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	client, err := s.driveClient(r)
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}

	staged, release, err := s.stage("download-*")
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	defer release()

	info, err := client.Download(r.Context(), mux.Vars(r)["file_id"], staged)
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	size, err := staged.Seek(0, io.SeekCurrent)
	if err != nil {
		s.fail(w, r, fmt.Errorf("failed to size staged download: %w", err), "File")
		return
	}
	if _, err := staged.Seek(0, io.SeekStart); err != nil {
		s.fail(w, r, fmt.Errorf("failed to rewind staged download: %w", err), "File")
		return
	}

	contentType := info.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.FileName}))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, staged); err != nil {
		s.logger.Warn("Client went away during download", "fileID", mux.Vars(r)["file_id"], "error", err)
	}
}

func (s *Server) handleFileMetadata(w http.ResponseWriter, r *http.Request) {
	client, err := s.driveClient(r)
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	meta, err := client.Metadata(r.Context(), mux.Vars(r)["file_id"])
	if err != nil {
		s.fail(w, r, err, "File")
		return
	}
	writeOK(w, envelope{"metadata": meta})
}
