// internal/domain/upload/entity.go
package upload

import (
	"io"
	"mime/multipart"
)

// File is an incoming upload. Open may be called once per upload attempt.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart form file
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromMultipartList adapts every file of a form field
func FromMultipartList(headers []*multipart.FileHeader) []File {
	files := make([]File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, FromMultipart(fh))
	}
	return files
}

// Object is a stored media object
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}
