package zenodo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// ListFiles returns the files of dep.
func (c *Client) ListFiles(ctx context.Context, dep *zs.Deposition) ([]*zs.DepositionFile, error) {
	body, status, err := c.do(ctx, call{method: http.MethodGet, url: dep.Links.Files, size: -1})
	if err != nil {
		return nil, fmt.Errorf("listing files of deposition %d: %w", dep.ID, err)
	}
	if status > 299 {
		return nil, remoteError("list files", zs.ErrRemote, status, body)
	}

	var files []*zs.DepositionFile
	if err := json.Unmarshal(body, &files); err != nil {
		return nil, fmt.Errorf("decoding file list: %w", err)
	}
	return files, nil
}

// Upload stores r under filename through the bucket API. When that fails
// with a remote or transport error, r is rewound and sent once more through
// the legacy files API. Other failures are returned as-is.
func (c *Client) Upload(ctx context.Context, dep *zs.Deposition, filename string, r io.ReadSeeker, size int64) (*zs.DepositionFile, error) {
	f, err := c.bucketUpload(ctx, dep, filename, r, size)
	if err == nil {
		return f, nil
	}
	if !fallbackEligible(ctx, err) {
		return nil, err
	}

	c.logger.Warn("bucket upload failed, retrying with files API", "file", filename, "error", err)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding %s: %w", filename, err)
	}
	return c.legacyUpload(ctx, dep, filename, r)
}

// fallbackEligible reports whether a bucket upload error is one the legacy
// endpoint may recover from.
func fallbackEligible(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, zs.ErrNoBucket) {
		return true
	}
	var re *zs.RemoteError
	if errors.As(err, &re) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// bucketObject is the response of a bucket PUT.
type bucketObject struct {
	Key       string `json:"key"`
	VersionID string `json:"version_id"`
	Size      int64  `json:"size"`
	Checksum  string `json:"checksum"`
	Links     struct {
		Self string `json:"self"`
	} `json:"links"`
}

func (c *Client) bucketUpload(ctx context.Context, dep *zs.Deposition, filename string, r io.Reader, size int64) (*zs.DepositionFile, error) {
	if dep.Links.Bucket == "" {
		return nil, zs.ErrNoBucket
	}

	// The transport closes request bodies; r stays open for the fallback.
	body, status, err := c.do(ctx, call{
		method:      http.MethodPut,
		url:         dep.Links.Bucket + "/" + url.PathEscape(filename),
		body:        io.NopCloser(r),
		size:        size,
		contentType: "application/octet-stream",
	})
	if err != nil {
		return nil, err
	}
	if !statusIn(status, http.StatusOK, http.StatusCreated) {
		return nil, remoteError("bucket upload", zs.ErrUpload, status, body)
	}

	var obj bucketObject
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decoding bucket object: %w", err)
	}
	return &zs.DepositionFile{
		ID:       obj.VersionID,
		Filename: obj.Key,
		Filesize: obj.Size,
		Checksum: strings.TrimPrefix(obj.Checksum, "md5:"),
		Links:    zs.FileLinks{Self: obj.Links.Self, Download: obj.Links.Self},
	}, nil
}

func (c *Client) legacyUpload(ctx context.Context, dep *zs.Deposition, filename string, r io.Reader) (*zs.DepositionFile, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(writeForm(mw, filename, r))
	}()
	// Unblocks the writer if the request never consumed the body.
	defer func() {
		pr.Close()
		<-done
	}()

	body, status, err := c.do(ctx, call{
		method:      http.MethodPost,
		url:         dep.Links.Files,
		body:        pr,
		size:        -1,
		contentType: mw.FormDataContentType(),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", filename, err)
	}
	if status != http.StatusCreated {
		return nil, remoteError("file upload", zs.ErrUpload, status, body)
	}

	var f zs.DepositionFile
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decoding uploaded file: %w", err)
	}
	return &f, nil
}

func writeForm(mw *multipart.Writer, filename string, r io.Reader) error {
	if err := mw.WriteField("name", filename); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

// DeleteFile deletes file by its self link. A 404 means the file is already
// gone and is not an error.
func (c *Client) DeleteFile(ctx context.Context, file *zs.DepositionFile) error {
	body, status, err := c.do(ctx, call{method: http.MethodDelete, url: file.Links.Self, size: -1})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", file.Filename, err)
	}
	if status == http.StatusNotFound {
		c.logger.Warn("file already absent", "file", file.Filename)
		return nil
	}
	if status > 299 {
		return remoteError("delete file", zs.ErrRemote, status, body)
	}
	return nil
}
