package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/rs/zerolog/log"
)

// Upload categories understood by the backend.
const (
	UploadImage    = "image"
	UploadDocument = "document"
	UploadFavicon  = "favicon"
)

const faviconSettingKey = "favicon_url"

// UploadInput describes a file to upload. Progress, when set, receives
// every byte as it is sent.
type UploadInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Type        string
	Progress    io.Writer
}

// PresignUpload reserves a storage key and returns where to PUT the bytes.
func (c *Client) PresignUpload(ctx context.Context, filename, contentType string, size int64, uploadType string) (*PresignedUpload, error) {
	var resp envelope[PresignedUpload]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/api/admin/upload/presigned",
		Body: map[string]any{
			"filename":    filename,
			"contentType": contentType,
			"fileSize":    size,
			"uploadType":  uploadType,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Data.PresignedURL == "" {
		return nil, NewAPIError("Presign response did not contain an upload URL", http.StatusOK, CodeInvalidResponse)
	}
	return &resp.Data, nil
}

// PutObject streams body straight to object storage. The presigned URL
// carries its own authorization, so no bearer token is sent.
func (c *Client) PutObject(ctx context.Context, presignedURL string, body io.Reader, size int64, contentType string, progress io.Writer) error {
	if progress != nil {
		body = io.TeeReader(body, progress)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, presignedURL, c.throttle(body))
	if err != nil {
		return NewAPIError("Invalid upload URL", 0, CodeInvalidRequest).withCause(err)
	}
	if size > 0 {
		req.ContentLength = size
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	log.Debug().Str("url", presignedURL).Int64("size", size).Msg("Uploading object")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Object upload failed")
		return NewAPIError("Upload failed", 0, CodeNetworkError).withCause(err)
	}
	defer closeResponseBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewAPIError(fmt.Sprintf("Upload failed with status %d", resp.StatusCode), resp.StatusCode, CodeUploadFailed)
	}
	return nil
}

// DirectUpload is the answer to a direct upload: the temporary key the
// worker stored the file under.
type DirectUpload struct {
	TempKey string `json:"tempKey"`
	Message string `json:"message"`
}

// UploadDirect posts the file as multipart form data to uploadURL, an
// endpoint of the API that stores it on the caller's behalf. It goes through
// Do, so it is authenticated and rate limited like any other call.
func (c *Client) UploadDirect(ctx context.Context, uploadURL string, in UploadInput) (*DirectUpload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Filename))
	if in.ContentType != "" {
		header.Set("Content-Type", in.ContentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, NewAPIError("Failed to build upload form", 0, CodeInvalidRequest).withCause(err)
	}
	src := in.Body
	if in.Progress != nil {
		src = io.TeeReader(src, in.Progress)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, NewAPIError("Failed to read upload", 0, CodeUploadFailed).withCause(err)
	}
	if err := w.Close(); err != nil {
		return nil, NewAPIError("Failed to build upload form", 0, CodeInvalidRequest).withCause(err)
	}

	var resp DirectUpload
	err = c.Do(ctx, Request{
		Method:         http.MethodPost,
		Endpoint:       uploadURL,
		Raw:            buf.Bytes(),
		RawContentType: w.FormDataContentType(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmUpload moves an uploaded object from its temporary key to its
// final one.
func (c *Client) ConfirmUpload(ctx context.Context, p *PresignedUpload, uploadType string) (*UploadResult, error) {
	var resp envelope[UploadResult]
	err := c.Do(ctx, Request{
		Method:   http.MethodPost,
		Endpoint: "/api/admin/upload/confirm",
		Body: map[string]string{
			"tempKey":        p.TempKey,
			"finalKey":       p.FinalKey,
			"uploadType":     uploadType,
			"uniqueFilename": p.UniqueFilename,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// UploadFile runs the whole upload: presign, send the bytes, confirm. When
// the backend asks for a direct upload the bytes are posted as a form to the
// returned URL instead of PUT to storage; the confirm step is the same.
func (c *Client) UploadFile(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Type == "" {
		in.Type = UploadImage
	}
	presigned, err := c.PresignUpload(ctx, in.Filename, in.ContentType, in.Size, in.Type)
	if err != nil {
		return nil, err
	}
	if presigned.IsDirect {
		log.Debug().Str("file", in.Filename).Msg("Backend requested direct upload")
		if _, err := c.UploadDirect(ctx, presigned.PresignedURL, in); err != nil {
			return nil, err
		}
	} else if err := c.PutObject(ctx, presigned.PresignedURL, in.Body, in.Size, in.ContentType, in.Progress); err != nil {
		return nil, err
	}

	result, err := c.ConfirmUpload(ctx, presigned, in.Type)
	if err != nil {
		return nil, err
	}
	if result.Filename == "" {
		result.Filename = presigned.UniqueFilename
	}
	if result.Key == "" {
		result.Key = presigned.FinalKey
	}
	log.Info().Str("key", result.Key).Msg("Upload confirmed")
	return result, nil
}

// UploadFavicon uploads an icon and points the site's favicon setting at it.
func (c *Client) UploadFavicon(ctx context.Context, in UploadInput) (*UploadResult, error) {
	in.Type = UploadFavicon
	result, err := c.UploadFile(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateSiteSettings(ctx, map[string]string{faviconSettingKey: result.URL}); err != nil {
		return nil, err
	}
	return result, nil
}

// closeResponseBody drains a bounded amount so the connection can be reused.
func closeResponseBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, 1<<20)
	if err := resp.Body.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close response body")
	}
}
