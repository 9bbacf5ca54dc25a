// Package netx contains small HTTP helpers shared by the pinning backend and
// the command line client.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// FormFile is one file part of a multipart/form-data body.
type FormFile struct {
	Field    string
	FileName string
	Data     []byte
}

// FormField is a plain text part.
type FormField struct {
	Name  string
	Value string
}

// MultipartBody encodes files then fields, in the given order, and returns
// the body together with its Content-Type (including the boundary).
func MultipartBody(files []FormFile, fields []FormField) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for _, f := range files {
		w, err := mw.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return body, mw.FormDataContentType(), nil
}

// StatusError describes a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %s", e.Status)
	}
	return fmt.Sprintf("unexpected status: %s; body: %s", e.Status, e.Body)
}

// CheckResponse returns nil for 2xx responses. Otherwise it drains up to 4KiB
// of the body into a *StatusError. The caller still closes resp.Body.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(b))}
}
