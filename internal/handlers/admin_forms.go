package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

const (
	recordFormField     = "record"
	imagesFormField     = "images"
	multipartMemoryBase = 1 << 20
)

var errRequestTooLarge = errors.New("request body too large")

// decodeUpsert reads a record submission. Multipart requests carry the record as JSON in the
// "record" field and zero or more "images" files; any other content type is the record JSON itself.
func decodeUpsert(w http.ResponseWriter, r *http.Request, kind domain.RecordKind, maxBytes int64) (services.UpsertCommand, error) {
	cmd := services.UpsertCommand{Kind: kind}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return cmd, bodyError(err)
		}
		if err := decodeRecord(kind, body, &cmd); err != nil {
			return cmd, err
		}
		return cmd, nil
	}

	if err := r.ParseMultipartForm(multipartMemoryBase); err != nil {
		return cmd, bodyError(err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	record := strings.TrimSpace(r.FormValue(recordFormField))
	if record == "" {
		return cmd, fmt.Errorf("%w: multipart field %q is required", services.ErrInvalidRecord, recordFormField)
	}
	if err := decodeRecord(kind, []byte(record), &cmd); err != nil {
		return cmd, err
	}

	for _, header := range r.MultipartForm.File[imagesFormField] {
		upload, err := readUpload(header)
		if err != nil {
			return cmd, err
		}
		cmd.Uploads = append(cmd.Uploads, upload)
	}
	return cmd, nil
}

func decodeRecord(kind domain.RecordKind, data []byte, cmd *services.UpsertCommand) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: record body is required", services.ErrInvalidRecord)
	}
	var target any
	switch kind {
	case domain.KindProducts:
		cmd.Product = &services.ProductInput{}
		target = cmd.Product
	case domain.KindCollections:
		cmd.Collection = &services.CollectionInput{}
		target = cmd.Collection
	case domain.KindBlogs:
		cmd.Blog = &services.BlogInput{}
		target = cmd.Blog
	default:
		return fmt.Errorf("%w: unknown record kind %q", services.ErrInvalidRecord, kind)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: malformed record JSON: %v", services.ErrInvalidRecord, err)
	}
	return nil
}

func readUpload(header *multipart.FileHeader) (services.ImageUpload, error) {
	file, err := header.Open()
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("open upload %q: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	return services.ImageUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errRequestTooLarge
	}
	return fmt.Errorf("%w: %v", services.ErrInvalidRecord, err)
}
