package httpapi

import (
	"io"
	"net/http"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/services"
)

// multipartOverhead is allowed on top of the file size limit for the form
// fields and part headers.
const multipartOverhead = 1 << 20

type uploadHandler struct {
	uploader *services.Uploader
}

func (h *uploadHandler) maxBody() int64 {
	if n := h.uploader.MaxBytes(); n > 0 {
		return n + multipartOverhead
	}
	return 32 << 20
}

func (h *uploadHandler) upload(r *http.Request) (*Response, error) {
	if _, err := principal(r); err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, h.maxBody())
	if err != nil {
		return nil, err
	}
	fh, err := params.File("file")
	if err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, common.Wrap(common.KindBadRequest, err, "cannot read file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, common.Wrap(common.KindBadRequest, err, "cannot read file")
	}

	res, err := h.uploader.Upload(r.Context(), services.UploadInput{
		Filename:      fh.Filename,
		ContentType:   fh.Header.Get("Content-Type"),
		Data:          data,
		Path:          params.GetString("path"),
		FileTypeCheck: params.GetString("fileTypeCheck"),
	})
	if err != nil {
		return nil, err
	}
	return OK(res, "file uploaded"), nil
}

func (h *uploadHandler) remove(r *http.Request) (*Response, error) {
	if _, err := principal(r); err != nil {
		return nil, err
	}
	params, err := ParseRequest(r, defaultMaxBody)
	if err != nil {
		return nil, err
	}
	filename, err := params.GetRequiredString("filename")
	if err != nil {
		return nil, err
	}
	if err := h.uploader.Remove(r.Context(), filename); err != nil {
		return nil, err
	}
	return OK(nil, "file deleted"), nil
}
