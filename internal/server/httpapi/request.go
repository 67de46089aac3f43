package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
)

const (
	contentJSON      = "application/json"
	contentMultipart = "multipart/form-data"
	contentForm      = "application/x-www-form-urlencoded"
)

// Params is the union of query-string and body parameters of one request.
// Body values win over query values of the same name.
type Params struct {
	values map[string]string
	keys   map[string]bool
	files  map[string][]*multipart.FileHeader

	// json holds the raw body of JSON requests; form requests are bound
	// from their values instead.
	json []byte
}

// ParseRequest consumes the body of r, which may be JSON, multipart or
// urlencoded form data. Bodies over maxBytes are rejected.
func ParseRequest(r *http.Request, maxBytes int64) (*Params, error) {
	p := &Params{
		values: make(map[string]string),
		keys:   make(map[string]bool),
		files:  make(map[string][]*multipart.FileHeader),
	}
	mergeValues(p.values, r.URL.Query())

	if r.Body == nil || r.Body == http.NoBody {
		return p, nil
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	mediaType := contentJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, common.BadRequest("invalid content type %q", ct)
		}
		mediaType = mt
	}

	switch mediaType {
	case contentJSON:
		return p, p.parseJSON(r.Body, maxBytes)
	case contentMultipart:
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, bodyError(err, maxBytes, "malformed multipart body")
		}
		p.addForm(r.MultipartForm.Value)
		for name, fhs := range r.MultipartForm.File {
			p.files[name] = fhs
			p.keys[name] = true
		}
		return p, nil
	case contentForm:
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err, maxBytes, "malformed form body")
		}
		p.addForm(r.PostForm)
		return p, nil
	}
	return nil, common.BadRequest("unsupported content type %q", mediaType)
}

func (p *Params) parseJSON(body io.Reader, maxBytes int64) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return bodyError(err, maxBytes, "cannot read body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return common.Wrap(common.KindBadRequest, err, "malformed JSON body")
	}

	for k, v := range fields {
		p.keys[k] = true
		if s, ok := scalarString(v); ok {
			p.values[k] = s
		}
	}
	p.json = raw
	return nil
}

func (p *Params) addForm(v url.Values) {
	mergeValues(p.values, v)
	for k := range v {
		p.keys[k] = true
	}
}

func mergeValues(dst map[string]string, src url.Values) {
	for k, v := range src {
		if len(v) > 0 {
			dst[k] = v[0]
		}
	}
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func bodyError(err error, maxBytes int64, msg string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return common.BadRequest("request body exceeds %d bytes", maxBytes)
	}
	return common.Wrap(common.KindBadRequest, err, msg)
}

func (p *Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// GetString returns the named parameter, or "" when absent.
func (p *Params) GetString(name string) string { return p.values[name] }

// GetNumber parses the named parameter; ok is false when it is absent or
// not a number.
func (p *Params) GetNumber(name string) (float64, bool) {
	v, present := p.values[name]
	if !present {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil
}

func (p *Params) GetInt(name string) (int, bool) {
	v, present := p.values[name]
	if !present {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return n, err == nil
}

// GetRequiredString returns the trimmed parameter or a BAD_REQUEST error
// when it is absent or blank.
func (p *Params) GetRequiredString(name string) (string, error) {
	v := strings.TrimSpace(p.values[name])
	if v == "" {
		return "", common.BadRequest("%s is required", name)
	}
	return v, nil
}

// File returns the first uploaded file of the named multipart field.
func (p *Params) File(name string) (*multipart.FileHeader, error) {
	fhs := p.files[name]
	if len(fhs) == 0 {
		return nil, common.BadRequest("%s is required", name)
	}
	return fhs[0], nil
}

// Keys reports which parameters the body supplied.
func (p *Params) Keys() map[string]bool { return p.keys }

// Bind decodes the body into dst. Form bodies are bound by their string
// values, so only string fields can be set that way.
func (p *Params) Bind(dst any) error {
	raw := p.json
	if raw == nil {
		if len(p.keys) == 0 {
			return nil
		}
		form := make(map[string]string, len(p.keys))
		for k := range p.keys {
			if v, ok := p.values[k]; ok {
				form[k] = v
			}
		}
		var err error
		if raw, err = json.Marshal(form); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return common.BadRequest("%s must be %s", typeErr.Field, describeType(typeErr.Type.String()))
		}
		return common.Wrap(common.KindBadRequest, err, "malformed JSON body")
	}
	return nil
}

func describeType(t string) string {
	switch {
	case strings.HasPrefix(t, "int"), strings.HasPrefix(t, "uint"), strings.HasPrefix(t, "float"):
		return "a number"
	case t == "bool":
		return "a boolean"
	case t == "string":
		return "a string"
	case strings.HasPrefix(t, "[]"):
		return "an array"
	case t == "time.Time":
		return "an RFC 3339 timestamp"
	}
	return fmt.Sprintf("of type %s", t)
}
