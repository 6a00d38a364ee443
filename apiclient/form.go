package apiclient

import (
	"bytes"
	"io"
	"mime/multipart"

	"github.com/pkg/errors"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

// Form is a multipart/form-data body. It is re-encoded for every attempt so a
// replayed request carries an identical payload.
type Form struct {
	fields []formField
	files  []formFile
}

func NewForm() *Form {
	return &Form{}
}

// Field appends a text field. Fields keep insertion order.
func (f *Form) Field(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// File appends a file part.
func (f *Form) File(field, filename string, content []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// encode returns the body and its content type, including the boundary.
func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", errors.Wrapf(err, "[Form.encode] field %s", field.name)
		}
	}
	for _, file := range f.files {
		part, err := w.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", errors.Wrapf(err, "[Form.encode] file %s", file.field)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", errors.Wrapf(err, "[Form.encode] write %s", file.field)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "[Form.encode] close")
	}
	return &buf, w.FormDataContentType(), nil
}
