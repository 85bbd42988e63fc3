package recordstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

type entryKind int

const (
	entryScalar entryKind = iota
	entryFile
	entryFileRef
)

type entry struct {
	kind  entryKind
	key   string
	value string // scalar value or kept filename
	data  []byte // file contents for entryFile
	name  string // upload filename for entryFile
}

// Payload is an ordered bundle of record fields for create and update calls.
// Each entry is one of three variants: a scalar field, a new file to upload,
// or a reference to a file already stored on the record. The client encodes
// the whole bundle as JSON when no new files are present and as multipart
// form data otherwise.
type Payload struct {
	entries []entry
}

func NewPayload() *Payload {
	return &Payload{}
}

// Set stores a scalar field, replacing any previous scalar with the same key.
func (p *Payload) Set(key, value string) *Payload {
	for i, e := range p.entries {
		if e.kind == entryScalar && e.key == key {
			p.entries[i].value = value
			return p
		}
	}
	p.entries = append(p.entries, entry{kind: entryScalar, key: key, value: value})
	return p
}

// AddFile appends a new file to upload under key.
func (p *Payload) AddFile(key, filename string, data []byte) *Payload {
	p.entries = append(p.entries, entry{kind: entryFile, key: key, name: filename, data: data})
	return p
}

// KeepFile appends a reference to a file already stored under key, so an
// update preserves it instead of replacing the whole file list.
func (p *Payload) KeepFile(key, filename string) *Payload {
	p.entries = append(p.entries, entry{kind: entryFileRef, key: key, value: filename})
	return p
}

// Get returns the scalar value stored under key.
func (p *Payload) Get(key string) (string, bool) {
	for _, e := range p.entries {
		if e.kind == entryScalar && e.key == key {
			return e.value, true
		}
	}
	return "", false
}

func (p *Payload) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Delete removes every entry stored under key, regardless of variant.
func (p *Payload) Delete(key string) {
	kept := p.entries[:0]
	for _, e := range p.entries {
		if e.key != key {
			kept = append(kept, e)
		}
	}
	p.entries = kept
}

// FileCount reports how many new files and kept references exist under key.
func (p *Payload) FileCount(key string) (files, refs int) {
	for _, e := range p.entries {
		if e.key != key {
			continue
		}
		switch e.kind {
		case entryFile:
			files++
		case entryFileRef:
			refs++
		}
	}
	return files, refs
}

// Clone returns a deep copy. Services shape a copy so the caller's payload
// is never mutated.
func (p *Payload) Clone() *Payload {
	c := &Payload{entries: make([]entry, len(p.entries))}
	copy(c.entries, p.entries)
	return c
}

func (p *Payload) hasFiles() bool {
	for _, e := range p.entries {
		if e.kind == entryFile {
			return true
		}
	}
	return false
}

// encodeJSON renders scalar fields as string values and kept file references
// as string arrays. Payloads with new files cannot be encoded as JSON.
func (p *Payload) encodeJSON() ([]byte, error) {
	obj := make(map[string]any)
	for _, e := range p.entries {
		switch e.kind {
		case entryScalar:
			obj[e.key] = e.value
		case entryFileRef:
			list, _ := obj[e.key].([]string)
			obj[e.key] = append(list, e.value)
		case entryFile:
			return nil, fmt.Errorf("payload with file %q cannot be JSON encoded", e.name)
		}
	}
	return json.Marshal(obj)
}

// encodeMultipart writes every entry in insertion order: scalars and kept
// references as form values, new files as file parts.
func (p *Payload) encodeMultipart() (body *bytes.Buffer, contentType string, err error) {
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, e := range p.entries {
		switch e.kind {
		case entryScalar, entryFileRef:
			if err := w.WriteField(e.key, e.value); err != nil {
				return nil, "", fmt.Errorf("failed to write field %q: %w", e.key, err)
			}
		case entryFile:
			part, err := w.CreateFormFile(e.key, e.name)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create file part %q: %w", e.name, err)
			}
			if _, err := io.Copy(part, bytes.NewReader(e.data)); err != nil {
				return nil, "", fmt.Errorf("failed to write file %q: %w", e.name, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
