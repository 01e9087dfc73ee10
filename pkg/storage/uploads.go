package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = fmt.Errorf("file exceeds upload size limit")

// StoredFile describes an upload persisted under uploads/.
type StoredFile struct {
	ID          string
	Name        string
	Path        string
	Size        int64
	DownloadURL string
}

// Uploads stores submitted source files and hands out durable signed download links.
type Uploads struct {
	store    *LocalStorage
	signer   *SignedURLSigner
	baseURL  string
	maxBytes int64
}

// NewUploads wires local storage with a signer. baseURL is the public API prefix serving /files/{token}.
func NewUploads(store *LocalStorage, signer *SignedURLSigner, baseURL string, maxBytes int64) *Uploads {
	return &Uploads{store: store, signer: signer, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

// Put writes r to uploads/{id}_{name} and returns its signed download URL.
func (u *Uploads) Put(filename string, r io.Reader) (*StoredFile, error) {
	name := sanitizeFilename(filename)
	id := uuid.NewString()
	rel := path.Join("uploads", id+"_"+name)

	src := r
	if u.maxBytes > 0 {
		src = io.LimitReader(r, u.maxBytes+1)
	}
	n, err := u.store.SaveStream(rel, src)
	if err != nil {
		_ = u.store.Delete(rel)
		return nil, err
	}
	if u.maxBytes > 0 && n > u.maxBytes {
		_ = u.store.Delete(rel)
		return nil, ErrTooLarge
	}

	token, _, err := u.signer.Generate(id, rel)
	if err != nil {
		_ = u.store.Delete(rel)
		return nil, err
	}
	return &StoredFile{
		ID:          id,
		Name:        name,
		Path:        rel,
		Size:        n,
		DownloadURL: fmt.Sprintf("%s/files/%s", u.baseURL, token),
	}, nil
}

// Open resolves a download token to a readable file and its display name.
func (u *Uploads) Open(token string) (*os.File, string, error) {
	id, rel, _, err := u.signer.Parse(token)
	if err != nil {
		return nil, "", err
	}
	f, err := u.store.Open(rel)
	if err != nil {
		return nil, "", err
	}
	return f, strings.TrimPrefix(path.Base(rel), id+"_"), nil
}

// Remove deletes a stored upload, used when its content fails to parse.
func (u *Uploads) Remove(file *StoredFile) error {
	if file == nil {
		return nil
	}
	return u.store.Delete(file.Path)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(filepath.ToSlash(strings.TrimSpace(name)))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == 0:
			return '_'
		case r == ' ':
			return '_'
		}
		return r
	}, base)
	if base == "." || base == "" || base == "_" {
		return "upload"
	}
	return base
}
