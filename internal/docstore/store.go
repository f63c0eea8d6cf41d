// Package docstore persists rendered invoice documents. Artifacts live under
// a configured root at a stable, invoice-number-addressed path so accounting
// exports and customer downloads can rely on the URL.
package docstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Store interface {
	// SaveInvoice writes the document and returns its retrievable path,
	// always of the form invoices/<invoiceNumber>.pdf.
	SaveInvoice(ctx context.Context, invoiceNumber string, doc io.Reader) (string, error)

	// Root returns the filesystem root artifacts are served from.
	Root() string
}

type fsStore struct {
	root string
}

func NewFS(root string) (Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "invoices"), 0o755); err != nil {
		return nil, fmt.Errorf("create document root: %w", err)
	}
	return &fsStore{root: root}, nil
}

func (s *fsStore) SaveInvoice(ctx context.Context, invoiceNumber string, doc io.Reader) (string, error) {
	if invoiceNumber == "" {
		return "", fmt.Errorf("empty invoice number")
	}

	rel := filepath.Join("invoices", invoiceNumber+".pdf")
	abs := filepath.Join(s.root, rel)

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".invoice-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, doc); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	// Rename keeps the published path atomic: readers never see a partial file.
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (s *fsStore) Root() string { return s.root }
