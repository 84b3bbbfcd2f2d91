package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GeneratedPrefix marks artifact outputs inside an order's directory so
// repeated fulfillment attempts overwrite instead of piling up.
const GeneratedPrefix = "gerado_"

// Store keeps uploads and generated artifacts on disk, one directory per
// order under the configured root.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) orderDir(orderID string) string {
	return filepath.Join(s.root, orderID)
}

// safeName flattens the name to its base and strips the reserved output
// prefix, so a customer upload can never masquerade as a generated page.
func safeName(name string) string {
	name = filepath.Base(name)
	for strings.HasPrefix(name, GeneratedPrefix) {
		name = strings.TrimPrefix(name, GeneratedPrefix)
	}
	return name
}

// SaveUpload writes one source file for the order. The name is flattened
// to its base to keep writes inside the order's directory.
func (s *Store) SaveUpload(orderID, name string, data []byte) error {
	name = safeName(name)
	dir := s.orderDir(orderID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create order dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write upload %s: %w", name, err)
	}
	return nil
}

func (s *Store) ReadUpload(orderID, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.orderDir(orderID), safeName(name)))
}

// WriteGenerated stores an artifact derived from the named source as
// gerado_<stem>.png and returns the derived name.
func (s *Store) WriteGenerated(orderID, sourceName string, data []byte) (string, error) {
	base := safeName(sourceName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := GeneratedPrefix + stem + ".png"
	if err := os.WriteFile(filepath.Join(s.orderDir(orderID), name), data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", name, err)
	}
	return name, nil
}

// ListGenerated returns the bytes of every generated page for the order,
// sorted by file name for a stable book layout.
func (s *Store) ListGenerated(orderID string) ([][]byte, error) {
	entries, err := os.ReadDir(s.orderDir(orderID))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), GeneratedPrefix) && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var pages [][]byte
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.orderDir(orderID), name))
		if err != nil {
			return nil, err
		}
		pages = append(pages, data)
	}
	return pages, nil
}
