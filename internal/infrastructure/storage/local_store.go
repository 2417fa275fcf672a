package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	appbilling "github.com/pozinox/tienda-api/internal/application/billing"
	apppayment "github.com/pozinox/tienda-api/internal/application/payment"
)

var _ apppayment.FileStore = (*LocalStore)(nil)
var _ appbilling.FileStore = (*LocalStore)(nil)

// LocalStore guarda artefactos (comprobantes, PDFs de documentos) en disco
// local bajo un directorio raíz. La referencia que devuelve es la ruta
// relativa a la raíz, estable ante cambios del directorio base.
type LocalStore struct {
	root string
}

// NewLocalStore construye el store y crea el directorio raíz si no existe.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de archivos: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Save escribe el archivo bajo root/dir/filename y devuelve "dir/filename".
func (s *LocalStore) Save(_ context.Context, dir, filename string, data []byte) (string, error) {
	name := sanitize(filename)
	if name == "" {
		return "", fmt.Errorf("nombre de archivo inválido: %q", filename)
	}
	fullDir := filepath.Join(s.root, dir)
	if err := os.MkdirAll(fullDir, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio %s: %w", dir, err)
	}
	ref := filepath.Join(dir, name)
	if err := os.WriteFile(filepath.Join(s.root, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("guardar archivo %s: %w", ref, err)
	}
	return ref, nil
}

// Load lee un archivo por su referencia.
func (s *LocalStore) Load(_ context.Context, ref string) ([]byte, error) {
	clean := filepath.Clean(ref)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("referencia inválida: %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.root, clean))
	if err != nil {
		return nil, fmt.Errorf("leer archivo %s: %w", ref, err)
	}
	return data, nil
}

// sanitize reduce el nombre a su base y elimina separadores de ruta.
func sanitize(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.ReplaceAll(name, string(filepath.Separator), "_")
}
