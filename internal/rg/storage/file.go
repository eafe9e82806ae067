package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/radieske/responsible-gambling/internal/rg"
)

// File grava cada chave como um arquivo JSON dentro de Dir.
type File struct {
	Dir string
}

// NewFile cria o diretório se ainda não existir.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	return &File{Dir: dir}, nil
}

// path escapa a chave para um nome de arquivo seguro ("/" vira %2F)
func (f *File) path(key string) string {
	return filepath.Join(f.Dir, url.PathEscape(key)+".json")
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, rg.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return b, nil
}

func (f *File) Set(_ context.Context, key string, value []byte) error {
	p := f.path(key)
	// .bak best-effort
	_ = os.WriteFile(p+".bak", value, 0o600)
	if err := writeFileAtomic(p, value, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// writeFileAtomic escreve em arquivo temporário, faz fsync e rename.
// Em Unix também faz fsync do diretório pai.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
