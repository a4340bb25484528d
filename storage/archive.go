package storage

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ZipArchiver packt ein Batch-Verzeichnis in <dir>.zip direkt daneben.
type ZipArchiver struct{}

// Archive liefert den Pfad des Archivs und den Anzeigenamen (<basename>.zip).
func (ZipArchiver) Archive(ctx context.Context, dir string) (string, string, error) {
	dir = filepath.Clean(dir)
	target := dir + ".zip"
	name := filepath.Base(target)

	tmp, err := os.CreateTemp(filepath.Dir(dir), ".archive-*.zip")
	if err != nil {
		return "", "", err
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			_, err := zw.Create(rel + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return addZipFile(zw, path, rel)
	})
	if walkErr != nil {
		zw.Close()
		tmp.Close()
		return "", "", walkErr
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", "", err
	}
	return target, name, nil
}

func addZipFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
