package checkpoint

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// archive is an open torch.save zip file
type archive struct {
	zr      *zip.ReadCloser
	prefix  string               // Top-level directory, e.g. "archive"
	records map[string]*zip.File // Keyed by name relative to prefix
	order   []string             // Relative names in archive order
}

func openArchive(p string) (*archive, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %s: %w", p, err)
	}

	a := &archive{zr: zr, records: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		dir := path.Dir(f.Name)
		if path.Base(f.Name) == "data.pkl" && dir != "." && !strings.Contains(dir, "/") {
			a.prefix = dir
			break
		}
	}
	if a.prefix == "" {
		zr.Close()
		return nil, fmt.Errorf("open checkpoint %s: data.pkl not found", p)
	}

	for _, f := range zr.File {
		rel, ok := strings.CutPrefix(f.Name, a.prefix+"/")
		if !ok || strings.HasSuffix(f.Name, "/") {
			continue
		}
		a.records[rel] = f
		a.order = append(a.order, rel)
	}
	if _, ok := a.records["constants.pkl"]; ok {
		zr.Close()
		return nil, fmt.Errorf("open checkpoint %s: %w", p, ErrTorchScript)
	}
	return a, nil
}

func (a *archive) Close() error {
	return a.zr.Close()
}

func (a *archive) read(rel string) ([]byte, error) {
	f, ok := a.records[rel]
	if !ok {
		return nil, fmt.Errorf("record %s/%s not found", a.prefix, rel)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (a *archive) unpickle() (interface{}, error) {
	data, err := a.read("data.pkl")
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

func (a *archive) storageKeys() []string {
	var keys []string
	for _, rel := range a.order {
		if key, ok := strings.CutPrefix(rel, "data/"); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// writeTo writes a checkpoint with the given pickle and storages under
// prefix. Metadata records of the source (byteorder, version, .data/*) are
// carried over. It returns the uncompressed size of the storages written.
func (a *archive) writeTo(w io.Writer, prefix string, pickle []byte, storages []string) (int64, error) {
	zw := zip.NewWriter(w)

	if err := writeRecord(zw, prefix+"/data.pkl", bytes.NewReader(pickle)); err != nil {
		return 0, err
	}

	var meta []string
	for _, rel := range a.order {
		if rel == "data.pkl" || rel == "version" || strings.HasPrefix(rel, "data/") {
			continue
		}
		meta = append(meta, rel)
	}
	if _, ok := a.records["byteorder"]; !ok {
		if err := writeRecord(zw, prefix+"/byteorder", strings.NewReader("little")); err != nil {
			return 0, err
		}
	}
	for _, rel := range meta {
		if err := a.copyRecord(zw, prefix, rel); err != nil {
			return 0, err
		}
	}

	var total int64
	for _, key := range storages {
		rel := "data/" + key
		f, ok := a.records[rel]
		if !ok {
			return 0, fmt.Errorf("storage %s referenced but not in archive", key)
		}
		if err := a.copyRecord(zw, prefix, rel); err != nil {
			return 0, err
		}
		total += int64(f.UncompressedSize64)
	}

	if _, ok := a.records["version"]; ok {
		if err := a.copyRecord(zw, prefix, "version"); err != nil {
			return 0, err
		}
	} else if err := writeRecord(zw, prefix+"/version", strings.NewReader("3\n")); err != nil {
		return 0, err
	}

	if err := zw.Close(); err != nil {
		return 0, err
	}
	return total, nil
}

func (a *archive) copyRecord(zw *zip.Writer, prefix, rel string) error {
	rc, err := a.records[rel].Open()
	if err != nil {
		return fmt.Errorf("read %s: %w", rel, err)
	}
	defer rc.Close()
	return writeRecord(zw, prefix+"/"+rel, rc)
}

// writeRecord stores r uncompressed, as torch.save does.
func writeRecord(zw *zip.Writer, name string, r io.Reader) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// archiveName returns the top-level directory torch.save would use for dst:
// the file name without extension.
func archiveName(dst string) string {
	base := filepath.Base(dst)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "archive"
	}
	return name
}

// StorageKeys lists the storage records of the checkpoint at path, sorted
func StorageKeys(p string) ([]string, error) {
	a, err := openArchive(p)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	keys := a.storageKeys()
	sort.Strings(keys)
	return keys, nil
}
