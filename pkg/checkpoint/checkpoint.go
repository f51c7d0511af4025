// Package checkpoint strips training state from PyTorch checkpoints.
//
// A checkpoint saved by torch.save is a zip archive holding a pickled object
// graph (<prefix>/data.pkl) and one record per tensor storage
// (<prefix>/data/<key>). Training snapshots usually pickle a dict with the
// model weights under "model" next to optimizer state, EMA weights and
// schedulers. Clean rewrites such a checkpoint so it only holds
// {"model": <state>} and the storages that state refers to.
//
// The object graph is decoded with gopickle and re-encoded with pickle
// protocol 2, the protocol torch.save uses. Objects the decoder does not know
// (tensor rebuild functions, storage classes) are kept as opaque globals and
// reductions so they round-trip without being interpreted. Storage bytes are
// copied unchanged.
//
// Main Functions:
//
// - Inspect: Reports the type and keys of the pickled top-level object
// - Clean: Writes a checkpoint that only keeps the "model" entry
// - Marshal: Encodes an object graph with pickle protocol 2
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nlpodyssey/gopickle/types"
)

// ModelKey is the entry kept by Clean
const ModelKey = "model"

var (
	// ErrNoModel is returned when the checkpoint has no "model" entry
	ErrNoModel = errors.New(`checkpoint has no "model" entry`)
	// ErrTorchScript is returned for TorchScript archives
	ErrTorchScript = errors.New("TorchScript archives are not supported")
)

// Info describes the top-level object of a checkpoint
type Info struct {
	Path     string
	Type     string   // Python type of the top-level object
	IsDict   bool     // Whether the top-level object is a mapping
	Keys     []string // Mapping keys in pickle order, empty unless IsDict
	Storages int      // Storage records in the archive
}

// Result reports what Clean wrote
type Result struct {
	Source          *Info
	KeptStorages    int
	DroppedStorages int
	StorageBytes    int64 // Uncompressed size of the kept storages
}

// Inspect opens a checkpoint and describes its top-level object
func Inspect(path string) (*Info, error) {
	a, err := openArchive(path)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	obj, err := a.unpickle()
	if err != nil {
		return nil, err
	}
	return describe(path, obj, a), nil
}

// Clean reads the checkpoint at src and writes one containing only its
// "model" entry to dst. It fails with ErrNoModel when the top-level object is
// not a mapping or has no such entry; dst is not created in that case.
// dst may name the same file as src.
func Clean(src, dst string) (*Result, error) {
	a, err := openArchive(src)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	obj, err := a.unpickle()
	if err != nil {
		return nil, err
	}
	info := describe(src, obj, a)

	model, ok := lookup(obj, ModelKey)
	if !ok {
		if !info.IsDict {
			return nil, fmt.Errorf("%w: top-level object is %s", ErrNoModel, info.Type)
		}
		return nil, fmt.Errorf("%w: keys are %v", ErrNoModel, info.Keys)
	}

	cleaned := types.NewDict()
	cleaned.Set(ModelKey, model)
	data, storages, err := Marshal(cleaned)
	if err != nil {
		return nil, fmt.Errorf("encode cleaned checkpoint: %w", err)
	}

	// src may be dst, so the new archive goes to a temporary file first
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := a.writeTo(tmp, archiveName(dst), data, storages)
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write %s: %w", dst, err)
	}
	a.Close()
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("replace %s: %w", dst, err)
	}

	return &Result{
		Source:          info,
		KeptStorages:    len(storages),
		DroppedStorages: info.Storages - len(storages),
		StorageBytes:    n,
	}, nil
}

func describe(path string, obj interface{}, a *archive) *Info {
	info := &Info{
		Path:     path,
		Type:     typeName(obj),
		Storages: len(a.storageKeys()),
	}
	switch v := obj.(type) {
	case *types.Dict:
		info.IsDict = true
		for _, e := range *v {
			info.Keys = append(info.Keys, fmt.Sprint(e.Key))
		}
	case *types.OrderedDict:
		info.IsDict = true
		for el := v.List.Front(); el != nil; el = el.Next() {
			info.Keys = append(info.Keys, fmt.Sprint(el.Value.(*types.OrderedDictEntry).Key))
		}
	}
	return info
}

func lookup(obj interface{}, key string) (interface{}, bool) {
	switch v := obj.(type) {
	case *types.Dict:
		return v.Get(key)
	case *types.OrderedDict:
		return v.Get(key)
	}
	return nil, false
}

func typeName(obj interface{}) string {
	switch v := obj.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case []byte:
		return "bytes"
	case *types.Dict:
		return "dict"
	case *types.OrderedDict:
		return "collections.OrderedDict"
	case *types.List:
		return "list"
	case *types.Tuple:
		return "tuple"
	case *Global:
		return "type"
	case *Reduction:
		return v.Func.String()
	case *StorageRef:
		return "storage"
	}
	return fmt.Sprintf("%T", obj)
}
