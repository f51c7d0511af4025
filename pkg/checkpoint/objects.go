package checkpoint

import (
	"fmt"

	"github.com/nlpodyssey/gopickle/types"
)

// Global is a module level Python name referenced by the pickle
type Global struct {
	Module string
	Name   string
}

var (
	_ types.Callable  = (*Global)(nil)
	_ types.PyNewable = (*Global)(nil)
)

// Call records a REDUCE of the global
func (g *Global) Call(args ...interface{}) (interface{}, error) {
	return &Reduction{Func: g, Args: args}, nil
}

// PyNew records a NEWOBJ of the global
func (g *Global) PyNew(args ...interface{}) (interface{}, error) {
	return &Reduction{Func: g, Args: args, NewObj: true}, nil
}

func (g *Global) String() string {
	return g.Module + "." + g.Name
}

// Reduction is an object rebuilt by calling a global with arguments, as
// torch._utils._rebuild_tensor_v2 rebuilds tensors. Items appended or set
// after construction and the BUILD state are kept for re-encoding.
type Reduction struct {
	Func      *Global
	Args      []interface{}
	NewObj    bool
	ListItems []interface{}
	DictItems []types.DictEntry
	State     interface{}
	HasState  bool
}

var (
	_ types.DictSetter      = (*Reduction)(nil)
	_ types.ListAppender    = (*Reduction)(nil)
	_ types.PyStateSettable = (*Reduction)(nil)
)

func (r *Reduction) Set(key, value interface{}) {
	r.DictItems = append(r.DictItems, types.DictEntry{Key: key, Value: value})
}

func (r *Reduction) Append(v interface{}) {
	r.ListItems = append(r.ListItems, v)
}

func (r *Reduction) PySetState(state interface{}) error {
	r.State = state
	r.HasState = true
	return nil
}

// StorageRef is a persistent reference to a storage record of the archive
type StorageRef struct {
	PID *types.Tuple // ('storage', storage class, key, location, numel)
	Key string
}

func persistentLoad(pid interface{}) (interface{}, error) {
	t, ok := pid.(*types.Tuple)
	if !ok || t.Len() < 3 {
		return nil, fmt.Errorf("unexpected persistent id %v", pid)
	}
	if kind, _ := t.Get(0).(string); kind != "storage" {
		return nil, fmt.Errorf("unexpected persistent id type %v", t.Get(0))
	}
	key, ok := t.Get(2).(string)
	if !ok {
		return nil, fmt.Errorf("persistent id has no storage key: %v", pid)
	}
	return &StorageRef{PID: t, Key: key}, nil
}

func findClass(module, name string) (interface{}, error) {
	return &Global{Module: module, Name: name}, nil
}
