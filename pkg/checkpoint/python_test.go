package checkpoint

import (
	"bytes"
	"math/big"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nlpodyssey/gopickle/types"
)

// pythonPickle is a protocol 2 pickle written by CPython's pickle module for
// a training checkpoint of the shape torch.save produces:
//
//	{"model": OrderedDict(backbone.weight, head.weight, head.tied) with _metadata,
//	 "optimizer": {"state": tensor, "lr": 0.001},
//	 "last_epoch": 71, "step": 2**70, "tag": b"\x00\xffdfine"}
//
// Tensors reference storages "0" (shared by backbone.weight and head.tied),
// "1" and "2" through persistent ids.
var pythonPickle = []byte("" +
	"\x80\x02\x7d\x71\x00\x28\x58\x05\x00\x00\x00\x6d\x6f\x64\x65\x6c" +
	"\x71\x01\x63\x63\x6f\x6c\x6c\x65\x63\x74\x69\x6f\x6e\x73\x0a\x4f" +
	"\x72\x64\x65\x72\x65\x64\x44\x69\x63\x74\x0a\x71\x02\x29\x52\x71" +
	"\x03\x28\x58\x0f\x00\x00\x00\x62\x61\x63\x6b\x62\x6f\x6e\x65\x2e" +
	"\x77\x65\x69\x67\x68\x74\x71\x04\x63\x74\x6f\x72\x63\x68\x2e\x5f" +
	"\x75\x74\x69\x6c\x73\x0a\x5f\x72\x65\x62\x75\x69\x6c\x64\x5f\x74" +
	"\x65\x6e\x73\x6f\x72\x5f\x76\x32\x0a\x71\x05\x28\x28\x58\x07\x00" +
	"\x00\x00\x73\x74\x6f\x72\x61\x67\x65\x71\x06\x63\x74\x6f\x72\x63" +
	"\x68\x0a\x46\x6c\x6f\x61\x74\x53\x74\x6f\x72\x61\x67\x65\x0a\x71" +
	"\x07\x58\x01\x00\x00\x00\x30\x71\x08\x58\x03\x00\x00\x00\x63\x70" +
	"\x75\x71\x09\x4b\x04\x74\x71\x0a\x51\x4b\x00\x4b\x02\x4b\x02\x86" +
	"\x71\x0b\x4b\x01\x85\x71\x0c\x89\x68\x02\x29\x52\x71\x0d\x74\x71" +
	"\x0e\x52\x71\x0f\x58\x0b\x00\x00\x00\x68\x65\x61\x64\x2e\x77\x65" +
	"\x69\x67\x68\x74\x71\x10\x68\x05\x28\x28\x68\x06\x68\x07\x58\x01" +
	"\x00\x00\x00\x31\x71\x11\x68\x09\x4b\x02\x74\x71\x12\x51\x4b\x00" +
	"\x4b\x02\x85\x71\x13\x68\x0c\x89\x68\x02\x29\x52\x71\x14\x74\x71" +
	"\x15\x52\x71\x16\x58\x09\x00\x00\x00\x68\x65\x61\x64\x2e\x74\x69" +
	"\x65\x64\x71\x17\x68\x05\x28\x28\x68\x06\x68\x07\x68\x08\x68\x09" +
	"\x4b\x04\x74\x71\x18\x51\x4b\x00\x4b\x04\x85\x71\x19\x68\x0c\x89" +
	"\x68\x02\x29\x52\x71\x1a\x74\x71\x1b\x52\x71\x1c\x75\x7d\x71\x1d" +
	"\x58\x09\x00\x00\x00\x5f\x6d\x65\x74\x61\x64\x61\x74\x61\x71\x1e" +
	"\x68\x02\x29\x52\x71\x1f\x58\x00\x00\x00\x00\x71\x20\x7d\x71\x21" +
	"\x58\x07\x00\x00\x00\x76\x65\x72\x73\x69\x6f\x6e\x71\x22\x4b\x01" +
	"\x73\x73\x73\x62\x58\x09\x00\x00\x00\x6f\x70\x74\x69\x6d\x69\x7a" +
	"\x65\x72\x71\x23\x7d\x71\x24\x28\x58\x05\x00\x00\x00\x73\x74\x61" +
	"\x74\x65\x71\x25\x68\x05\x28\x28\x68\x06\x68\x07\x58\x01\x00\x00" +
	"\x00\x32\x71\x26\x68\x09\x4b\x08\x74\x71\x27\x51\x4b\x00\x4b\x08" +
	"\x85\x71\x28\x68\x0c\x89\x68\x02\x29\x52\x71\x29\x74\x71\x2a\x52" +
	"\x71\x2b\x58\x02\x00\x00\x00\x6c\x72\x71\x2c\x47\x3f\x50\x62\x4d" +
	"\xd2\xf1\xa9\xfc\x75\x58\x0a\x00\x00\x00\x6c\x61\x73\x74\x5f\x65" +
	"\x70\x6f\x63\x68\x71\x2d\x4b\x47\x58\x04\x00\x00\x00\x73\x74\x65" +
	"\x70\x71\x2e\x8a\x09\x00\x00\x00\x00\x00\x00\x00\x00\x40\x58\x03" +
	"\x00\x00\x00\x74\x61\x67\x71\x2f\x63\x5f\x63\x6f\x64\x65\x63\x73" +
	"\x0a\x65\x6e\x63\x6f\x64\x65\x0a\x71\x30\x58\x08\x00\x00\x00\x00" +
	"\xc3\xbf\x64\x66\x69\x6e\x65\x71\x31\x58\x06\x00\x00\x00\x6c\x61" +
	"\x74\x69\x6e\x31\x71\x32\x86\x71\x33\x52\x71\x34\x75\x2e")

func pythonPayloads() map[string][]byte {
	return map[string][]byte{
		"0": bytes.Repeat([]byte{1}, 16),
		"1": bytes.Repeat([]byte{2}, 8),
		"2": bytes.Repeat([]byte{3}, 32),
	}
}

func TestUnmarshalPythonPickle(t *testing.T) {
	obj, err := Unmarshal(pythonPickle)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	ckpt, ok := obj.(*types.Dict)
	if !ok {
		t.Fatalf("top-level object is %T", obj)
	}
	want := []interface{}{"model", "optimizer", "last_epoch", "step", "tag"}
	if !reflect.DeepEqual(ckpt.Keys(), want) {
		t.Fatalf("keys = %v, want %v", ckpt.Keys(), want)
	}

	step, _ := ckpt.Get("step")
	two70 := new(big.Int).Lsh(big.NewInt(1), 70)
	if b, ok := step.(*big.Int); !ok || b.Cmp(two70) != 0 {
		t.Fatalf("step decoded as %#v", step)
	}
	tag, _ := ckpt.Get("tag")
	if enc, ok := tag.(*Reduction); !ok || enc.Func.String() != "_codecs.encode" || enc.Args[0] != "\x00ÿdfine" {
		t.Fatalf("tag decoded as %#v", tag)
	}

	model, _ := ckpt.Get("model")
	weights, ok := model.(*types.OrderedDict)
	if !ok || weights.Len() != 3 {
		t.Fatalf("model decoded as %#v", model)
	}
	if _, ok := weights.PyDict["_metadata"]; !ok {
		t.Fatal("_metadata attribute lost")
	}
	backbone := weights.MustGet("backbone.weight").(*Reduction)
	tied := weights.MustGet("head.tied").(*Reduction)
	if backbone.Args[0].(*StorageRef).Key != "0" || tied.Args[0].(*StorageRef).Key != "0" {
		t.Fatal("tied weights must share storage 0")
	}
}

func TestCleanPythonCheckpoint(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "best_stg1.pth")
	dst := filepath.Join(dir, "solo_modelo.pth")
	writeArchive(t, src, pythonPickle, pythonPayloads())

	info, err := Inspect(src)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !reflect.DeepEqual(info.Keys, []string{"model", "optimizer", "last_epoch", "step", "tag"}) || info.Storages != 3 {
		t.Fatalf("unexpected info %+v", info)
	}

	res, err := Clean(src, dst)
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}
	if res.KeptStorages != 2 || res.DroppedStorages != 1 || res.StorageBytes != 24 {
		t.Fatalf("unexpected result %+v", res)
	}

	keys, err := StorageKeys(dst)
	if err != nil {
		t.Fatalf("StorageKeys: %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"0", "1"}) {
		t.Fatalf("cleaned storages = %v", keys)
	}

	cleaned, err := Inspect(dst)
	if err != nil {
		t.Fatalf("Inspect cleaned: %v", err)
	}
	if !reflect.DeepEqual(cleaned.Keys, []string{"model"}) {
		t.Fatalf("cleaned keys = %v", cleaned.Keys)
	}
}
