package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
)

// Pickle opcodes up to protocol 2
const (
	opMark       = '('
	opStop       = '.'
	opBinInt     = 'J'
	opBinInt1    = 'K'
	opBinInt2    = 'M'
	opNone       = 'N'
	opBinPersID  = 'Q'
	opReduce     = 'R'
	opBinUnicode = 'X'
	opAppends    = 'e'
	opBuild      = 'b'
	opGlobal     = 'c'
	opEmptyDict  = '}'
	opBinFloat   = 'G'
	opBinGet     = 'h'
	opLongBinGet = 'j'
	opEmptyList  = ']'
	opBinPut     = 'q'
	opLongBinPut = 'r'
	opSetItems   = 'u'
	opTuple      = 't'
	opEmptyTuple = ')'
	opProto      = 0x80
	opNewObj     = 0x81
	opTuple1     = 0x85
	opTuple2     = 0x86
	opTuple3     = 0x87
	opNewTrue    = 0x88
	opNewFalse   = 0x89
	opLong1      = 0x8a
	protocol     = 2
	batchSize    = 1000
)

// Unmarshal decodes a pickle produced by torch.save.
// Persistent ids decode to *StorageRef and unknown globals to *Global.
func Unmarshal(data []byte) (interface{}, error) {
	u := pickle.NewUnpickler(bytes.NewReader(data))
	u.FindClass = findClass
	u.PersistentLoad = persistentLoad
	obj, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("unpickle: %w", err)
	}
	return obj, nil
}

// Marshal encodes v with pickle protocol 2 and returns the keys of the
// storages it references, in order of first reference.
func Marshal(v interface{}) ([]byte, []string, error) {
	e := &encoder{
		memo: make(map[interface{}]int),
		seen: make(map[string]bool),
	}
	e.buf.WriteByte(opProto)
	e.buf.WriteByte(protocol)
	if err := e.encode(v); err != nil {
		return nil, nil, err
	}
	e.buf.WriteByte(opStop)
	return e.buf.Bytes(), e.storages, nil
}

type encoder struct {
	buf      bytes.Buffer
	memo     map[interface{}]int
	storages []string
	seen     map[string]bool
}

func (e *encoder) encode(v interface{}) error {
	if e.fromMemo(v) {
		return nil
	}

	switch x := v.(type) {
	case nil:
		e.buf.WriteByte(opNone)
	case bool:
		if x {
			e.buf.WriteByte(opNewTrue)
		} else {
			e.buf.WriteByte(opNewFalse)
		}
	case int:
		e.int(int64(x))
	case int64:
		e.int(x)
	case int32:
		e.int(int64(x))
	case *big.Int:
		e.bigInt(x)
	case float64:
		e.float(x)
	case float32:
		e.float(float64(x))
	case string:
		e.unicode(x)
	case []byte:
		return e.bytes(x)
	case *types.Tuple:
		return e.tuple(*x)
	case *types.List:
		e.buf.WriteByte(opEmptyList)
		e.put(x)
		return e.appends(*x)
	case *types.Dict:
		e.buf.WriteByte(opEmptyDict)
		e.put(x)
		return e.setItems(*x)
	case *types.OrderedDict:
		return e.orderedDict(x)
	case *Global:
		e.global(x)
	case *Reduction:
		return e.reduction(x)
	case *StorageRef:
		if !e.seen[x.Key] {
			e.seen[x.Key] = true
			e.storages = append(e.storages, x.Key)
		}
		if err := e.tuple(*x.PID); err != nil {
			return err
		}
		e.buf.WriteByte(opBinPersID)
	default:
		return fmt.Errorf("cannot pickle value of type %T", v)
	}
	return nil
}

func (e *encoder) fromMemo(v interface{}) bool {
	switch v.(type) {
	case *types.List, *types.Dict, *types.OrderedDict, *Reduction:
	default:
		return false
	}
	idx, ok := e.memo[v]
	if !ok {
		return false
	}
	if idx < 256 {
		e.buf.WriteByte(opBinGet)
		e.buf.WriteByte(byte(idx))
	} else {
		e.buf.WriteByte(opLongBinGet)
		e.uint32(uint32(idx))
	}
	return true
}

func (e *encoder) put(v interface{}) {
	idx := len(e.memo)
	e.memo[v] = idx
	if idx < 256 {
		e.buf.WriteByte(opBinPut)
		e.buf.WriteByte(byte(idx))
	} else {
		e.buf.WriteByte(opLongBinPut)
		e.uint32(uint32(idx))
	}
}

func (e *encoder) uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) int(v int64) {
	switch {
	case v >= 0 && v <= math.MaxUint8:
		e.buf.WriteByte(opBinInt1)
		e.buf.WriteByte(byte(v))
	case v >= 0 && v <= math.MaxUint16:
		e.buf.WriteByte(opBinInt2)
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		e.buf.Write(b[:])
	case v >= math.MinInt32 && v <= math.MaxInt32:
		e.buf.WriteByte(opBinInt)
		e.uint32(uint32(int32(v)))
	default:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v))
		e.long1(trimTwosComplement(b[:]))
	}
}

func (e *encoder) bigInt(v *big.Int) {
	if v.IsInt64() {
		e.int(v.Int64())
		return
	}
	// Two's complement over enough bytes to hold the sign bit.
	n := v.BitLen()/8 + 1
	x := new(big.Int).Set(v)
	if x.Sign() < 0 {
		x.Add(x, new(big.Int).Lsh(big.NewInt(1), uint(8*n)))
	}
	be := x.FillBytes(make([]byte, n))
	le := make([]byte, n)
	for i := range be {
		le[n-1-i] = be[i]
	}
	e.long1(trimTwosComplement(le))
}

// trimTwosComplement drops redundant sign bytes from a little-endian
// two's complement integer.
func trimTwosComplement(b []byte) []byte {
	for len(b) > 1 {
		last, prev := b[len(b)-1], b[len(b)-2]
		if (last == 0x00 && prev&0x80 == 0) || (last == 0xff && prev&0x80 != 0) {
			b = b[:len(b)-1]
			continue
		}
		break
	}
	return b
}

func (e *encoder) long1(le []byte) {
	e.buf.WriteByte(opLong1)
	e.buf.WriteByte(byte(len(le)))
	e.buf.Write(le)
}

func (e *encoder) float(v float64) {
	e.buf.WriteByte(opBinFloat)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	e.buf.Write(b[:])
}

func (e *encoder) unicode(s string) {
	e.buf.WriteByte(opBinUnicode)
	e.uint32(uint32(len(s)))
	e.buf.WriteString(s)
}

// bytes has no protocol 2 opcode; Python 3 pickles it as
// _codecs.encode(<latin-1 text>, "latin1").
func (e *encoder) bytes(b []byte) error {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	e.global(&Global{Module: "_codecs", Name: "encode"})
	e.unicode(string(runes))
	e.unicode("latin1")
	e.buf.WriteByte(opTuple2)
	e.buf.WriteByte(opReduce)
	return nil
}

func (e *encoder) global(g *Global) {
	e.buf.WriteByte(opGlobal)
	e.buf.WriteString(g.Module)
	e.buf.WriteByte('\n')
	e.buf.WriteString(g.Name)
	e.buf.WriteByte('\n')
}

func (e *encoder) tuple(items []interface{}) error {
	switch len(items) {
	case 0:
		e.buf.WriteByte(opEmptyTuple)
		return nil
	case 1, 2, 3:
		for _, item := range items {
			if err := e.encode(item); err != nil {
				return err
			}
		}
		e.buf.WriteByte([]byte{opTuple1, opTuple2, opTuple3}[len(items)-1])
		return nil
	}
	e.buf.WriteByte(opMark)
	for _, item := range items {
		if err := e.encode(item); err != nil {
			return err
		}
	}
	e.buf.WriteByte(opTuple)
	return nil
}

func (e *encoder) appends(items []interface{}) error {
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		e.buf.WriteByte(opMark)
		for _, item := range items[start:end] {
			if err := e.encode(item); err != nil {
				return err
			}
		}
		e.buf.WriteByte(opAppends)
	}
	return nil
}

func (e *encoder) setItems(entries []types.DictEntry) error {
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		e.buf.WriteByte(opMark)
		for _, entry := range entries[start:end] {
			if err := e.encode(entry.Key); err != nil {
				return err
			}
			if err := e.encode(entry.Value); err != nil {
				return err
			}
		}
		e.buf.WriteByte(opSetItems)
	}
	return nil
}

func (e *encoder) orderedDict(d *types.OrderedDict) error {
	e.global(&Global{Module: "collections", Name: "OrderedDict"})
	e.buf.WriteByte(opEmptyTuple)
	e.buf.WriteByte(opReduce)
	e.put(d)

	entries := make([]types.DictEntry, 0, d.Len())
	for el := d.List.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*types.OrderedDictEntry)
		entries = append(entries, types.DictEntry{Key: entry.Key, Value: entry.Value})
	}
	if err := e.setItems(entries); err != nil {
		return err
	}

	if len(d.PyDict) == 0 {
		return nil
	}
	// Instance attributes such as _metadata travel as BUILD state.
	keys := make([]string, 0, len(d.PyDict))
	for k := range d.PyDict {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	state := make([]types.DictEntry, 0, len(keys))
	for _, k := range keys {
		state = append(state, types.DictEntry{Key: k, Value: d.PyDict[k]})
	}
	e.buf.WriteByte(opEmptyDict)
	if err := e.setItems(state); err != nil {
		return err
	}
	e.buf.WriteByte(opBuild)
	return nil
}

func (e *encoder) reduction(r *Reduction) error {
	e.global(r.Func)
	if err := e.tuple(r.Args); err != nil {
		return err
	}
	if r.NewObj {
		e.buf.WriteByte(opNewObj)
	} else {
		e.buf.WriteByte(opReduce)
	}
	e.put(r)

	if len(r.ListItems) > 0 {
		if err := e.appends(r.ListItems); err != nil {
			return err
		}
	}
	if len(r.DictItems) > 0 {
		if err := e.setItems(r.DictItems); err != nil {
			return err
		}
	}
	if r.HasState {
		if err := e.encode(r.State); err != nil {
			return err
		}
		e.buf.WriteByte(opBuild)
	}
	return nil
}
