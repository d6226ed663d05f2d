package ring

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Seed keys every digest computed by a ring. Seeds are random per ring, so
// digests must never be persisted or compared across rings or processes.
type Seed struct {
	v uint64
}

// NewSeed returns a fresh random seed.
func NewSeed() Seed {
	return Seed{v: rand.Uint64()}
}

// Hasher computes the position of encoded data under a seed.
type Hasher interface {
	Sum64(seed Seed, data []byte) uint64
}

// Hashable lets a type choose the bytes that place it on the ring.
type Hashable interface {
	AppendHash(b []byte) []byte
}

// xxHasher is the default hasher: xxHash64 keyed with the seed.
type xxHasher struct{}

func (xxHasher) Sum64(seed Seed, data []byte) uint64 {
	d := xxhash.NewWithSeed(seed.v)
	d.Write(data)
	return d.Sum64()
}

// Digest returns the position of v under seed using the default hasher.
func Digest(seed Seed, v any) uint64 {
	return xxHasher{}.Sum64(seed, appendValue(nil, v))
}

// appendValue appends the byte encoding of v used for hashing.
// Integers of any width are widened to 8 big-endian bytes.
func appendValue(b []byte, v any) []byte {
	switch x := v.(type) {
	case Hashable:
		return x.AppendHash(b)
	case string:
		return append(b, x...)
	case []byte:
		return append(b, x...)
	case bool:
		if x {
			return append(b, 1)
		}
		return append(b, 0)
	case int:
		return binary.BigEndian.AppendUint64(b, uint64(x))
	case int64:
		return binary.BigEndian.AppendUint64(b, uint64(x))
	case uint64:
		return binary.BigEndian.AppendUint64(b, x)
	case fmt.Stringer:
		return append(b, x.String()...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return append(b, rv.String()...)
	case reflect.Bool:
		if rv.Bool() {
			return append(b, 1)
		}
		return append(b, 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return binary.BigEndian.AppendUint64(b, uint64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return binary.BigEndian.AppendUint64(b, rv.Uint())
	case reflect.Float32:
		return binary.BigEndian.AppendUint32(b, math.Float32bits(float32(rv.Float())))
	case reflect.Float64:
		return binary.BigEndian.AppendUint64(b, math.Float64bits(rv.Float()))
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return append(b, rv.Bytes()...)
		}
	}
	return fmt.Appendf(b, "%#v", v)
}
