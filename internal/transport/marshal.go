package transport

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// scalarSize returns the on-wire byte width of a scalar reflect.Kind, or
// (0, false) if kind is not one of the accepted scalar types.
func scalarSize(kind reflect.Kind) (int, bool) {
	switch kind {
	case reflect.Bool, reflect.Uint8, reflect.Int8:
		return 1, true
	case reflect.Uint16, reflect.Int16:
		return 2, true
	case reflect.Uint32, reflect.Int32, reflect.Float32:
		return 4, true
	case reflect.Uint64, reflect.Int64, reflect.Float64:
		return 8, true
	}
	return 0, false
}

// encodedSize returns the number of wire bytes v would occupy, following the
// same type-acceptance rules as writeValue, without writing anything.
func encodedSize(v reflect.Value) (int, error) {
	if n, ok := scalarSize(v.Kind()); ok {
		return n, nil
	}
	switch v.Kind() {
	case reflect.Array, reflect.Slice:
		n := v.Len()
		if n == 0 {
			return 0, ErrEmptyArray
		}
		elemSize, ok := scalarSize(v.Type().Elem().Kind())
		if !ok {
			return 0, fmt.Errorf("%w: array element type %s", ErrMultiDimensional, v.Type().Elem())
		}
		return n * elemSize, nil
	case reflect.Struct:
		total := 0
		for i := 0; i < v.NumField(); i++ {
			n, err := encodedSize(v.Field(i))
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
}

// writeValue serializes v into buf starting at idx, little-endian, and
// returns the index immediately past the written bytes.
func writeValue(buf []byte, idx int, v reflect.Value) (int, error) {
	if size, ok := scalarSize(v.Kind()); ok {
		if idx+size > len(buf) {
			return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, size, idx, len(buf))
		}
		putScalar(buf[idx:idx+size], v)
		return idx + size, nil
	}
	switch v.Kind() {
	case reflect.Array, reflect.Slice:
		n := v.Len()
		if n == 0 {
			return 0, ErrEmptyArray
		}
		if _, ok := scalarSize(v.Type().Elem().Kind()); !ok {
			return 0, fmt.Errorf("%w: array element type %s", ErrMultiDimensional, v.Type().Elem())
		}
		for i := 0; i < n; i++ {
			var err error
			idx, err = writeValue(buf, idx, v.Index(i))
			if err != nil {
				return 0, err
			}
		}
		return idx, nil
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			var err error
			idx, err = writeValue(buf, idx, v.Field(i))
			if err != nil {
				return 0, err
			}
		}
		return idx, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
}

// readValue deserializes from buf starting at idx into the addressable value
// v, little-endian, and returns the index immediately past the consumed
// bytes.
func readValue(buf []byte, idx int, v reflect.Value) (int, error) {
	if size, ok := scalarSize(v.Kind()); ok {
		if idx+size > len(buf) {
			return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferTooSmall, size, idx, len(buf))
		}
		getScalar(buf[idx:idx+size], v)
		return idx + size, nil
	}
	switch v.Kind() {
	case reflect.Array:
		n := v.Len()
		if n == 0 {
			return 0, ErrEmptyArray
		}
		if _, ok := scalarSize(v.Type().Elem().Kind()); !ok {
			return 0, fmt.Errorf("%w: array element type %s", ErrMultiDimensional, v.Type().Elem())
		}
		for i := 0; i < n; i++ {
			var err error
			idx, err = readValue(buf, idx, v.Index(i))
			if err != nil {
				return 0, err
			}
		}
		return idx, nil
	case reflect.Slice:
		n := v.Len()
		if n == 0 {
			return 0, ErrEmptyArray
		}
		if _, ok := scalarSize(v.Type().Elem().Kind()); !ok {
			return 0, fmt.Errorf("%w: array element type %s", ErrMultiDimensional, v.Type().Elem())
		}
		for i := 0; i < n; i++ {
			var err error
			idx, err = readValue(buf, idx, v.Index(i))
			if err != nil {
				return 0, err
			}
		}
		return idx, nil
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			var err error
			idx, err = readValue(buf, idx, v.Field(i))
			if err != nil {
				return 0, err
			}
		}
		return idx, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
}

func putScalar(dst []byte, v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
	case reflect.Uint8:
		dst[0] = byte(v.Uint())
	case reflect.Int8:
		dst[0] = byte(int8(v.Int()))
	case reflect.Uint16:
		binary.LittleEndian.PutUint16(dst, uint16(v.Uint()))
	case reflect.Int16:
		binary.LittleEndian.PutUint16(dst, uint16(int16(v.Int())))
	case reflect.Uint32:
		binary.LittleEndian.PutUint32(dst, uint32(v.Uint()))
	case reflect.Int32:
		binary.LittleEndian.PutUint32(dst, uint32(int32(v.Int())))
	case reflect.Float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v.Float())))
	case reflect.Uint64:
		binary.LittleEndian.PutUint64(dst, v.Uint())
	case reflect.Int64:
		binary.LittleEndian.PutUint64(dst, uint64(v.Int()))
	case reflect.Float64:
		binary.LittleEndian.PutUint64(dst, math.Float64bits(v.Float()))
	}
}

func getScalar(src []byte, v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		v.SetBool(src[0] != 0)
	case reflect.Uint8:
		v.SetUint(uint64(src[0]))
	case reflect.Int8:
		v.SetInt(int64(int8(src[0])))
	case reflect.Uint16:
		v.SetUint(uint64(binary.LittleEndian.Uint16(src)))
	case reflect.Int16:
		v.SetInt(int64(int16(binary.LittleEndian.Uint16(src))))
	case reflect.Uint32:
		v.SetUint(uint64(binary.LittleEndian.Uint32(src)))
	case reflect.Int32:
		v.SetInt(int64(int32(binary.LittleEndian.Uint32(src))))
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(src))))
	case reflect.Uint64:
		v.SetUint(binary.LittleEndian.Uint64(src))
	case reflect.Int64:
		v.SetInt(int64(binary.LittleEndian.Uint64(src)))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(src)))
	}
}
