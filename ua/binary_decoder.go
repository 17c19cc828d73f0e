// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	uuid "github.com/google/uuid"
)

// maxArrayLength limits the length of decoded strings and arrays.
const maxArrayLength = 16 * 1024 * 1024

// BinaryDecoder decodes the UA binary protocol.
type BinaryDecoder struct {
	r  io.Reader
	bs [8]byte
}

// NewBinaryDecoder returns a new decoder that reads from an io.Reader.
func NewBinaryDecoder(r io.Reader) *BinaryDecoder {
	return &BinaryDecoder{r: r}
}

// Decode decodes the value using the UA Binary protocol. The argument must be
// a pointer to one of the builtin types, a DataValue or a Variant.
func (dec *BinaryDecoder) Decode(v any) error {
	switch val := v.(type) {
	case *bool:
		return dec.ReadBoolean(val)
	case *int8:
		return dec.ReadSByte(val)
	case *uint8:
		return dec.ReadByte(val)
	case *int16:
		return dec.ReadInt16(val)
	case *uint16:
		return dec.ReadUInt16(val)
	case *int32:
		return dec.ReadInt32(val)
	case *uint32:
		return dec.ReadUInt32(val)
	case *int64:
		return dec.ReadInt64(val)
	case *uint64:
		return dec.ReadUInt64(val)
	case *float32:
		return dec.ReadFloat(val)
	case *float64:
		return dec.ReadDouble(val)
	case *string:
		return dec.ReadString(val)
	case *time.Time:
		return dec.ReadDateTime(val)
	case *uuid.UUID:
		return dec.ReadGUID(val)
	case *ByteString:
		return dec.ReadByteString(val)
	case *XMLElement:
		return dec.ReadXMLElement(val)
	case *NodeID:
		return dec.ReadNodeID(val)
	case *StatusCode:
		return dec.ReadStatusCode(val)
	case *QualifiedName:
		return dec.ReadQualifiedName(val)
	case *LocalizedText:
		return dec.ReadLocalizedText(val)
	case *DataValue:
		return dec.ReadDataValue(val)
	case *Variant:
		return dec.ReadVariant(val)
	default:
		return BadDecodingError
	}
}

// ReadBoolean reads a boolean.
func (dec *BinaryDecoder) ReadBoolean(value *bool) error {
	if _, err := io.ReadFull(dec.r, dec.bs[:1]); err != nil {
		return BadDecodingError
	}
	*value = dec.bs[0] != 0
	return nil
}

// ReadSByte reads a sbyte.
func (dec *BinaryDecoder) ReadSByte(value *int8) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	*value = int8(b)
	return nil
}

// ReadByte reads a byte.
func (dec *BinaryDecoder) ReadByte(value *byte) error {
	if _, err := io.ReadFull(dec.r, dec.bs[:1]); err != nil {
		return BadDecodingError
	}
	*value = dec.bs[0]
	return nil
}

// ReadInt16 reads a int16.
func (dec *BinaryDecoder) ReadInt16(value *int16) error {
	var u uint16
	if err := dec.ReadUInt16(&u); err != nil {
		return err
	}
	*value = int16(u)
	return nil
}

// ReadUInt16 reads a uint16.
func (dec *BinaryDecoder) ReadUInt16(value *uint16) error {
	if _, err := io.ReadFull(dec.r, dec.bs[:2]); err != nil {
		return BadDecodingError
	}
	*value = binary.LittleEndian.Uint16(dec.bs[:2])
	return nil
}

// ReadInt32 reads a int32.
func (dec *BinaryDecoder) ReadInt32(value *int32) error {
	var u uint32
	if err := dec.ReadUInt32(&u); err != nil {
		return err
	}
	*value = int32(u)
	return nil
}

// ReadUInt32 reads a uint32.
func (dec *BinaryDecoder) ReadUInt32(value *uint32) error {
	if _, err := io.ReadFull(dec.r, dec.bs[:4]); err != nil {
		return BadDecodingError
	}
	*value = binary.LittleEndian.Uint32(dec.bs[:4])
	return nil
}

// ReadInt64 reads a int64.
func (dec *BinaryDecoder) ReadInt64(value *int64) error {
	var u uint64
	if err := dec.ReadUInt64(&u); err != nil {
		return err
	}
	*value = int64(u)
	return nil
}

// ReadUInt64 reads a uint64.
func (dec *BinaryDecoder) ReadUInt64(value *uint64) error {
	if _, err := io.ReadFull(dec.r, dec.bs[:8]); err != nil {
		return BadDecodingError
	}
	*value = binary.LittleEndian.Uint64(dec.bs[:8])
	return nil
}

// ReadFloat reads a float.
func (dec *BinaryDecoder) ReadFloat(value *float32) error {
	var u uint32
	if err := dec.ReadUInt32(&u); err != nil {
		return err
	}
	*value = math.Float32frombits(u)
	return nil
}

// ReadDouble reads a double.
func (dec *BinaryDecoder) ReadDouble(value *float64) error {
	var u uint64
	if err := dec.ReadUInt64(&u); err != nil {
		return err
	}
	*value = math.Float64frombits(u)
	return nil
}

// ReadString reads a string.
func (dec *BinaryDecoder) ReadString(value *string) error {
	var n int32
	if err := dec.ReadInt32(&n); err != nil {
		return err
	}
	if n <= 0 {
		*value = ""
		return nil
	}
	if n > maxArrayLength {
		return BadDecodingError
	}
	bs := make([]byte, n)
	if _, err := io.ReadFull(dec.r, bs); err != nil {
		return BadDecodingError
	}
	*value = string(bs)
	return nil
}

// ReadDateTime reads a date/time.
func (dec *BinaryDecoder) ReadDateTime(value *time.Time) error {
	var ticks int64
	if err := dec.ReadInt64(&ticks); err != nil {
		return err
	}
	// ticks are 100 nanosecond intervals since January 1, 1601
	if ticks <= 0 || ticks == 0x7FFFFFFFFFFFFFFF {
		*value = time.Time{}
		return nil
	}
	*value = time.Unix(ticks/10000000-11644473600, (ticks%10000000)*100).UTC()
	return nil
}

// ReadGUID reads a UUID.
func (dec *BinaryDecoder) ReadGUID(value *uuid.UUID) error {
	var bs [16]byte
	if _, err := io.ReadFull(dec.r, bs[:]); err != nil {
		return BadDecodingError
	}
	value[0], value[1], value[2], value[3] = bs[3], bs[2], bs[1], bs[0]
	value[4], value[5] = bs[5], bs[4]
	value[6], value[7] = bs[7], bs[6]
	copy(value[8:], bs[8:])
	return nil
}

// ReadByteString reads a ByteString.
func (dec *BinaryDecoder) ReadByteString(value *ByteString) error {
	var s string
	if err := dec.ReadString(&s); err != nil {
		return err
	}
	*value = ByteString(s)
	return nil
}

// ReadXMLElement reads a XmlElement.
func (dec *BinaryDecoder) ReadXMLElement(value *XMLElement) error {
	var s string
	if err := dec.ReadString(&s); err != nil {
		return err
	}
	*value = XMLElement(s)
	return nil
}

// ReadNodeID reads a NodeID.
func (dec *BinaryDecoder) ReadNodeID(value *NodeID) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	switch b {
	case 0x00:
		var id byte
		if err := dec.ReadByte(&id); err != nil {
			return err
		}
		*value = NewNodeIDNumeric(0, uint32(id))
	case 0x01:
		var ns byte
		var id uint16
		if err := dec.ReadByte(&ns); err != nil {
			return err
		}
		if err := dec.ReadUInt16(&id); err != nil {
			return err
		}
		*value = NewNodeIDNumeric(uint16(ns), uint32(id))
	case 0x02:
		var ns uint16
		var id uint32
		if err := dec.ReadUInt16(&ns); err != nil {
			return err
		}
		if err := dec.ReadUInt32(&id); err != nil {
			return err
		}
		*value = NewNodeIDNumeric(ns, id)
	case 0x03:
		var ns uint16
		var id string
		if err := dec.ReadUInt16(&ns); err != nil {
			return err
		}
		if err := dec.ReadString(&id); err != nil {
			return err
		}
		*value = NewNodeIDString(ns, id)
	case 0x04:
		var ns uint16
		var id uuid.UUID
		if err := dec.ReadUInt16(&ns); err != nil {
			return err
		}
		if err := dec.ReadGUID(&id); err != nil {
			return err
		}
		*value = NewNodeIDGUID(ns, id)
	case 0x05:
		var ns uint16
		var id ByteString
		if err := dec.ReadUInt16(&ns); err != nil {
			return err
		}
		if err := dec.ReadByteString(&id); err != nil {
			return err
		}
		*value = NewNodeIDOpaque(ns, id)
	default:
		return BadDecodingError
	}
	return nil
}

// ReadStatusCode reads a StatusCode.
func (dec *BinaryDecoder) ReadStatusCode(value *StatusCode) error {
	var u uint32
	if err := dec.ReadUInt32(&u); err != nil {
		return err
	}
	*value = StatusCode(u)
	return nil
}

// ReadQualifiedName reads a QualifiedName.
func (dec *BinaryDecoder) ReadQualifiedName(value *QualifiedName) error {
	if err := dec.ReadUInt16(&value.NamespaceIndex); err != nil {
		return err
	}
	return dec.ReadString(&value.Name)
}

// ReadLocalizedText reads a LocalizedText.
func (dec *BinaryDecoder) ReadLocalizedText(value *LocalizedText) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	*value = LocalizedText{}
	if (b & 1) != 0 {
		if err := dec.ReadString(&value.Locale); err != nil {
			return err
		}
	}
	if (b & 2) != 0 {
		if err := dec.ReadString(&value.Text); err != nil {
			return err
		}
	}
	return nil
}

// ReadDataValue reads a DataValue.
func (dec *BinaryDecoder) ReadDataValue(value *DataValue) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	*value = DataValue{}
	if (b & 1) != 0 {
		if err := dec.ReadVariant(&value.Value); err != nil {
			return err
		}
	}
	if (b & 2) != 0 {
		if err := dec.ReadStatusCode(&value.StatusCode); err != nil {
			return err
		}
	}
	if (b & 4) != 0 {
		if err := dec.ReadDateTime(&value.SourceTimestamp); err != nil {
			return err
		}
	}
	if (b & 16) != 0 {
		if err := dec.ReadUInt16(&value.SourcePicoseconds); err != nil {
			return err
		}
	}
	if (b & 8) != 0 {
		if err := dec.ReadDateTime(&value.ServerTimestamp); err != nil {
			return err
		}
	}
	if (b & 32) != 0 {
		if err := dec.ReadUInt16(&value.ServerPicoseconds); err != nil {
			return err
		}
	}
	return nil
}

// ReadVariant reads a Variant.
func (dec *BinaryDecoder) ReadVariant(value *Variant) error {
	var b byte
	if err := dec.ReadByte(&b); err != nil {
		return err
	}
	if (b & 0x40) != 0 {
		// multi-dimensional arrays are not supported.
		return BadDecodingError
	}
	t := VariantType(b & 0x3F)
	if (b & 0x80) != 0 {
		return dec.readArray(t, value)
	}
	switch t {
	case VariantTypeNull:
		*value = nil
		return nil
	case VariantTypeBoolean:
		return readScalar(dec.ReadBoolean, value)
	case VariantTypeSByte:
		return readScalar(dec.ReadSByte, value)
	case VariantTypeByte:
		return readScalar(dec.ReadByte, value)
	case VariantTypeInt16:
		return readScalar(dec.ReadInt16, value)
	case VariantTypeUInt16:
		return readScalar(dec.ReadUInt16, value)
	case VariantTypeInt32:
		return readScalar(dec.ReadInt32, value)
	case VariantTypeUInt32:
		return readScalar(dec.ReadUInt32, value)
	case VariantTypeInt64:
		return readScalar(dec.ReadInt64, value)
	case VariantTypeUInt64:
		return readScalar(dec.ReadUInt64, value)
	case VariantTypeFloat:
		return readScalar(dec.ReadFloat, value)
	case VariantTypeDouble:
		return readScalar(dec.ReadDouble, value)
	case VariantTypeString:
		return readScalar(dec.ReadString, value)
	case VariantTypeDateTime:
		return readScalar(dec.ReadDateTime, value)
	case VariantTypeGUID:
		return readScalar(dec.ReadGUID, value)
	case VariantTypeByteString:
		return readScalar(dec.ReadByteString, value)
	case VariantTypeXMLElement:
		return readScalar(dec.ReadXMLElement, value)
	case VariantTypeNodeID:
		return readScalar(dec.ReadNodeID, value)
	case VariantTypeStatusCode:
		return readScalar(dec.ReadStatusCode, value)
	case VariantTypeQualifiedName:
		return readScalar(dec.ReadQualifiedName, value)
	case VariantTypeLocalizedText:
		return readScalar(dec.ReadLocalizedText, value)
	case VariantTypeDataValue:
		return readScalar(dec.ReadDataValue, value)
	}
	return BadDecodingError
}

func (dec *BinaryDecoder) readArray(t VariantType, value *Variant) error {
	switch t {
	case VariantTypeBoolean:
		return readSlice(dec, dec.ReadBoolean, value)
	case VariantTypeSByte:
		return readSlice(dec, dec.ReadSByte, value)
	case VariantTypeByte:
		var bs ByteString
		if err := dec.ReadByteString(&bs); err != nil {
			return err
		}
		*value = []byte(bs)
		return nil
	case VariantTypeInt16:
		return readSlice(dec, dec.ReadInt16, value)
	case VariantTypeUInt16:
		return readSlice(dec, dec.ReadUInt16, value)
	case VariantTypeInt32:
		return readSlice(dec, dec.ReadInt32, value)
	case VariantTypeUInt32:
		return readSlice(dec, dec.ReadUInt32, value)
	case VariantTypeInt64:
		return readSlice(dec, dec.ReadInt64, value)
	case VariantTypeUInt64:
		return readSlice(dec, dec.ReadUInt64, value)
	case VariantTypeFloat:
		return readSlice(dec, dec.ReadFloat, value)
	case VariantTypeDouble:
		return readSlice(dec, dec.ReadDouble, value)
	case VariantTypeString:
		return readSlice(dec, dec.ReadString, value)
	case VariantTypeDateTime:
		return readSlice(dec, dec.ReadDateTime, value)
	case VariantTypeGUID:
		return readSlice(dec, dec.ReadGUID, value)
	case VariantTypeByteString:
		return readSlice(dec, dec.ReadByteString, value)
	case VariantTypeNodeID:
		return readSlice(dec, dec.ReadNodeID, value)
	case VariantTypeStatusCode:
		return readSlice(dec, dec.ReadStatusCode, value)
	case VariantTypeQualifiedName:
		return readSlice(dec, dec.ReadQualifiedName, value)
	case VariantTypeLocalizedText:
		return readSlice(dec, dec.ReadLocalizedText, value)
	}
	return BadDecodingError
}

func readScalar[T any](f func(*T) error, value *Variant) error {
	var v T
	if err := f(&v); err != nil {
		return err
	}
	*value = v
	return nil
}

func readSlice[T any](dec *BinaryDecoder, f func(*T) error, value *Variant) error {
	var n int32
	if err := dec.ReadInt32(&n); err != nil {
		return err
	}
	if n < 0 {
		*value = []T(nil)
		return nil
	}
	if n > maxArrayLength {
		return BadDecodingError
	}
	s := make([]T, n)
	for i := range s {
		if err := f(&s[i]); err != nil {
			return err
		}
	}
	*value = s
	return nil
}
