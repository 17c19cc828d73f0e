// Copyright 2020 Converter Systems LLC. All rights reserved.

package uatree

import (
	"github.com/awcullen/uatree/ua"
	"github.com/google/uuid"
	gua "github.com/gopcua/opcua/ua"
)

// Both packages print and parse node ids in the "ns=2;s=Demo" form.
func toOpcuaNodeID(n ua.NodeID) *gua.NodeID {
	if n.IsNil() {
		return gua.NewTwoByteNodeID(0)
	}
	id, err := gua.ParseNodeID(n.String())
	if err != nil {
		return gua.NewTwoByteNodeID(0)
	}
	return id
}

func fromOpcuaNodeID(n *gua.NodeID) ua.NodeID {
	if n == nil {
		return ua.NilNodeID
	}
	return ua.ParseNodeID(n.String())
}

// toOpcuaVariant converts the value types that differ between the packages.
// Values of builtin Go types are passed as is.
func toOpcuaVariant(value ua.Variant) (*gua.Variant, error) {
	if _, _, ok := ua.VariantTypeOf(value); !ok {
		return nil, ua.BadTypeMismatch
	}
	switch v := value.(type) {
	case ua.ByteString:
		value = []byte(v)
	case []ua.ByteString:
		bs := make([][]byte, len(v))
		for i, b := range v {
			bs[i] = []byte(b)
		}
		value = bs
	case ua.NodeID:
		value = toOpcuaNodeID(v)
	case ua.QualifiedName:
		value = &gua.QualifiedName{NamespaceIndex: v.NamespaceIndex, Name: v.Name}
	case ua.LocalizedText:
		// the locale is not carried.
		value = gua.NewLocalizedText(v.Text)
	case uuid.UUID:
		value = gua.NewGUID(v.String())
	case ua.StatusCode:
		value = gua.StatusCode(v)
	case ua.XMLElement:
		value = gua.XMLElement(v)
	}
	res, err := gua.NewVariant(value)
	if err != nil {
		return nil, ua.BadTypeMismatch
	}
	return res, nil
}

func fromOpcuaVariant(v *gua.Variant) ua.Variant {
	if v == nil {
		return nil
	}
	switch x := v.Value().(type) {
	case []byte:
		return ua.ByteString(x)
	case [][]byte:
		bs := make([]ua.ByteString, len(x))
		for i, b := range x {
			bs[i] = ua.ByteString(b)
		}
		return bs
	case *gua.NodeID:
		return fromOpcuaNodeID(x)
	case *gua.QualifiedName:
		return ua.NewQualifiedName(x.NamespaceIndex, x.Name)
	case *gua.LocalizedText:
		return ua.NewLocalizedText(x.Text, x.Locale)
	case *gua.GUID:
		id, err := uuid.Parse(x.String())
		if err != nil {
			return nil
		}
		return id
	case gua.StatusCode:
		return ua.StatusCode(x)
	case gua.XMLElement:
		return ua.XMLElement(x)
	default:
		return x
	}
}

func fromOpcuaDataValue(dv *gua.DataValue) ua.DataValue {
	if dv == nil {
		return ua.DataValue{StatusCode: ua.BadNoData}
	}
	return ua.NewDataValue(fromOpcuaVariant(dv.Value), ua.StatusCode(dv.Status), dv.SourceTimestamp, dv.SourcePicoseconds, dv.ServerTimestamp, dv.ServerPicoseconds)
}
