// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	uuid "github.com/google/uuid"
)

// IDType is the kind of identifier stored in a NodeID.
type IDType byte

// IDTypes
const (
	IDTypeNumeric IDType = iota
	IDTypeString
	IDTypeGUID
	IDTypeOpaque
)

// NodeID identifies a Node. NodeIDs are comparable, so they may be used as map keys.
type NodeID struct {
	namespaceIndex uint16
	idType         IDType
	nid            uint32
	sid            string
	gid            uuid.UUID
	bid            ByteString
}

// NewNodeIDNumeric constructs a new NodeID of numeric type.
func NewNodeIDNumeric(namespaceIndex uint16, identifier uint32) NodeID {
	return NodeID{namespaceIndex: namespaceIndex, idType: IDTypeNumeric, nid: identifier}
}

// NewNodeIDString constructs a new NodeID of string type.
func NewNodeIDString(namespaceIndex uint16, identifier string) NodeID {
	return NodeID{namespaceIndex: namespaceIndex, idType: IDTypeString, sid: identifier}
}

// NewNodeIDGUID constructs a new NodeID of GUID type.
func NewNodeIDGUID(namespaceIndex uint16, identifier uuid.UUID) NodeID {
	return NodeID{namespaceIndex: namespaceIndex, idType: IDTypeGUID, gid: identifier}
}

// NewNodeIDOpaque constructs a new NodeID of opaque type.
func NewNodeIDOpaque(namespaceIndex uint16, identifier ByteString) NodeID {
	return NodeID{namespaceIndex: namespaceIndex, idType: IDTypeOpaque, bid: identifier}
}

// NilNodeID is the nil value.
var NilNodeID = NodeID{}

// NamespaceIndex returns the namespace index.
func (n NodeID) NamespaceIndex() uint16 {
	return n.namespaceIndex
}

// IDType returns the identifier type.
func (n NodeID) IDType() IDType {
	return n.idType
}

// Identifier returns the identifier.
func (n NodeID) Identifier() any {
	switch n.idType {
	case IDTypeNumeric:
		return n.nid
	case IDTypeString:
		return n.sid
	case IDTypeGUID:
		return n.gid
	case IDTypeOpaque:
		return n.bid
	}
	return nil
}

// WithNamespaceIndex returns a copy of the NodeID in another namespace.
func (n NodeID) WithNamespaceIndex(ns uint16) NodeID {
	n.namespaceIndex = ns
	return n
}

// IsNil returns true if the nodeId is nil
func (n NodeID) IsNil() bool {
	if n.namespaceIndex > 0 {
		return false
	}
	switch n.idType {
	case IDTypeNumeric:
		return n.nid == 0
	case IDTypeString:
		return len(n.sid) == 0
	case IDTypeGUID:
		return n.gid == uuid.Nil
	case IDTypeOpaque:
		return len(n.bid) == 0
	}
	return false
}

// IsAutoAssign returns true if the nodeId asks the server to assign the identifier,
// i.e. a numeric identifier of 0 in any namespace.
func (n NodeID) IsAutoAssign() bool {
	return n.idType == IDTypeNumeric && n.nid == 0
}

// IsValid returns true if the nodeId is valid
func (n NodeID) IsValid() bool {
	switch n.idType {
	case IDTypeNumeric:
		return n.nid != 0
	case IDTypeString:
		return len(n.sid) <= 4096 && len(n.sid) > 0
	case IDTypeGUID:
		return n.gid != uuid.Nil
	case IDTypeOpaque:
		return len(n.bid) <= 4096 && len(n.bid) > 0
	}
	return false
}

// ParseNodeID returns a NodeID from a string representation.
//   - ParseNodeID("i=85") // integer, assumes ns=0
//   - ParseNodeID("ns=2;s=Demo.Static.Scalar.Float") // string
//   - ParseNodeID("ns=2;g=5ce9dbce-5d79-434c-9ac3-1cfba9a6e92c") // guid
//   - ParseNodeID("ns=2;b=YWJjZA==") // opaque byte string
func ParseNodeID(s string) NodeID {
	var ns uint64
	var err error
	if strings.HasPrefix(s, "ns=") {
		var pos = strings.Index(s, ";")
		if pos == -1 {
			return NilNodeID
		}
		ns, err = strconv.ParseUint(s[3:pos], 10, 16)
		if err != nil {
			return NilNodeID
		}
		s = s[pos+1:]
	}
	switch {
	case strings.HasPrefix(s, "i="):
		var id, err = strconv.ParseUint(s[2:], 10, 32)
		if err != nil {
			return NilNodeID
		}
		return NewNodeIDNumeric(uint16(ns), uint32(id))
	case strings.HasPrefix(s, "s="):
		return NewNodeIDString(uint16(ns), s[2:])
	case strings.HasPrefix(s, "g="):
		var id, err = uuid.Parse(s[2:])
		if err != nil {
			return NilNodeID
		}
		return NewNodeIDGUID(uint16(ns), id)
	case strings.HasPrefix(s, "b="):
		var id, err = base64.StdEncoding.DecodeString(s[2:])
		if err != nil {
			return NilNodeID
		}
		return NewNodeIDOpaque(uint16(ns), ByteString(id))
	}
	return NilNodeID
}

// String returns a string representation of the NodeID, e.g. "ns=2;s=Demo"
func (n NodeID) String() string {
	var id string
	switch n.idType {
	case IDTypeNumeric:
		id = fmt.Sprintf("i=%d", n.nid)
	case IDTypeString:
		id = "s=" + n.sid
	case IDTypeGUID:
		id = "g=" + n.gid.String()
	case IDTypeOpaque:
		id = "b=" + base64.StdEncoding.EncodeToString([]byte(n.bid))
	default:
		return ""
	}
	if n.namespaceIndex > 0 {
		return fmt.Sprintf("ns=%d;%s", n.namespaceIndex, id)
	}
	return id
}

// MarshalText returns the string representation.
func (n NodeID) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText parses the string representation.
func (n *NodeID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*n = NilNodeID
		return nil
	}
	id := ParseNodeID(string(text))
	if id.IsNil() && string(text) != "i=0" {
		return BadNodeIDInvalid
	}
	*n = id
	return nil
}
