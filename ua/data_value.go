// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import (
	"fmt"
	"time"
)

// DataValue holds the value, quality and timestamp
type DataValue struct {
	Value             Variant
	StatusCode        StatusCode
	SourceTimestamp   time.Time
	SourcePicoseconds uint16
	ServerTimestamp   time.Time
	ServerPicoseconds uint16
}

// NewDataValue returns a new DataValue.
func NewDataValue(value Variant, statusCode StatusCode, sourceTimestamp time.Time, sourcePicoseconds uint16, serverTimestamp time.Time, serverPicoseconds uint16) DataValue {
	return DataValue{value, statusCode, sourceTimestamp, sourcePicoseconds, serverTimestamp, serverPicoseconds}
}

// String returns a summary of the value, status and source timestamp.
func (dv DataValue) String() string {
	return fmt.Sprintf("%v [%s] %s", dv.Value, dv.StatusCode.Error(), dv.SourceTimestamp.Format(time.RFC3339Nano))
}

// WithTimestamps returns a copy of the DataValue holding only the timestamps requested.
func (dv DataValue) WithTimestamps(ttr TimestampsToReturn) DataValue {
	switch ttr {
	case TimestampsToReturnSource:
		dv.ServerTimestamp, dv.ServerPicoseconds = time.Time{}, 0
	case TimestampsToReturnServer:
		dv.SourceTimestamp, dv.SourcePicoseconds = time.Time{}, 0
	case TimestampsToReturnNeither:
		dv.ServerTimestamp, dv.ServerPicoseconds = time.Time{}, 0
		dv.SourceTimestamp, dv.SourcePicoseconds = time.Time{}, 0
	}
	return dv
}
