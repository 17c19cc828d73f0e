// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import "time"

// TimestampsToReturn selects the timestamps returned with a value.
type TimestampsToReturn int32

// TimestampsToReturn enumeration
const (
	TimestampsToReturnSource  TimestampsToReturn = 0
	TimestampsToReturnServer  TimestampsToReturn = 1
	TimestampsToReturnBoth    TimestampsToReturn = 2
	TimestampsToReturnNeither TimestampsToReturn = 3
	TimestampsToReturnInvalid TimestampsToReturn = 4
)

// PerformUpdateType selects the kind of history update.
type PerformUpdateType int32

// PerformUpdateType enumeration
const (
	PerformUpdateTypeInsert  PerformUpdateType = 1
	PerformUpdateTypeReplace PerformUpdateType = 2
	PerformUpdateTypeUpdate  PerformUpdateType = 3
	PerformUpdateTypeRemove  PerformUpdateType = 4
)

// ReadRawModifiedDetails selects raw values between StartTime and EndTime.
type ReadRawModifiedDetails struct {
	IsReadModified   bool
	StartTime        time.Time
	EndTime          time.Time
	NumValuesPerNode uint32
	ReturnBounds     bool
}

// HistoryReadValueID names a node to read and an optional continuation point.
type HistoryReadValueID struct {
	NodeID            NodeID
	IndexRange        string
	DataEncoding      QualifiedName
	ContinuationPoint ByteString
}

// HistoryData holds the historical values of one node.
type HistoryData struct {
	DataValues []DataValue
}

// HistoryReadResult is the result of reading one node.
type HistoryReadResult struct {
	StatusCode        StatusCode
	ContinuationPoint ByteString
	HistoryData       HistoryData
}

// UpdateDataDetails inserts, replaces or updates values of one node.
type UpdateDataDetails struct {
	NodeID               NodeID
	PerformInsertReplace PerformUpdateType
	UpdateValues         []DataValue
}

// DeleteRawModifiedDetails removes the values of one node between StartTime and EndTime.
type DeleteRawModifiedDetails struct {
	NodeID           NodeID
	IsDeleteModified bool
	StartTime        time.Time
	EndTime          time.Time
}

// HistoryUpdateResult is the result of updating one node.
type HistoryUpdateResult struct {
	StatusCode       StatusCode
	OperationResults []StatusCode
}
