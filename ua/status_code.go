// Copyright 2021 Converter Systems LLC. All rights reserved.

package ua

import "fmt"

// StatusCode is the result of the service or operation.
type StatusCode uint32

// Error implements error interface.
func (c StatusCode) Error() string {
	if s, ok := statusCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}

// IsGood returns true if the StatusCode is good.
func (c StatusCode) IsGood() bool {
	return (uint32(c) & SeverityMask) == SeverityGood
}

// IsBad returns true if the StatusCode is bad.
func (c StatusCode) IsBad() bool {
	return (uint32(c) & SeverityMask) == SeverityBad
}

// IsUncertain returns true if the StatusCode is uncertain.
func (c StatusCode) IsUncertain() bool {
	return (uint32(c) & SeverityMask) == SeverityUncertain
}

// IsStructureChanged returns true if the structure is changed.
func (c StatusCode) IsStructureChanged() bool {
	return (uint32(c)&InfoTypeMask) == InfoTypeDataValue && (uint32(c)&StructureChanged) != 0
}

// Severity masks
const (
	SeverityMask      uint32 = 0xC0000000
	SeverityGood      uint32 = 0x00000000
	SeverityUncertain uint32 = 0x40000000
	SeverityBad       uint32 = 0x80000000
	InfoTypeMask      uint32 = 0x00000C00
	InfoTypeDataValue uint32 = 0x00000400
	StructureChanged  uint32 = 0x00008000
)

// StatusCodes
const (
	Good                           StatusCode = 0x00000000
	Uncertain                      StatusCode = 0x40000000
	Bad                            StatusCode = 0x80000000
	BadUnexpectedError             StatusCode = 0x80010000
	BadInternalError               StatusCode = 0x80020000
	BadOutOfMemory                 StatusCode = 0x80030000
	BadResourceUnavailable         StatusCode = 0x80040000
	BadCommunicationError          StatusCode = 0x80050000
	BadEncodingError               StatusCode = 0x80060000
	BadDecodingError               StatusCode = 0x80070000
	BadTimeout                     StatusCode = 0x800A0000
	BadServiceUnsupported          StatusCode = 0x800B0000
	BadShutdown                    StatusCode = 0x800C0000
	BadServerNotConnected          StatusCode = 0x800D0000
	BadServerHalted                StatusCode = 0x800E0000
	BadNothingToDo                 StatusCode = 0x800F0000
	BadTooManyOperations           StatusCode = 0x80100000
	BadUserAccessDenied            StatusCode = 0x801F0000
	BadTimestampsToReturnInvalid   StatusCode = 0x802B0000
	BadNodeIDInvalid               StatusCode = 0x80330000
	BadNodeIDUnknown               StatusCode = 0x80340000
	BadAttributeIDInvalid          StatusCode = 0x80350000
	BadIndexRangeInvalid           StatusCode = 0x80360000
	BadDataEncodingUnsupported     StatusCode = 0x80390000
	BadNotReadable                 StatusCode = 0x803A0000
	BadNotWritable                 StatusCode = 0x803B0000
	BadOutOfRange                  StatusCode = 0x803C0000
	BadNotSupported                StatusCode = 0x803D0000
	BadNotFound                    StatusCode = 0x803E0000
	BadContinuationPointInvalid    StatusCode = 0x804A0000
	BadParentNodeIDInvalid         StatusCode = 0x805B0000
	BadReferenceNotAllowed         StatusCode = 0x805C0000
	BadNodeIDRejected              StatusCode = 0x805D0000
	BadNodeIDExists                StatusCode = 0x805E0000
	BadNodeClassInvalid            StatusCode = 0x805F0000
	BadBrowseNameInvalid           StatusCode = 0x80600000
	BadBrowseNameDuplicated        StatusCode = 0x80610000
	BadNoMatch                     StatusCode = 0x806F0000
	BadHistoryOperationInvalid     StatusCode = 0x80710000
	BadHistoryOperationUnsupported StatusCode = 0x80720000
	BadWriteNotSupported           StatusCode = 0x80730000
	BadTypeMismatch                StatusCode = 0x80740000
	BadNotConnected                StatusCode = 0x808A0000
	BadEntryExists                 StatusCode = 0x809F0000
	BadNoEntryExists               StatusCode = 0x80A00000
	BadInvalidArgument             StatusCode = 0x80AB0000
	BadConnectionClosed            StatusCode = 0x80AE0000
	BadInvalidState                StatusCode = 0x80AF0000
	BadNoData                      StatusCode = 0x809B0000
	BadInvalidTimestampArgument    StatusCode = 0x80BD0000
	BadBoundNotFound               StatusCode = 0x80D70000
	BadBoundNotSupported           StatusCode = 0x80D80000
	GoodEntryInserted              StatusCode = 0x00A20000
	GoodEntryReplaced              StatusCode = 0x00A30000
	GoodNoData                     StatusCode = 0x00A50000
	GoodMoreData                   StatusCode = 0x00A60000
)

var statusCodeNames = map[StatusCode]string{
	Good:                           "Good",
	Uncertain:                      "Uncertain",
	Bad:                            "Bad",
	BadUnexpectedError:             "BadUnexpectedError",
	BadInternalError:               "BadInternalError",
	BadOutOfMemory:                 "BadOutOfMemory",
	BadResourceUnavailable:         "BadResourceUnavailable",
	BadCommunicationError:          "BadCommunicationError",
	BadEncodingError:               "BadEncodingError",
	BadDecodingError:               "BadDecodingError",
	BadTimeout:                     "BadTimeout",
	BadServiceUnsupported:          "BadServiceUnsupported",
	BadShutdown:                    "BadShutdown",
	BadServerNotConnected:          "BadServerNotConnected",
	BadServerHalted:                "BadServerHalted",
	BadNothingToDo:                 "BadNothingToDo",
	BadTooManyOperations:           "BadTooManyOperations",
	BadUserAccessDenied:            "BadUserAccessDenied",
	BadTimestampsToReturnInvalid:   "BadTimestampsToReturnInvalid",
	BadNodeIDInvalid:               "BadNodeIdInvalid",
	BadNodeIDUnknown:               "BadNodeIdUnknown",
	BadAttributeIDInvalid:          "BadAttributeIdInvalid",
	BadIndexRangeInvalid:           "BadIndexRangeInvalid",
	BadDataEncodingUnsupported:     "BadDataEncodingUnsupported",
	BadNotReadable:                 "BadNotReadable",
	BadNotWritable:                 "BadNotWritable",
	BadOutOfRange:                  "BadOutOfRange",
	BadNotSupported:                "BadNotSupported",
	BadNotFound:                    "BadNotFound",
	BadContinuationPointInvalid:    "BadContinuationPointInvalid",
	BadParentNodeIDInvalid:         "BadParentNodeIdInvalid",
	BadReferenceNotAllowed:         "BadReferenceNotAllowed",
	BadNodeIDRejected:              "BadNodeIdRejected",
	BadNodeIDExists:                "BadNodeIdExists",
	BadNodeClassInvalid:            "BadNodeClassInvalid",
	BadBrowseNameInvalid:           "BadBrowseNameInvalid",
	BadBrowseNameDuplicated:        "BadBrowseNameDuplicated",
	BadNoMatch:                     "BadNoMatch",
	BadHistoryOperationInvalid:     "BadHistoryOperationInvalid",
	BadHistoryOperationUnsupported: "BadHistoryOperationUnsupported",
	BadWriteNotSupported:           "BadWriteNotSupported",
	BadTypeMismatch:                "BadTypeMismatch",
	BadNotConnected:                "BadNotConnected",
	BadEntryExists:                 "BadEntryExists",
	BadNoEntryExists:               "BadNoEntryExists",
	BadInvalidArgument:             "BadInvalidArgument",
	BadConnectionClosed:            "BadConnectionClosed",
	BadInvalidState:                "BadInvalidState",
	BadNoData:                      "BadNoData",
	BadInvalidTimestampArgument:    "BadInvalidTimestampArgument",
	BadBoundNotFound:               "BadBoundNotFound",
	BadBoundNotSupported:           "BadBoundNotSupported",
	GoodEntryInserted:              "GoodEntryInserted",
	GoodEntryReplaced:              "GoodEntryReplaced",
	GoodNoData:                     "GoodNoData",
	GoodMoreData:                   "GoodMoreData",
}
