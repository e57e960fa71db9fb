// Package statuscode carries the wire-level OPC UA result codes used by
// both halves of the stack. A StatusCode is a bare u32 bitfield that also
// implements error: the top two bits classify it (Good/Uncertain/Bad) and
// the remainder is a symbol looked up in the table below.
package statuscode

import "fmt"

// StatusCode is the 32-bit result code carried in every service response.
type StatusCode uint32

const (
	Good                     StatusCode = 0x00000000
	GoodNonCriticalTimeout   StatusCode = 0x0000CA00
	UncertainReferenceNotDeleted StatusCode = 0x40BC0000
	BadUnexpectedError       StatusCode = 0x80010000
	BadOutOfMemory           StatusCode = 0x80030000
	BadNothingToDo           StatusCode = 0x800F0000
	BadServerNotConnected    StatusCode = 0x800D0000
	BadNodeIdInvalid         StatusCode = 0x80330000
	BadNodeIdUnknown         StatusCode = 0x80340000
	BadNotImplemented        StatusCode = 0x80430000
	BadMonitoredItemIdInvalid StatusCode = 0x80420000
	BadReferenceTypeIdInvalid StatusCode = 0x80510000
	BadReferenceNotAllowed   StatusCode = 0x805A0000
	BadParentNodeIdInvalid   StatusCode = 0x805B0000
	BadTypeDefinitionInvalid StatusCode = 0x80530000
	BadSubscriptionIdInvalid StatusCode = 0x80280000
	BadNodeClassInvalid      StatusCode = 0x80610000
	BadNodeAttributesInvalid StatusCode = 0x80620000
	BadTypeMismatch          StatusCode = 0x80740000
	BadSequenceNumberUnknown StatusCode = 0x807D0000
)

var names = map[StatusCode]string{
	Good:                         "Good",
	GoodNonCriticalTimeout:       "GoodNonCriticalTimeout",
	UncertainReferenceNotDeleted: "UncertainReferenceNotDeleted",
	BadUnexpectedError:           "BadUnexpectedError",
	BadOutOfMemory:               "BadOutOfMemory",
	BadNothingToDo:               "BadNothingToDo",
	BadServerNotConnected:        "BadServerNotConnected",
	BadNodeIdInvalid:             "BadNodeIdInvalid",
	BadNodeIdUnknown:             "BadNodeIdUnknown",
	BadNotImplemented:            "BadNotImplemented",
	BadMonitoredItemIdInvalid:    "BadMonitoredItemIdInvalid",
	BadReferenceTypeIdInvalid:    "BadReferenceTypeIdInvalid",
	BadReferenceNotAllowed:       "BadReferenceNotAllowed",
	BadParentNodeIdInvalid:       "BadParentNodeIdInvalid",
	BadTypeDefinitionInvalid:     "BadTypeDefinitionInvalid",
	BadSubscriptionIdInvalid:     "BadSubscriptionIdInvalid",
	BadNodeClassInvalid:          "BadNodeClassInvalid",
	BadNodeAttributesInvalid:     "BadNodeAttributesInvalid",
	BadTypeMismatch:              "BadTypeMismatch",
	BadSequenceNumberUnknown:     "BadSequenceNumberUnknown",
}

func (s StatusCode) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("StatusCode(0x%08X)", uint32(s))
}

// Error lets a StatusCode be returned and compared through the normal
// Go error path without losing its bit-exact value.
func (s StatusCode) Error() string {
	return s.String()
}

// Severity as encoded in the top two bits of the code.
type Severity uint8

const (
	SeverityGood      Severity = 0
	SeverityUncertain Severity = 1
	SeverityBad       Severity = 2
)

func (s StatusCode) Severity() Severity {
	switch uint32(s) >> 30 {
	case 1:
		return SeverityUncertain
	case 2, 3:
		return SeverityBad
	default:
		return SeverityGood
	}
}

func (s StatusCode) IsGood() bool {
	return s.Severity() == SeverityGood
}

func (s StatusCode) IsUncertain() bool {
	return s.Severity() == SeverityUncertain
}

func (s StatusCode) IsBad() bool {
	return s.Severity() == SeverityBad
}

// FromError recovers the StatusCode carried by err, if any, defaulting to
// BadUnexpectedError for an error that did not originate from this package.
func FromError(err error) StatusCode {
	if err == nil {
		return Good
	}
	if sc, ok := err.(StatusCode); ok {
		return sc
	}
	return BadUnexpectedError
}
