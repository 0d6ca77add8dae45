// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Code classifies a revert.
type Code uint8

const (
	OrderingViolation Code = iota + 1
	InsufficientUnlockedBalance
	InsufficientLockedBalance
	InsufficientAssetBalance
	NotYetMatured
	NotBoxHolder
	AlreadyReleased
	StaleTimestamp
	Unauthorized
	InvalidArgument
)

var codeNames = map[Code]string{
	OrderingViolation:           "ordering violation",
	InsufficientUnlockedBalance: "insufficient unlocked balance",
	InsufficientLockedBalance:   "insufficient locked balance",
	InsufficientAssetBalance:    "insufficient asset balance",
	NotYetMatured:               "not yet matured",
	NotBoxHolder:                "not box holder",
	AlreadyReleased:             "already released",
	StaleTimestamp:              "stale timestamp",
	Unauthorized:                "unauthorized",
	InvalidArgument:             "invalid argument",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", uint8(c))
}

// ErrRevert is a caller-visible rejection. The operation that returned it left no effect.
type ErrRevert struct {
	Code    Code
	message string
}

func New(code Code, message string) *ErrRevert {
	return &ErrRevert{
		Code:    code,
		message: message,
	}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) *ErrRevert {
	return New(code, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Reason returns the human readable reason.
func (e *ErrRevert) Reason() string {
	return e.message
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// Is reports whether err is a revert carrying code.
func Is(err error, code Code) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// CodeOf returns the revert code of err, or zero when err is not a revert.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Code
	}
	return 0
}
