package resp

import (
	"fmt"
	"strings"
)

// MakeSimpleString construct SimpleString Value from string
func MakeSimpleString(s string) Value {
	return Value{
		Type:   TypeSimpleString,
		String: []byte(s),
	}
}

// MakeError constructs an Error Value, prefixed with the generic "ERR" tag
// used by every command-level error unless a more specific prefix applies.
func MakeError(s string) Value {
	return MakeErrorWithPrefix("ERR", s)
}

// MakeErrorWithPrefix constructs an Error Value with an explicit prefix
// (e.g. "WRONGTYPE", "NOSCRIPT") ahead of the message.
func MakeErrorWithPrefix(prefix, s string) Value {
	return Value{
		Type:   TypeError,
		String: []byte(prefix + " " + s),
	}
}

// MakeErrorWrongNumberOfArguments construct Error Value that command had wrong number of arguments for command
func MakeErrorWrongNumberOfArguments(cmd string) Value {
	return MakeError(fmt.Sprintf("wrong number of arguments for '%s' command", strings.ToLower(cmd)))
}

// MakeBulkString construct BulkString Value from string
func MakeBulkString(s string) Value {
	return Value{
		Type:   TypeBulkString,
		String: []byte(s),
	}
}

// MakeNilBulkString construct nil BulkSting Value
func MakeNilBulkString() Value {
	return Value{
		Type:   TypeBulkString,
		IsNull: true,
	}
}

// MakeInteger construct Integer Value from int64
func MakeInteger(n int64) Value {
	return Value{
		Type:    TypeInteger,
		Integer: n,
	}
}

// MakeArray creates a standard RESP array containing the provided elements
func MakeArray(values []Value) Value {
	return Value{
		Type:  TypeArray,
		Array: values,
	}
}

// MakeNilArray constructs a null array (*-1), used for EXEC on an aborted
// or dirty transaction.
func MakeNilArray() Value {
	return Value{
		Type:   TypeArray,
		IsNull: true,
	}
}
