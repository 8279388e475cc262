package object

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/iancoleman/orderedmap"
	"github.com/podhmo/monkey/ast"
)

// ObjectType is a string representation of an object's type.
type ObjectType string

const (
	INTEGER_OBJ      ObjectType = "INTEGER"
	BOOLEAN_OBJ      ObjectType = "BOOLEAN"
	STRING_OBJ       ObjectType = "STRING"
	NULL_OBJ         ObjectType = "NULL"
	RETURN_VALUE_OBJ ObjectType = "RETURN_VALUE"
	ERROR_OBJ        ObjectType = "ERROR"
	FUNCTION_OBJ     ObjectType = "FUNCTION"
	BUILTIN_OBJ      ObjectType = "BUILTIN"
	ARRAY_OBJ        ObjectType = "ARRAY"
	HASH_OBJ         ObjectType = "HASH"
)

// Object is the interface that all runtime values implement.
type Object interface {
	// Type returns the type of the object.
	Type() ObjectType
	// Inspect returns the display text of the object's value.
	Inspect() string
}

// Hashable is implemented by the objects that can index a hash.
type Hashable interface {
	Object
	// HashKey returns the canonical text used to look the object up in a Hash.
	// It is the same text a hash literal records for an equal literal key.
	HashKey() string
}

// --- Integer Object ---

// Integer represents an integer value.
type Integer struct {
	Value int64
}

// Type returns the type of the Integer object.
func (i *Integer) Type() ObjectType { return INTEGER_OBJ }

// Inspect returns a string representation of the Integer's value.
func (i *Integer) Inspect() string { return fmt.Sprintf("%d", i.Value) }

// HashKey returns the hash key for an Integer.
func (i *Integer) HashKey() string { return i.Inspect() }

// --- String Object ---

// String represents a string value.
type String struct {
	Value string
}

// Type returns the type of the String object.
func (s *String) Type() ObjectType { return STRING_OBJ }

// Inspect returns the raw string value.
func (s *String) Inspect() string { return s.Value }

// HashKey returns the hash key for a String.
func (s *String) HashKey() string { return s.Value }

// --- Boolean Object ---

// Boolean represents a boolean value. Only the TRUE and FALSE instances exist.
type Boolean struct {
	Value bool
}

// Type returns the type of the Boolean object.
func (b *Boolean) Type() ObjectType { return BOOLEAN_OBJ }

// Inspect returns a string representation of the Boolean's value.
func (b *Boolean) Inspect() string { return fmt.Sprintf("%t", b.Value) }

// HashKey returns the hash key for a Boolean.
func (b *Boolean) HashKey() string { return b.Inspect() }

// --- Null Object ---

// Null represents the absence of a value. Only the NULL instance exists.
type Null struct{}

// Type returns the type of the Null object.
func (n *Null) Type() ObjectType { return NULL_OBJ }

// Inspect returns a string representation of the Null's value.
func (n *Null) Inspect() string { return "null" }

// --- Return Value Object ---

// ReturnValue wraps the value of a `return` statement while it unwinds
// through enclosing blocks. It never escapes a function call or a program.
type ReturnValue struct {
	Value Object
}

// Type returns the type of the ReturnValue object.
func (rv *ReturnValue) Type() ObjectType { return RETURN_VALUE_OBJ }

// Inspect returns a string representation of the wrapped value.
func (rv *ReturnValue) Inspect() string { return rv.Value.Inspect() }

// --- Error Object ---

// Error represents a runtime error.
type Error struct {
	Message string
}

// Type returns the type of the Error object.
func (e *Error) Type() ObjectType { return ERROR_OBJ }

// Inspect returns the error message prefixed with "ERROR: ".
func (e *Error) Inspect() string { return "ERROR: " + e.Message }

// --- Function Object ---

// Function represents a user-defined function together with the environment
// it was defined in.
type Function struct {
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Env        *Environment
}

// Type returns the type of the Function object.
func (f *Function) Type() ObjectType { return FUNCTION_OBJ }

// Inspect returns a string representation of the function.
func (f *Function) Inspect() string {
	var out bytes.Buffer

	params := []string{}
	for _, p := range f.Parameters {
		params = append(params, p.String())
	}

	out.WriteString("fn")
	out.WriteString("(")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") {\n")
	if f.Body != nil {
		out.WriteString(f.Body.String())
	}
	out.WriteString("\n}")

	return out.String()
}

// --- Builtin Object ---

// BuiltinContext provides the dependencies a built-in function may need.
type BuiltinContext struct {
	Stdout   io.Writer
	NewError func(format string, args ...any) *Error
}

// BuiltinFunction is the signature for built-in functions.
type BuiltinFunction func(ctx *BuiltinContext, args ...Object) Object

// Builtin represents a built-in function.
type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

// Type returns the type of the Builtin object.
func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }

// Inspect returns a string representation of the built-in function.
func (b *Builtin) Inspect() string { return "builtin function" }

// --- Array Object ---

// Array represents an ordered list of values.
type Array struct {
	Elements []Object
}

// Type returns the type of the Array object.
func (a *Array) Type() ObjectType { return ARRAY_OBJ }

// Inspect returns a string representation of the Array's elements.
func (a *Array) Inspect() string {
	var out bytes.Buffer

	elements := []string{}
	for _, e := range a.Elements {
		elements = append(elements, e.Inspect())
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")

	return out.String()
}

// --- Hash Object ---

// HashPair is a stored hash entry: the rendering of the original key and its value.
type HashPair struct {
	Key   string
	Value Object
}

// Hash maps canonical key text to entries, remembering insertion order.
type Hash struct {
	pairs *orderedmap.OrderedMap
}

// NewHash returns an empty Hash.
func NewHash() *Hash {
	return &Hash{pairs: orderedmap.New()}
}

// Set stores pair under key, overwriting any previous entry in place.
func (h *Hash) Set(key string, pair HashPair) {
	if h.pairs == nil {
		h.pairs = orderedmap.New()
	}
	h.pairs.Set(key, pair)
}

// Get returns the entry stored under key.
func (h *Hash) Get(key string) (HashPair, bool) {
	if h.pairs == nil {
		return HashPair{}, false
	}
	v, ok := h.pairs.Get(key)
	if !ok {
		return HashPair{}, false
	}
	pair, ok := v.(HashPair)
	return pair, ok
}

// Keys returns the canonical keys in insertion order.
func (h *Hash) Keys() []string {
	if h.pairs == nil {
		return nil
	}
	return h.pairs.Keys()
}

// Len returns the number of entries.
func (h *Hash) Len() int { return len(h.Keys()) }

// Type returns the type of the Hash object.
func (h *Hash) Type() ObjectType { return HASH_OBJ }

// Inspect returns a string representation of the Hash's pairs in insertion order.
func (h *Hash) Inspect() string {
	var out bytes.Buffer

	pairs := []string{}
	for _, key := range h.Keys() {
		pair, _ := h.Get(key)
		pairs = append(pairs, fmt.Sprintf("%s: %s", pair.Key, pair.Value.Inspect()))
	}

	out.WriteString("{")
	out.WriteString(strings.Join(pairs, ", "))
	out.WriteString("}")

	return out.String()
}

// --- Global Instances ---

// Booleans and null are interned so that equality on them can compare identity.
var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NULL  = &Null{}
)

// NativeBoolToBooleanObject returns the interned Boolean for input.
func NativeBoolToBooleanObject(input bool) *Boolean {
	if input {
		return TRUE
	}
	return FALSE
}
