package evaluator

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/podhmo/monkey/object"
)

var builtins = map[string]*object.Builtin{
	"len": {
		Name: "len",
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			if len(args) != 1 {
				return ctx.NewError("wrong number of arguments. got=%d, want=1", len(args))
			}
			switch arg := args[0].(type) {
			case *object.Array:
				return &object.Integer{Value: int64(len(arg.Elements))}
			case *object.String:
				return &object.Integer{Value: int64(utf8.RuneCountInString(arg.Value))}
			default:
				return ctx.NewError("argument to %q not supported, got %s", "len", args[0].Type())
			}
		},
	},
	"first": {
		Name: "first",
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			arr, errObj := arrayArgument(ctx, "first", 1, args)
			if errObj != nil {
				return errObj
			}
			if len(arr.Elements) > 0 {
				return arr.Elements[0]
			}
			return object.NULL
		},
	},
	"last": {
		Name: "last",
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			arr, errObj := arrayArgument(ctx, "last", 1, args)
			if errObj != nil {
				return errObj
			}
			if n := len(arr.Elements); n > 0 {
				return arr.Elements[n-1]
			}
			return object.NULL
		},
	},
	"rest": {
		Name: "rest",
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			arr, errObj := arrayArgument(ctx, "rest", 1, args)
			if errObj != nil {
				return errObj
			}
			n := len(arr.Elements)
			if n == 0 {
				return object.NULL
			}
			newElements := make([]object.Object, n-1)
			copy(newElements, arr.Elements[1:])
			return &object.Array{Elements: newElements}
		},
	},
	"push": {
		Name: "push",
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			arr, errObj := arrayArgument(ctx, "push", 2, args)
			if errObj != nil {
				return errObj
			}
			n := len(arr.Elements)
			newElements := make([]object.Object, n+1)
			copy(newElements, arr.Elements)
			newElements[n] = args[1]
			return &object.Array{Elements: newElements}
		},
	},
	"puts": {
		Name: "puts",
		Fn: func(ctx *object.BuiltinContext, args ...object.Object) object.Object {
			for _, arg := range args {
				fmt.Fprintln(ctx.Stdout, arg.Inspect())
			}
			return object.NULL
		},
	},
}

// arrayArgument checks the arity of a builtin whose first argument must be an array.
func arrayArgument(ctx *object.BuiltinContext, name string, want int, args []object.Object) (*object.Array, *object.Error) {
	if len(args) != want {
		return nil, ctx.NewError("wrong number of arguments. got=%d, want=%d", len(args), want)
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, ctx.NewError("argument to %q must be ARRAY, got %s", name, args[0].Type())
	}
	return arr, nil
}

// Builtins returns the sorted names of the built-in functions.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
