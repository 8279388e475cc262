package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/podhmo/monkey/ast"
	"github.com/podhmo/monkey/internal/logging"
	"github.com/podhmo/monkey/object"
)

// DefaultMaxDepth bounds nested function calls when Config.MaxDepth is zero.
const DefaultMaxDepth = 10000

// Config holds the dependencies of an Evaluator.
type Config struct {
	Stdout   io.Writer
	Logger   *slog.Logger
	MaxDepth int
}

// Evaluator walks an AST and produces runtime objects.
// An Evaluator is not safe for concurrent use.
type Evaluator struct {
	stdout   io.Writer
	logger   *slog.Logger
	maxDepth int

	ctx   context.Context
	depth int
}

// New creates a new Evaluator.
func New(cfg Config) *Evaluator {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Evaluator{
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		maxDepth: cfg.MaxDepth,
		ctx:      context.Background(),
	}
}

// Eval evaluates node with a fresh Evaluator writing `puts` output to os.Stdout.
func Eval(node ast.Node, env *object.Environment) object.Object {
	return New(Config{}).Eval(node, env)
}

// EvalContext is like Eval but stops with an Error once ctx is done.
// Cancellation is observed at every function call.
func (e *Evaluator) EvalContext(ctx context.Context, node ast.Node, env *object.Environment) object.Object {
	prev := e.ctx
	e.ctx = ctx
	defer func() { e.ctx = prev }()
	return e.Eval(node, env)
}

func (e *Evaluator) newError(format string, args ...any) *object.Error {
	err := &object.Error{Message: fmt.Sprintf(format, args...)}
	e.logc(slog.LevelDebug, "runtime error", slog.String("error", err.Message))
	return err
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}

// Eval is the main dispatch function of the evaluator.
// It returns nil for nodes that produce no value, such as let statements.
func (e *Evaluator) Eval(node ast.Node, env *object.Environment) object.Object {
	switch node := node.(type) {
	// Statements
	case *ast.Program:
		return e.evalProgram(node, env)
	case *ast.ExpressionStatement:
		return e.Eval(node.Expression, env)
	case *ast.BlockStatement:
		return e.evalBlockStatement(node, env)
	case *ast.ReturnStatement:
		val := e.Eval(node.ReturnValue, env)
		if isError(val) {
			return val
		}
		return &object.ReturnValue{Value: val}
	case *ast.LetStatement:
		val := e.Eval(node.Value, env)
		if isError(val) {
			return val
		}
		env.Set(node.Name.Value, val)
		return nil

	// Literals
	case *ast.IntegerLiteral:
		return &object.Integer{Value: node.Value}
	case *ast.StringLiteral:
		return &object.String{Value: node.Value}
	case *ast.Boolean:
		return object.NativeBoolToBooleanObject(node.Value)
	case *ast.ArrayLiteral:
		elements := e.evalExpressions(node.Elements, env)
		if len(elements) == 1 && isError(elements[0]) {
			return elements[0]
		}
		return &object.Array{Elements: elements}
	case *ast.HashLiteral:
		return e.evalHashLiteral(node, env)
	case *ast.FunctionLiteral:
		return &object.Function{Parameters: node.Parameters, Body: node.Body, Env: env}

	// Expressions
	case *ast.Identifier:
		return e.evalIdent(node, env)
	case *ast.PrefixExpression:
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return e.evalPrefixExpression(node.Operator, right)
	case *ast.InfixExpression:
		left := e.Eval(node.Left, env)
		if isError(left) {
			return left
		}
		right := e.Eval(node.Right, env)
		if isError(right) {
			return right
		}
		return e.evalInfixExpression(node.Operator, left, right)
	case *ast.IfExpression:
		return e.evalIfElseExpression(node, env)
	case *ast.CallExpression:
		function := e.Eval(node.Function, env)
		if isError(function) {
			return function
		}
		args := e.evalExpressions(node.Arguments, env)
		if len(args) == 1 && isError(args[0]) {
			return args[0]
		}
		return e.applyFunction(function, args)
	case *ast.IndexExpression:
		left := e.Eval(node.Left, env)
		if isError(left) {
			return left
		}
		index := e.Eval(node.Index, env)
		if isError(index) {
			return index
		}
		return e.evalIndexExpression(left, index)
	}
	return e.newError("evaluation not implemented for %T", node)
}

func (e *Evaluator) evalProgram(program *ast.Program, env *object.Environment) object.Object {
	var result object.Object
	for _, statement := range program.Statements {
		result = e.Eval(statement, env)

		switch result := result.(type) {
		case *object.ReturnValue:
			return result.Value
		case *object.Error:
			return result
		}
	}
	return result
}

// evalBlockStatement evaluates a block, leaving ReturnValue wrapped so that
// enclosing blocks stop as well.
func (e *Evaluator) evalBlockStatement(block *ast.BlockStatement, env *object.Environment) object.Object {
	var result object.Object = object.NULL
	for _, statement := range block.Statements {
		result = e.Eval(statement, env)
		if result == nil {
			result = object.NULL
			continue
		}
		rt := result.Type()
		if rt == object.RETURN_VALUE_OBJ || rt == object.ERROR_OBJ {
			return result
		}
	}
	return result
}

// evalExpressions evaluates exps left to right. On the first error it
// returns a slice holding only that error.
func (e *Evaluator) evalExpressions(exps []ast.Expression, env *object.Environment) []object.Object {
	var result []object.Object
	for _, exp := range exps {
		evaluated := e.Eval(exp, env)
		if isError(evaluated) {
			return []object.Object{evaluated}
		}
		result = append(result, evaluated)
	}
	return result
}

func (e *Evaluator) evalHashLiteral(node *ast.HashLiteral, env *object.Environment) object.Object {
	hash := object.NewHash()
	for _, key := range node.Keys() {
		valueNode, _ := node.Get(key)
		value := e.Eval(valueNode, env)
		if isError(value) {
			return value
		}
		hash.Set(key, object.HashPair{Key: key, Value: value})
	}
	return hash
}

func (e *Evaluator) evalIdent(node *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	if builtin, ok := builtins[node.Value]; ok {
		return builtin
	}
	return e.newError("identifier not found: %s", node.Value)
}

// evalBangOperatorExpression evaluates the '!' prefix expression.
func (e *Evaluator) evalBangOperatorExpression(right object.Object) object.Object {
	switch right {
	case object.TRUE:
		return object.FALSE
	case object.FALSE:
		return object.TRUE
	case object.NULL:
		return object.TRUE
	default:
		return object.FALSE
	}
}

// evalMinusPrefixOperatorExpression evaluates the '-' prefix expression.
func (e *Evaluator) evalMinusPrefixOperatorExpression(right object.Object) object.Object {
	if right.Type() != object.INTEGER_OBJ {
		return e.newError("unknown operator: -%s", right.Type())
	}
	value := right.(*object.Integer).Value
	return &object.Integer{Value: -value}
}

// evalPrefixExpression dispatches to the correct prefix evaluation function.
func (e *Evaluator) evalPrefixExpression(operator string, right object.Object) object.Object {
	switch operator {
	case "!":
		return e.evalBangOperatorExpression(right)
	case "-":
		return e.evalMinusPrefixOperatorExpression(right)
	default:
		return e.newError("unknown operator: %s%s", operator, right.Type())
	}
}

// evalInfixExpression dispatches on the dynamic types of both operands.
func (e *Evaluator) evalInfixExpression(operator string, left, right object.Object) object.Object {
	switch {
	case left.Type() == object.INTEGER_OBJ && right.Type() == object.INTEGER_OBJ:
		return e.evalIntegerInfixExpression(operator, left, right)
	case left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ:
		return e.evalStringInfixExpression(operator, left, right)
	case operator == "==":
		return object.NativeBoolToBooleanObject(left == right)
	case operator == "!=":
		return object.NativeBoolToBooleanObject(left != right)
	case left.Type() != right.Type():
		return e.newError("type mismatch: %s %s %s", left.Type(), operator, right.Type())
	default:
		return e.newError("unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

// evalIntegerInfixExpression evaluates infix expressions for integers.
func (e *Evaluator) evalIntegerInfixExpression(operator string, left, right object.Object) object.Object {
	leftVal := left.(*object.Integer).Value
	rightVal := right.(*object.Integer).Value

	switch operator {
	case "+":
		return &object.Integer{Value: leftVal + rightVal}
	case "-":
		return &object.Integer{Value: leftVal - rightVal}
	case "*":
		return &object.Integer{Value: leftVal * rightVal}
	case "/":
		if rightVal == 0 {
			return e.newError("division by zero")
		}
		return &object.Integer{Value: leftVal / rightVal}
	case "<":
		return object.NativeBoolToBooleanObject(leftVal < rightVal)
	case ">":
		return object.NativeBoolToBooleanObject(leftVal > rightVal)
	case "==":
		return object.NativeBoolToBooleanObject(leftVal == rightVal)
	case "!=":
		return object.NativeBoolToBooleanObject(leftVal != rightVal)
	default:
		return e.newError("unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
}

// evalStringInfixExpression evaluates infix expressions for strings.
func (e *Evaluator) evalStringInfixExpression(operator string, left, right object.Object) object.Object {
	if operator != "+" {
		return e.newError("unknown operator: %s %s %s", left.Type(), operator, right.Type())
	}
	leftVal := left.(*object.String).Value
	rightVal := right.(*object.String).Value
	return &object.String{Value: leftVal + rightVal}
}

func (e *Evaluator) evalIfElseExpression(ie *ast.IfExpression, env *object.Environment) object.Object {
	condition := e.Eval(ie.Condition, env)
	if isError(condition) {
		return condition
	}

	if isTruthy(condition) {
		return e.Eval(ie.Consequence, env)
	} else if ie.Alternative != nil {
		return e.Eval(ie.Alternative, env)
	}
	return object.NULL
}

func isTruthy(obj object.Object) bool {
	switch obj {
	case object.NULL:
		return false
	case object.FALSE:
		return false
	default:
		return true
	}
}

func (e *Evaluator) evalIndexExpression(left, index object.Object) object.Object {
	switch {
	case left.Type() == object.ARRAY_OBJ && index.Type() == object.INTEGER_OBJ:
		return e.evalArrayIndexExpression(left, index)
	case left.Type() == object.HASH_OBJ:
		return e.evalHashIndexExpression(left, index)
	default:
		return e.newError("index operator not supported: %s", left.Type())
	}
}

func (e *Evaluator) evalArrayIndexExpression(array, index object.Object) object.Object {
	arrayObject := array.(*object.Array)
	idx := index.(*object.Integer).Value
	last := int64(len(arrayObject.Elements) - 1)

	if idx < 0 || idx > last {
		return object.NULL
	}
	return arrayObject.Elements[idx]
}

// evalHashIndexExpression looks index up by its canonical text. An index that
// cannot be a key is simply not found.
func (e *Evaluator) evalHashIndexExpression(hash, index object.Object) object.Object {
	hashObject := hash.(*object.Hash)
	key, ok := index.(object.Hashable)
	if !ok {
		return object.NULL
	}
	pair, ok := hashObject.Get(key.HashKey())
	if !ok {
		return object.NULL
	}
	return pair.Value
}

func (e *Evaluator) applyFunction(fn object.Object, args []object.Object) object.Object {
	if err := e.ctx.Err(); err != nil {
		return e.newError("evaluation canceled: %v", err)
	}

	switch fn := fn.(type) {
	case *object.Function:
		if e.depth >= e.maxDepth {
			return e.newError("maximum call depth exceeded: %d", e.maxDepth)
		}
		e.depth++
		defer func() { e.depth-- }()

		extendedEnv := extendFunctionEnv(fn, args)
		evaluated := e.Eval(fn.Body, extendedEnv)
		return unwrapReturnValue(evaluated)
	case *object.Builtin:
		ctx := &object.BuiltinContext{Stdout: e.stdout, NewError: e.newError}
		return fn.Fn(ctx, args...)
	default:
		return e.newError("not a function: %s", fn.Type())
	}
}

// extendFunctionEnv binds parameters positionally in a scope enclosed by the
// function's defining environment. Missing arguments are NULL.
func extendFunctionEnv(fn *object.Function, args []object.Object) *object.Environment {
	env := object.NewEnclosedEnvironment(fn.Env)
	for i, param := range fn.Parameters {
		if i < len(args) {
			env.Set(param.Value, args[i])
		} else {
			env.Set(param.Value, object.NULL)
		}
	}
	return env
}

func unwrapReturnValue(obj object.Object) object.Object {
	if returnValue, ok := obj.(*object.ReturnValue); ok {
		return returnValue.Value
	}
	if obj == nil {
		return object.NULL
	}
	return obj
}
