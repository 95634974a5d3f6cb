package coerce

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/wippyai/evm-caller/errors"
)

// InputSource supplies one text token per requested parameter. Implementations
// are interactive prompts in practice and deterministic scripts in tests.
type InputSource interface {
	RequestText(prompt string) (string, error)
}

// InputFunc adapts a plain function to the InputSource interface.
type InputFunc func(prompt string) (string, error)

func (f InputFunc) RequestText(prompt string) (string, error) {
	return f(prompt)
}

// Collect walks a method's input list in declared order and produces the
// ordered argument vector. Tuple parameters are collected one component at a
// time, preserving nesting, so the operator is prompted per field rather
// than asked for one flat token. Collection aborts on the first coercion
// failure; no partial vector is returned.
func Collect(method abi.Method, src InputSource) ([]any, error) {
	args := make([]any, 0, len(method.Inputs))
	for i, input := range method.Inputs {
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		v, err := collectValue(name, input.Type, src)
		if err != nil {
			return nil, collectionError(err, i, name)
		}
		args = append(args, v)
	}
	return args, nil
}

func collectValue(label string, typ abi.Type, src InputSource) (any, error) {
	if typ.T != abi.TupleTy {
		token, err := src.RequestText(fmt.Sprintf("Enter %s (%s):", label, typ.String()))
		if err != nil {
			return nil, errors.Wrap(errors.PhaseCollect, errors.KindCancelled, err, "input aborted")
		}
		return Coerce(token, typ)
	}

	// One prompt per tuple component, in declared order.
	st := reflect.New(typ.GetType()).Elem()
	for i, elemType := range typ.TupleElems {
		field := typ.TupleRawNames[i]
		if field == "" {
			field = fmt.Sprintf("field%d", i)
		}
		v, err := collectValue(label+"."+field, *elemType, src)
		if err != nil {
			return nil, pathErr(err, field)
		}
		st.Field(i).Set(reflect.ValueOf(v))
	}
	return st.Interface(), nil
}

// collectionError wraps a coercion failure with the position of the
// offending parameter so the operator sees immediately which input to fix.
func collectionError(err error, index int, name string) error {
	kind := errors.KindInvalidInput
	if se, ok := err.(*errors.Error); ok {
		kind = se.Kind
		if kind == errors.KindCancelled {
			return se
		}
	}
	return errors.New(errors.PhaseCollect, kind).
		Path(name).
		Detail("parameter %d (%s) rejected", index, name).
		Cause(err).
		Build()
}
