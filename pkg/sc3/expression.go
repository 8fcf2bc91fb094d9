package sc3

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprKind tags the variant held by an Expression.
type ExprKind uint8

const (
	ExprOperator ExprKind = iota
	ExprConst
	ExprConfig
	ExprRGBA
	ExprVariable
	ExprFunctionCall
)

var exprKindNames = [...]string{
	ExprOperator:     "Operator",
	ExprConst:        "Const",
	ExprConfig:       "Config",
	ExprRGBA:         "RGBA",
	ExprVariable:     "VariableRef",
	ExprFunctionCall: "FunctionCall",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return fmt.Sprintf("ExprKind(%d)", uint8(k))
}

// Operator is an assignment or comparison token.
type Operator byte

const (
	OperatorAssign         Operator = 0x14
	OperatorAddAssign      Operator = 0x17
	OperatorEqual          Operator = 0x0C
	OperatorNotEqual       Operator = 0x0D
	OperatorLessOrEqual    Operator = 0x0E
	OperatorGreaterOrEqual Operator = 0x0F
	OperatorLess           Operator = 0x10
	OperatorGreater        Operator = 0x11
)

var operatorTokens = map[Operator]string{
	OperatorAssign:         "=",
	OperatorAddAssign:      "+=",
	OperatorEqual:          "==",
	OperatorNotEqual:       "!=",
	OperatorLessOrEqual:    "<=",
	OperatorGreaterOrEqual: ">=",
	OperatorLess:           "<",
	OperatorGreater:        ">",
}

func (op Operator) String() string {
	if tok, ok := operatorTokens[op]; ok {
		return tok
	}
	return fmt.Sprintf("Operator(0x%02X)", byte(op))
}

// ConstForm says which field of a Const expression holds its value.
type ConstForm uint8

const (
	ConstInt    ConstForm = iota // Value
	ConstString                  // Text
	ConstTuple                   // Fields
)

// Expression is one decoded argument. Which fields are meaningful depends
// on Kind:
//
//	ExprOperator      Operator
//	ExprConst         Form plus Value, Text or Fields
//	ExprConfig        Fields (five entries: mode&0x0F then four raw bytes)
//	ExprRGBA          Fields (three raw bytes)
//	ExprVariable      Namespace, Index, Name, Alternate
//	ExprFunctionCall  Name, Args
//
// Symbol is the only field set after construction, by the annotator.
type Expression struct {
	Kind ExprKind `cbor:"1,keyasint"`
	Role string   `cbor:"2,keyasint,omitempty"`

	Operator Operator  `cbor:"3,keyasint,omitempty"`
	Form     ConstForm `cbor:"4,keyasint,omitempty"`
	Value    int       `cbor:"5,keyasint,omitempty"`
	Text     string    `cbor:"6,keyasint,omitempty"`
	Fields   []int     `cbor:"7,keyasint,omitempty"`

	Namespace byte   `cbor:"8,keyasint,omitempty"`
	Index     byte   `cbor:"9,keyasint,omitempty"`
	Alternate bool   `cbor:"10,keyasint,omitempty"`
	Name      string `cbor:"11,keyasint,omitempty"`

	Args []Expression `cbor:"12,keyasint,omitempty"`

	Symbol string `cbor:"13,keyasint,omitempty"`
}

// IntConst returns an integer constant.
func IntConst(v int) Expression {
	return Expression{Kind: ExprConst, Form: ConstInt, Value: v}
}

// StringConst returns a string constant.
func StringConst(s string) Expression {
	return Expression{Kind: ExprConst, Form: ConstString, Text: s}
}

// TupleConst returns a constant holding raw integers.
func TupleConst(fields ...int) Expression {
	return Expression{Kind: ExprConst, Form: ConstTuple, Fields: fields}
}

// IsInt reports whether e is an integer constant.
func (e Expression) IsInt() bool {
	return e.Kind == ExprConst && e.Form == ConstInt
}

// IsIntValue reports whether e is the integer constant v.
func (e Expression) IsIntValue(v int) bool {
	return e.IsInt() && e.Value == v
}

// Display renders the expression the way listings show it. A symbol, when
// set, replaces the raw value.
func (e Expression) Display() string {
	if e.Symbol != "" {
		return e.Symbol
	}
	switch e.Kind {
	case ExprOperator:
		return e.Operator.String()
	case ExprConst:
		switch e.Form {
		case ConstString:
			return strconv.Quote(e.Text)
		case ConstTuple:
			return tupleString(e.Fields)
		}
		return strconv.Itoa(e.Value)
	case ExprConfig:
		return "config" + tupleString(e.Fields)
	case ExprRGBA:
		var sb strings.Builder
		sb.WriteString("#")
		for _, c := range e.Fields {
			fmt.Fprintf(&sb, "%02x", c)
		}
		return sb.String()
	case ExprVariable:
		if e.Alternate {
			return "*" + e.Name
		}
		return e.Name
	case ExprFunctionCall:
		args := make([]string, len(e.Args))
		for i := range e.Args {
			args[i] = e.Args[i].Display()
		}
		return e.Name + "(" + strings.Join(args, ", ") + ")"
	}
	return "?"
}

func (e Expression) String() string {
	return e.Display()
}

func tupleString(fields []int) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = strconv.Itoa(f)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
