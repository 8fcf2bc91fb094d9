package sc3

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Variable namespaces, the kind byte of a variable reference.
const (
	NamespaceDim    byte = 0xA0
	NamespaceEffect byte = 0xA2
	NamespaceSystem byte = 0xA3
	NamespaceGlobal byte = 0xA4 // g_ for index 1..31, l_ otherwise
)

// VariableName returns the canonical name of a variable, e.g. "g_05".
func VariableName(kind, index byte) (string, error) {
	var prefix string
	switch kind {
	case NamespaceDim:
		prefix = "dim_"
	case NamespaceEffect:
		prefix = "eff_"
	case NamespaceSystem:
		prefix = "sys_"
	case NamespaceGlobal:
		if index > 0 && index <= 0x1F {
			prefix = "g_"
		} else {
			prefix = "l_"
		}
	default:
		return "", decodeErrorf(ErrResolution, 0, "invalid variable kind 0x%02x", kind)
	}
	return fmt.Sprintf("%s%02x", prefix, index), nil
}

// argumentValues maps a raw value key to a display name. Integer values are
// keyed by their decimal form, tuples by their fields joined with commas.
type argumentValues map[string]string

var fgSlot = argumentValues{"1": "0", "2": "1", "4": "2"}

var flowArguments = map[FlowOpcode]map[int]argumentValues{
	FlowCall: {
		0: {"332": "SHAKE_FD_1", "336": "SHAKE_FD_2", "338": "SHAKE_FD_4", "346": "SHAKE_HARD_FD_1"},
	},
	FlowTurnMode: {
		1: {"3": "OFF", "4": "ON"},
	},
	FlowTurnFlagOn: {
		0: {"256": "CANNOT_SAVE_GAME"},
	},
	FlowTurnFlagOff: {
		0: {"256": "CANNOT_SAVE_GAME"},
	},
	FlowGotoIfFlag: {
		0: {"0": "FALSE", "1": "TRUE"},
		1: {"32,1": "MOVIE_SKIPPED"},
	},
}

var commandArguments = map[Opcode]map[int]argumentValues{
	OpSetMovieRect: {
		0: {"0": "MIRROR", "1": "NORMAL"},
	},
	OpRemoveBG: {
		0: {"0": "BLACK_IMAGE", "1": "WHITE_IMAGE"},
	},
	OpLoadFG: {
		0: fgSlot,
		3: {"0": "STATIC", "3": "FADE_IN"},
	},
	OpRemoveFG: {
		0: fgSlot,
		1: {"0": "STATIC", "3": "FADE_OUT"},
	},
	OpLoadFG2: {
		0: fgSlot,
		1: fgSlot,
		6: {"0": "STATIC", "3": "FADE_IN"},
	},
	OpLoadFG3: {
		6: {"0": "STATIC", "3": "FADE_IN"},
	},
	OpRemoveFG3: {
		0: {
			"1": "(0)", "2": "(1)", "3": "(0,1)", "4": "(2)",
			"5": "(0,2)", "6": "(1,2)", "7": "(0,1,2)",
		},
		1: {"0": "STATIC", "3": "FADE_OUT"},
	},
	OpStartAnim: {
		0: {
			"4":  "SCREEN_SHAKE_HARD",
			"5":  "SCREEN_SHAKE",
			"12": "SCREEN_SHAKE_ANIM",
			"18": "CHERRY_BLOSSOM_FALL_ANIM",
			"19": "FOG_2",
			"27": "GOD_RAY_ANIM",
			"32": "FILTER_2",
			"41": "SNOW_FALL_ANIM",
			"44": "DIM_OVERLAY",
			"45": "DIM_IN_AND_OUT",
			"46": "FLASH",
			"47": "CHANGE_PERSPECTIVE",
			"48": "MAP_COMMENT_ANIM",
			"49": "MAP_ROOT_IMAGE_BLINK_ANIM",
		},
	},
	OpCloseAnim: {
		0: {
			"0":  "FOG_2",
			"7":  "GOD_RAY_ANIM",
			"11": "SCREEN_SHAKE_ANIM",
			"12": "CHERRY_BLOSSOM_FALL_ANIM",
			"13": "DIM_IN_AND_OUT_OR_FILTER_ANIM",
			"14": "SNOW_FALL_ANIM",
			"15": "MAP_INDICATE_ANIM",
			"16": "DIM_OVERLAY",
		},
	},
	OpSetDialogColor: {
		0: {"0": "BLUE", "1": "GREEN", "2": "GRAY"},
	},
	OpAffectFG: {
		1: {"8": "TRANSPARENT", "15": "NORMAL", "16": "NORMAL", "17": "TORCH_ILLUMINATED"},
	},
	OpOverlayMono: {
		1: {"0": "BLACK", "1": "WHITE"},
	},
}

// SymbolTable names constant arguments and variables. The zero value and
// DefaultSymbols carry only the built-in argument tables.
//
// A SymbolTable is never mutated after construction and is safe to share
// between goroutines.
type SymbolTable struct {
	aliases map[string]string         // canonical variable name -> display name
	enums   map[string]map[int]string // canonical variable name -> value -> name
}

// DefaultSymbols is the table used by Decode.
var DefaultSymbols = &SymbolTable{}

// With returns a table with aliases and enums layered over t. Entries in the
// arguments win over entries already in t. Neither t nor the arguments are
// modified.
func (t *SymbolTable) With(aliases map[string]string, enums map[string]map[int]string) *SymbolTable {
	nt := &SymbolTable{
		aliases: make(map[string]string, len(t.aliases)+len(aliases)),
		enums:   make(map[string]map[int]string, len(t.enums)+len(enums)),
	}
	maps.Copy(nt.aliases, t.aliases)
	maps.Copy(nt.aliases, aliases)
	for name, values := range t.enums {
		nt.enums[name] = maps.Clone(values)
	}
	for name, values := range enums {
		if nt.enums[name] == nil {
			nt.enums[name] = make(map[int]string, len(values))
		}
		maps.Copy(nt.enums[name], values)
	}
	return nt
}

// ResolveVariableName returns the display name of a variable: its alias if
// one is configured, otherwise its canonical name.
func (t *SymbolTable) ResolveVariableName(kind, index byte) (string, error) {
	name, err := VariableName(kind, index)
	if err != nil {
		return "", err
	}
	if alias, ok := t.aliases[name]; ok {
		return alias, nil
	}
	return name, nil
}

// EnumName returns the name of value in the enum table of a variable.
func (t *SymbolTable) EnumName(variable string, value int) (string, bool) {
	name, ok := t.enums[variable][value]
	return name, ok
}

// AnnotateArgument sets the Symbol of the index-th argument of a flow or
// command instruction. Non-constant arguments, arguments without a table
// entry and arguments that already carry a symbol are left alone.
func (t *SymbolTable) AnnotateArgument(kind InstructionKind, code byte, index int, e *Expression) {
	if e.Kind == ExprVariable || e.Kind == ExprFunctionCall {
		t.annotateVariables(e)
		return
	}
	if e.Kind != ExprConst || e.Form == ConstString || e.Symbol != "" {
		return
	}
	var values argumentValues
	switch kind {
	case KindFlow:
		values = flowArguments[FlowOpcode(code)][index]
	case KindCommand:
		values = commandArguments[Opcode(code)][index]
	}
	if values == nil {
		return
	}
	if name, ok := values[constKey(*e)]; ok {
		e.Symbol = name
	}
}

// annotateEnum names the constant e from the enum table of variable.
func (t *SymbolTable) annotateEnum(variable string, e *Expression) {
	if !e.IsInt() || e.Symbol != "" {
		return
	}
	if name, ok := t.EnumName(variable, e.Value); ok {
		e.Symbol = name
	}
}

// annotateVariables applies aliases to e and any function arguments below it.
func (t *SymbolTable) annotateVariables(e *Expression) {
	switch e.Kind {
	case ExprVariable:
		if e.Symbol == "" {
			if alias, ok := t.aliases[e.Name]; ok {
				e.Symbol = alias
			}
		}
	case ExprFunctionCall:
		for i := range e.Args {
			t.annotateVariables(&e.Args[i])
		}
	}
}

func constKey(e Expression) string {
	if e.Form == ConstTuple {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = strconv.Itoa(f)
		}
		return strings.Join(parts, ",")
	}
	return strconv.Itoa(e.Value)
}
