package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Ввод-вывод
	IOReadFailed  Code = 4001
	IOBadUnit     Code = 4002
	IOWriteFailed Code = 4003
	IOCacheFailed Code = 4004

	// Конфигурация
	PrjBadConfig Code = 5001

	// Внутренние ошибки компилятора
	ICEDuplicateCaseValue        Code = 9001
	ICECaseValueRange            Code = 9002
	ICELabelRedefined            Code = 9003
	ICEUndefinedLabel            Code = 9004
	ICEArityMismatch             Code = 9005
	ICEUnresolvedSymbol          Code = 9006
	ICEModifierMismatch          Code = 9007
	ICETypeMismatch              Code = 9008
	ICEUnsupportedStmt           Code = 9009
	ICEUnsupportedWhileCondition Code = 9010
	ICENonLiteralForStart        Code = 9011
	ICEMalformedLiteral          Code = 9012
	ICEUnknownRoutine            Code = 9013
	ICEUnsupportedExpr           Code = 9014
	ICEStackUnderflow            Code = 9015
	ICELabelOverflow             Code = 9016
)

var codeDescription = map[Code]string{
	UnknownCode:                  "Unknown error",
	IOReadFailed:                 "Failed to read input",
	IOBadUnit:                    "Malformed unit file",
	IOWriteFailed:                "Failed to write output",
	IOCacheFailed:                "Lowering cache failure",
	PrjBadConfig:                 "Invalid pascalc.toml",
	ICEDuplicateCaseValue:        "Duplicate case selector value",
	ICECaseValueRange:            "Case selector value outside dispatch key range",
	ICELabelRedefined:            "Label defined more than once",
	ICEUndefinedLabel:            "Label referenced but never defined",
	ICEArityMismatch:             "Argument count does not match routine arity",
	ICEUnresolvedSymbol:          "Unresolved symbol",
	ICEModifierMismatch:          "Variable modifier chain does not match its type",
	ICETypeMismatch:              "Operand type not valid here",
	ICEUnsupportedStmt:           "Unsupported statement kind",
	ICEUnsupportedWhileCondition: "While condition is not a single relational comparison",
	ICENonLiteralForStart:        "For-loop start value is not a literal",
	ICEMalformedLiteral:          "Malformed literal text",
	ICEUnknownRoutine:            "Routine body without routine symbol",
	ICEUnsupportedExpr:           "Unsupported expression kind",
	ICEStackUnderflow:            "Operand stack underflow",
	ICELabelOverflow:             "Too many labels in one routine",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// Error lets a bare Code act as an errors.Is target.
func (c Code) Error() string { return c.String() }
