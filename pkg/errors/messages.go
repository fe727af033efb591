package errors

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys used by the call validator and the evaluator.
const (
	MsgParameterMissing         = "method.parameter.missing"
	MsgParameterTooMany         = "method.parameter.too.many"
	MsgParameterMismatch        = "method.parameter.mismatch"
	MsgMismatchMissingMembers   = "method.parameter.mismatch.missing.members"
	MsgMismatchWrongTypeMembers = "method.parameter.mismatch.wrong.type.members"
	MsgWrongTypeMember          = "method.parameter.mismatch.wrong.type.member"
	MsgUnableToCompare          = "method.parameter.unable.to.compare"
	MsgExtensionWrongType       = "extension.wrong.type"
	MsgInvalidRegex             = "expression.regex.invalid"
	MsgTypeCheckMismatch        = "expression.typecheck.mismatch"
)

var englishMessages = map[string]string{
	MsgParameterMissing:         "Not enough arguments, expected at least %d but got %d",
	MsgParameterTooMany:         "Too many arguments, expected at most %d but got %d",
	MsgParameterMismatch:        "Type mismatch (Expected: '%s' got: '%s')",
	MsgMismatchMissingMembers:   "Incompatible structure, missing members: %s",
	MsgMismatchWrongTypeMembers: "Incompatible structure, wrong member types: %s",
	MsgWrongTypeMember:          "have '%s' wants '%s'",
	MsgUnableToCompare:          "Unable to compare argument with parameter type '%s', type definition could not be found",
	MsgExtensionWrongType:       "Can not use extension method, wrong type",
	MsgInvalidRegex:             "Invalid regular expression: %s",
	MsgTypeCheckMismatch:        "Type '%s' is not compatible with '%s'",
}

var messageCatalog = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range englishMessages {
		if err := b.SetString(language.English, key, msg); err != nil {
			panic(err)
		}
	}
	return b
}

// Messages formats diagnostic texts for one language.
type Messages struct {
	printer *message.Printer
}

// NewMessages returns a formatter for tag. Regional variants resolve
// through their parent language.
func NewMessages(tag language.Tag) *Messages {
	return &Messages{printer: message.NewPrinter(tag, message.Catalog(messageCatalog))}
}

// Format renders the message registered under key.
func (m *Messages) Format(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}

var defaultMessages = NewMessages(language.English)

// Format renders key with the English catalog.
func Format(key string, args ...any) string {
	return defaultMessages.Format(key, args...)
}
