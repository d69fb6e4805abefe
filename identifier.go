package neomap

import (
	"strings"
	"unicode"
)

const maxIdentifierLength = 256

// reservedWords are Cypher clause and operator keywords. A bare reserved word
// used as a label or relationship type is almost always a mis-selected column.
var reservedWords = map[string]struct{}{
	"MATCH": {}, "OPTIONAL": {}, "MERGE": {}, "CREATE": {}, "DELETE": {}, "DETACH": {},
	"SET": {}, "REMOVE": {}, "RETURN": {}, "WITH": {}, "UNWIND": {}, "WHERE": {},
	"ORDER": {}, "BY": {}, "SKIP": {}, "LIMIT": {}, "UNION": {}, "CALL": {}, "YIELD": {},
	"FOREACH": {}, "LOAD": {}, "CSV": {}, "USING": {}, "ON": {}, "AND": {}, "OR": {},
	"XOR": {}, "NOT": {}, "IN": {}, "IS": {}, "NULL": {}, "TRUE": {}, "FALSE": {},
	"CASE": {}, "WHEN": {}, "THEN": {}, "ELSE": {}, "END": {}, "AS": {}, "DISTINCT": {},
	"EXISTS": {}, "DROP": {}, "CONSTRAINT": {}, "INDEX": {},
}

// ValidateLabel checks that label can be used as a node label.
func ValidateLabel(label string) error {
	if err := validateIdentifier("label", label); err != nil {
		return err
	}
	return rejectReserved("label", label)
}

// ValidateRelationshipType checks that relType can be used as a relationship type.
func ValidateRelationshipType(relType string) error {
	if err := validateIdentifier("relationship type", relType); err != nil {
		return err
	}
	return rejectReserved("relationship type", relType)
}

// ValidatePropertyKey checks that key can be used as a property name.
// Reserved words are allowed here since property keys are always quoted.
func ValidatePropertyKey(key string) error {
	return validateIdentifier("property key", key)
}

func validateIdentifier(kind, s string) error {
	if strings.TrimSpace(s) == "" {
		return Errorf(ErrCodeInvalidIdentifier, "%s must not be empty", kind)
	}
	if len(s) > maxIdentifierLength {
		return Errorf(ErrCodeInvalidIdentifier, "%s %.32q... exceeds %d bytes", kind, s, maxIdentifierLength)
	}
	if s != strings.TrimSpace(s) {
		return Errorf(ErrCodeInvalidIdentifier, "%s %q has leading or trailing whitespace", kind, s)
	}
	for _, r := range s {
		if r == '`' || r == unicode.ReplacementChar || unicode.IsControl(r) {
			return Errorf(ErrCodeInvalidIdentifier, "%s %q contains a disallowed character %q", kind, s, r)
		}
	}
	return nil
}

func rejectReserved(kind, s string) error {
	if _, ok := reservedWords[strings.ToUpper(s)]; ok {
		return Errorf(ErrCodeInvalidIdentifier, "%s %q is a reserved word", kind, s)
	}
	return nil
}

// quote escapes a validated identifier for interpolation into query text.
func quote(identifier string) string {
	return "`" + identifier + "`"
}
