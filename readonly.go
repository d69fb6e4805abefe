package neomap

import (
	"regexp"
	"strings"
)

var (
	quotedText   = regexp.MustCompile("'(?:[^'\\\\]|\\\\.)*'|\"(?:[^\"\\\\]|\\\\.)*\"|`[^`]*`")
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	writeClauses = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|LOAD|FOREACH|CALL|ALTER|GRANT|REVOKE|DENY|TERMINATE|START|STOP)\b`)
)

// CheckReadOnly rejects a user-supplied query fragment that contains a
// write or administration clause. Quoted literals, comments, property keys,
// labels and parameters are ignored.
func CheckReadOnly(fragment string) error {
	s := quotedText.ReplaceAllString(fragment, "''")
	s = lineComment.ReplaceAllString(s, "")
	if strings.Contains(s, ";") {
		return NewError(ErrCodeConfiguration, "query fragment must be a single statement")
	}
	for _, loc := range writeClauses.FindAllStringIndex(s, -1) {
		if !isClause(s, loc[0], loc[1]) {
			continue
		}
		return Errorf(ErrCodeConfiguration, "query fragment contains %s; only read clauses are allowed", strings.ToUpper(s[loc[0]:loc[1]]))
	}
	return nil
}

// isClause reports whether the keyword at s[start:end] is used as a clause
// rather than as a property key, label, parameter or map key.
func isClause(s string, start, end int) bool {
	before := strings.TrimRight(s[:start], " \t\r\n")
	if before != "" {
		switch before[len(before)-1] {
		case '.', ':', '$':
			return false
		}
	}
	after := strings.TrimLeft(s[end:], " \t\r\n")
	return !strings.HasPrefix(after, ":")
}
