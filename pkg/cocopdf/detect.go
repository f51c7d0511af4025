package cocopdf

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var ocgNamePattern = regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(`)

// LayerNames lists the optional content group names found in raw PDF data,
// in order of first appearance.
func LayerNames(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	content := string(pdfData)
	var layers []string
	seen := make(map[string]bool)
	for _, loc := range ocgNamePattern.FindAllStringIndex(content, -1) {
		raw, ok := literalString(content[loc[1]:])
		if !ok {
			continue
		}
		name := unescapePDFString(raw)
		if len(name) >= 2 && name[0] == '\xfe' && name[1] == '\xff' {
			decoded, err := decodeUTF16BE(name)
			if err != nil {
				return nil, fmt.Errorf("decode layer name: %w", err)
			}
			name = decoded
		}
		if !seen[name] {
			seen[name] = true
			layers = append(layers, name)
		}
	}
	return layers, nil
}

// literalString returns the body of a PDF literal string whose opening
// parenthesis has already been consumed.
func literalString(s string) (string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return s[:i], true
			}
			depth--
		}
	}
	return "", false
}

func unescapePDFString(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := 0
			j := i
			for ; j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7'; j++ {
				v = v*8 + int(s[j]-'0')
			}
			b.WriteByte(byte(v))
			i = j - 1
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func decodeUTF16BE(s string) (string, error) {
	return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().String(s)
}
