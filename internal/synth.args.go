package internal

import "strings"

// SplitArguments splits raw tag argument text on whitespace, keeping quoted
// runs (with their quotes) inside a single piece.
func SplitArguments(raw string) ([]string, error) {
	var (
		pieces  []string
		current strings.Builder
		quote   byte
		start   int
	)

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case quote != 0:
			current.WriteByte(ch)
			if ch == CharBackslash && i+1 < len(raw) {
				i++
				current.WriteByte(raw[i])
				continue
			}
			if ch == quote {
				quote = 0
			}
		case ch == CharDoubleQuote || ch == CharSingleQuote:
			quote = ch
			start = i
			current.WriteByte(ch)
		case ch == CharSpace || ch == CharTab || ch == CharNewline || ch == CharCarriageRet:
			flush()
		default:
			current.WriteByte(ch)
		}
	}

	if quote != 0 {
		return nil, NewExprError(ErrMsgUnterminatedStr, start, "")
	}
	flush()
	return pieces, nil
}

// ParseArguments parses raw tag argument text into positional and key=value
// arguments. Each value is parsed as a single literal or variable path;
// filter pipelines are rejected.
func ParseArguments(raw string, at Position) ([]Argument, error) {
	pieces, err := SplitArguments(raw)
	if err != nil {
		return nil, err
	}

	args := make([]Argument, 0, len(pieces))
	for _, piece := range pieces {
		arg := Argument{Raw: piece}
		if key, value, ok := splitKeyValue(piece); ok {
			arg.Key = key
			arg.Raw = value
		}

		if expr, err := ParsePrimary(arg.Raw, at); err == nil {
			arg.Expr = expr
		} else if hasUnquotedPipe(arg.Raw) {
			return nil, NewExprError(ErrMsgFiltersInTagArgs, 0, piece)
		}
		args = append(args, arg)
	}
	return args, nil
}

// splitKeyValue recognises identifier=value pieces, leaving operators such as
// "==" or "<=" alone.
func splitKeyValue(piece string) (string, string, bool) {
	idx := strings.IndexByte(piece, CharEquals)
	if idx <= 0 || idx+1 < len(piece) && piece[idx+1] == CharEquals {
		return "", "", false
	}
	key := piece[:idx]
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if !(isLetter(ch) || ch == '_' || ch == CharMinus || (i > 0 && isDigit(ch))) {
			return "", "", false
		}
	}
	return key, piece[idx+1:], true
}

// hasUnquotedPipe reports whether s contains '|' outside quoted runs
func hasUnquotedPipe(s string) bool {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == CharBackslash {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == CharDoubleQuote || ch == CharSingleQuote:
			quote = ch
		case ch == CharPipe:
			return true
		}
	}
	return false
}

// Character classification helpers

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
