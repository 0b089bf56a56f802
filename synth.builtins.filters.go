package synth

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Django builtin filter names
const (
	FilterUpper          = "upper"
	FilterLower          = "lower"
	FilterTitle          = "title"
	FilterCapFirst       = "capfirst"
	FilterDefault        = "default"
	FilterDefaultIfNone  = "default_if_none"
	FilterLength         = "length"
	FilterJoin           = "join"
	FilterFirst          = "first"
	FilterLast           = "last"
	FilterAdd            = "add"
	FilterCut            = "cut"
	FilterYesNo          = "yesno"
	FilterWordCount      = "wordcount"
	FilterTruncateWords  = "truncatewords"
	FilterURLEncode      = "urlencode"
	FilterFloatFormat    = "floatformat"
	FilterIntComma       = "intcomma"
	FilterOrdinal        = "ordinal"
	FilterFileSizeFormat = "filesizeformat"
	FilterMarkdown       = "markdown"
	FilterStringFormat   = "stringformat"
	FilterDivisibleBy    = "divisibleby"
	FilterEscape         = "escape"
	FilterStripTags      = "striptags"
	FilterLineBreaksBR   = "linebreaksbr"
)

// Filter defaults
const (
	defaultYesNo        = "yes,no,maybe"
	defaultFloatDigits  = -1
	truncationMarker    = " …"
	lineBreakReplace    = "<br>"
	stringFormatPercent = "%"
)

var (
	stripTagsRe = regexp.MustCompile(`<[^>]*>`)
	markdown    = goldmark.New(goldmark.WithExtensions(extension.GFM))
)

// DjangoFilters returns the builtin filters of the Django dialect
func DjangoFilters() []*FilterSpec {
	return []*FilterSpec{
		Filter(FilterUpper, textFilter(func(s string) string { return cases.Upper(language.Und).String(s) })),
		Filter(FilterLower, textFilter(func(s string) string { return cases.Lower(language.Und).String(s) })),
		Filter(FilterTitle, textFilter(func(s string) string { return cases.Title(language.Und).String(s) })),
		Filter(FilterCapFirst, textFilter(capFirst)),
		Filter(FilterDefault, defaultFilter),
		Filter(FilterDefaultIfNone, defaultIfNoneFilter),
		Filter(FilterLength, lengthFilter),
		Filter(FilterJoin, joinFilter),
		Filter(FilterFirst, firstFilter),
		Filter(FilterLast, lastFilter),
		Filter(FilterAdd, addFilter),
		Filter(FilterCut, cutFilter),
		Filter(FilterYesNo, yesNoFilter),
		Filter(FilterWordCount, func(v any, _ []any) (any, error) { return len(strings.Fields(Stringify(v))), nil }),
		Filter(FilterTruncateWords, truncateWordsFilter),
		Filter(FilterURLEncode, textFilter(url.PathEscape)),
		Filter(FilterFloatFormat, floatFormatFilter),
		Filter(FilterIntComma, intCommaFilter),
		Filter(FilterOrdinal, ordinalFilter),
		Filter(FilterFileSizeFormat, fileSizeFilter),
		Filter(FilterMarkdown, markdownFilter),
		Filter(FilterStringFormat, stringFormatFilter),
		Filter(FilterDivisibleBy, divisibleByFilter),
		Filter(FilterEscape, textFilter(html.EscapeString)),
		Filter(FilterStripTags, textFilter(func(s string) string { return stripTagsRe.ReplaceAllString(s, "") })),
		Filter(FilterLineBreaksBR, textFilter(func(s string) string { return strings.ReplaceAll(s, "\n", lineBreakReplace) })),
	}
}

// textFilter lifts a string transform into a filter over any value
func textFilter(fn func(string) string) FilterFunc {
	return func(v any, _ []any) (any, error) {
		return fn(Stringify(v)), nil
	}
}

func requireArgs(name string, args []any, n int) error {
	if len(args) < n {
		return fmt.Errorf("%s: %s", name, ErrMsgMissingArgument)
	}
	if len(args) > n {
		return fmt.Errorf("%s: %s", name, ErrMsgTooManyArguments)
	}
	return nil
}

func capFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func defaultFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterDefault, args, 1); err != nil {
		return nil, err
	}
	if Truthy(v) {
		return v, nil
	}
	return args[0], nil
}

func defaultIfNoneFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterDefaultIfNone, args, 1); err != nil {
		return nil, err
	}
	if v == nil {
		return args[0], nil
	}
	return v, nil
}

func lengthFilter(v any, _ []any) (any, error) {
	n, _ := Length(v)
	return n, nil
}

func joinFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterJoin, args, 1); err != nil {
		return nil, err
	}
	items, ok := Items(v)
	if !ok {
		return nil, fmt.Errorf("%s: %s", FilterJoin, ErrMsgNotASequence)
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Stringify(item)
	}
	return strings.Join(parts, Stringify(args[0])), nil
}

func firstFilter(v any, _ []any) (any, error) {
	items, ok := Items(v)
	if !ok || len(items) == 0 {
		return "", nil
	}
	return items[0], nil
}

func lastFilter(v any, _ []any) (any, error) {
	items, ok := Items(v)
	if !ok || len(items) == 0 {
		return "", nil
	}
	return items[len(items)-1], nil
}

// addFilter sums its input and arguments: integers stay integers, any
// decimal makes the sum a float, strings and sequences concatenate.
func addFilter(v any, args []any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s: %s", FilterAdd, ErrMsgMissingArgument)
	}
	operands := append([]any{v}, args...)

	if sum, ok := sumInts(operands); ok {
		return sum, nil
	}
	if sum, ok := sumFloats(operands); ok {
		return sum, nil
	}

	if _, ok := v.(string); ok {
		var sb strings.Builder
		for _, op := range operands {
			s, ok := op.(string)
			if !ok {
				return nil, fmt.Errorf("%s: %s: %T", FilterAdd, ErrMsgTypeMismatch, op)
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	}

	var out []any
	for _, op := range operands {
		items, ok := Items(op)
		if !ok || op == nil {
			return nil, fmt.Errorf("%s: %s: %T", FilterAdd, ErrMsgTypeMismatch, op)
		}
		out = append(out, items...)
	}
	return out, nil
}

func sumInts(operands []any) (int, bool) {
	total := 0
	for _, op := range operands {
		if f, isFloat := op.(float64); isFloat && f != math.Trunc(f) {
			return 0, false
		}
		n, ok := ToInt(op)
		if !ok {
			return 0, false
		}
		if (n > 0 && total > math.MaxInt-n) || (n < 0 && total < math.MinInt-n) {
			return 0, false
		}
		total += n
	}
	return total, true
}

func sumFloats(operands []any) (float64, bool) {
	total := 0.0
	for _, op := range operands {
		f, ok := ToFloat(op)
		if !ok {
			return 0, false
		}
		total += f
	}
	return total, true
}

func cutFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterCut, args, 1); err != nil {
		return nil, err
	}
	return strings.ReplaceAll(Stringify(v), Stringify(args[0]), ""), nil
}

// yesNoFilter maps true, false and None to the words of its argument
func yesNoFilter(v any, args []any) (any, error) {
	mapping := defaultYesNo
	if len(args) > 0 {
		mapping = Stringify(args[0])
	}
	words := strings.Split(mapping, ",")
	if len(words) < 2 {
		return nil, fmt.Errorf("%s: %s", FilterYesNo, ErrMsgMissingArgument)
	}
	switch {
	case v == nil && len(words) > 2:
		return words[2], nil
	case Truthy(v):
		return words[0], nil
	}
	return words[1], nil
}

func truncateWordsFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterTruncateWords, args, 1); err != nil {
		return nil, err
	}
	n, ok := ToInt(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: %s", FilterTruncateWords, ErrMsgNotANumber)
	}
	words := strings.Fields(Stringify(v))
	if n < 0 || len(words) <= n {
		return strings.Join(words, " "), nil
	}
	return strings.Join(words[:n], " ") + truncationMarker, nil
}

// floatFormatFilter rounds to the given number of decimals. A negative
// count shows decimals only when the value is not whole.
func floatFormatFilter(v any, args []any) (any, error) {
	f, ok := ToFloat(v)
	if !ok {
		return "", nil
	}
	digits := defaultFloatDigits
	if len(args) > 0 {
		if digits, ok = ToInt(args[0]); !ok {
			return nil, fmt.Errorf("%s: %s", FilterFloatFormat, ErrMsgNotANumber)
		}
	}
	if digits < 0 {
		pow := math.Pow(10, float64(-digits))
		if math.Round(f*pow)/pow == math.Trunc(f) {
			return strconv.FormatFloat(math.Trunc(f), 'f', 0, 64), nil
		}
		digits = -digits
	}
	return strconv.FormatFloat(f, 'f', digits, 64), nil
}

func intCommaFilter(v any, _ []any) (any, error) {
	f, ok := ToFloat(v)
	if !ok {
		return v, nil
	}
	p := message.NewPrinter(language.English)
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		return p.Sprintf("%d", int64(f)), nil
	}
	return p.Sprintf("%v", number.Decimal(f)), nil
}

func ordinalFilter(v any, _ []any) (any, error) {
	n, ok := ToInt(v)
	if !ok {
		return v, nil
	}
	return humanize.Ordinal(n), nil
}

func fileSizeFilter(v any, _ []any) (any, error) {
	f, ok := ToFloat(v)
	if !ok || f < 0 {
		return humanize.Bytes(0), nil
	}
	return humanize.Bytes(uint64(f)), nil
}

func markdownFilter(v any, _ []any) (any, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Stringify(v)), &buf); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgMarkdown, err)
	}
	return buf.String(), nil
}

// stringFormatFilter formats with a printf verb given without its leading %
func stringFormatFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterStringFormat, args, 1); err != nil {
		return nil, err
	}
	return fmt.Sprintf(stringFormatPercent+Stringify(args[0]), v), nil
}

func divisibleByFilter(v any, args []any) (any, error) {
	if err := requireArgs(FilterDivisibleBy, args, 1); err != nil {
		return nil, err
	}
	n, ok1 := ToInt(v)
	d, ok2 := ToInt(args[0])
	if !ok1 || !ok2 || d == 0 {
		return nil, fmt.Errorf("%s: %s", FilterDivisibleBy, ErrMsgNotANumber)
	}
	return n%d == 0, nil
}
