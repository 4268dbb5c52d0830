package transmute

import (
	"fmt"
	"net/http"
	"strings"
)

// Category is where an argument is read from in an HTTP request.
type Category int

const (
	CategoryQuery Category = iota
	CategoryBody
	CategoryHeader
	CategoryPath
)

// String returns the Swagger "in" value for the category.
func (c Category) String() string {
	switch c {
	case CategoryQuery:
		return "query"
	case CategoryBody:
		return "body"
	case CategoryHeader:
		return "header"
	case CategoryPath:
		return "path"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// ArgumentSets partitions a function's arguments by category. Each set keeps
// signature order.
type ArgumentSets struct {
	Query  []Argument
	Body   []Argument
	Header []Argument
	Path   []Argument
}

// Category returns the category of the named argument.
func (s ArgumentSets) Category(name string) (Category, bool) {
	for c, args := range s.byCategory() {
		for _, a := range args {
			if a.Name == name {
				return c, true
			}
		}
	}
	return 0, false
}

func (s ArgumentSets) byCategory() map[Category][]Argument {
	return map[Category][]Argument{
		CategoryQuery:  s.Query,
		CategoryBody:   s.Body,
		CategoryHeader: s.Header,
		CategoryPath:   s.Path,
	}
}

func (s *ArgumentSets) add(c Category, a Argument) {
	switch c {
	case CategoryQuery:
		s.Query = append(s.Query, a)
	case CategoryBody:
		s.Body = append(s.Body, a)
	case CategoryHeader:
		s.Header = append(s.Header, a)
	case CategoryPath:
		s.Path = append(s.Path, a)
	}
}

// ArgumentSets categorizes the function's arguments for a URL pattern. For
// each argument, in priority order:
//
//  1. an explicit hint (WithQuery, WithBody, WithHeader, WithPath) wins;
//  2. a name matching a placeholder in pattern is a path argument;
//  3. if GET is the only method the argument is a query argument,
//     otherwise a body argument.
//
// A name listed under two different hints fails with ErrConflictingHints,
// and a hint naming no argument fails with ErrUnknownParameter.
func (f *Function) ArgumentSets(pattern string) (ArgumentSets, error) {
	hints, err := f.hints()
	if err != nil {
		return ArgumentSets{}, err
	}

	placeholders := make(map[string]bool)
	for _, name := range PathParams(pattern) {
		placeholders[name] = true
	}
	getOnly := len(f.Methods) == 1 && f.Methods[0] == http.MethodGet

	var sets ArgumentSets
	for _, a := range f.Signature.Args {
		switch c, hinted := hints[a.Name]; {
		case hinted:
			sets.add(c, a)
		case placeholders[a.Name]:
			sets.add(CategoryPath, a)
		case getOnly:
			sets.add(CategoryQuery, a)
		default:
			sets.add(CategoryBody, a)
		}
	}
	return sets, nil
}

// hints merges the explicit hint lists into a name → category map.
func (f *Function) hints() (map[string]Category, error) {
	lists := []struct {
		category Category
		names    []string
	}{
		{CategoryQuery, f.Attributes.QueryParameters},
		{CategoryBody, f.Attributes.BodyParameters},
		{CategoryHeader, f.Attributes.HeaderParameters},
		{CategoryPath, f.Attributes.PathParameters},
	}

	hints := make(map[string]Category)
	for _, l := range lists {
		for _, name := range l.names {
			if _, ok := f.Signature.Get(name); !ok {
				return nil, fmt.Errorf("%w: %s hint names %q", ErrUnknownParameter, l.category, name)
			}
			if prev, ok := hints[name]; ok && prev != l.category {
				return nil, fmt.Errorf("%w: %q is both %s and %s", ErrConflictingHints, name, prev, l.category)
			}
			hints[name] = l.category
		}
	}
	return hints, nil
}

// PathParams returns the placeholder names in a URL pattern, accepting
// {name}, {name...} and {name:regex}. The {$} end anchor is ignored.
func PathParams(pattern string) []string {
	var names []string
	for {
		_, inner, rest, ok := nextPlaceholder(pattern)
		if !ok {
			return names
		}
		if name := placeholderName(inner); name != "" && name != "$" {
			names = append(names, name)
		}
		pattern = rest
	}
}

// nextPlaceholder splits pattern around its first complete {...} segment.
// Braces inside the segment, as in {id:[0-9]{3}}, nest.
func nextPlaceholder(pattern string) (before, inner, rest string, ok bool) {
	start := strings.IndexByte(pattern, '{')
	if start < 0 {
		return "", "", "", false
	}
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return pattern[:start], pattern[start+1 : i], pattern[i+1:], true
			}
		}
	}
	return "", "", "", false
}

func placeholderName(s string) string {
	name, _, _ := strings.Cut(s, ":")
	return strings.TrimSuffix(strings.TrimSpace(name), "...")
}
