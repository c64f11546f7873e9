package cache

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Key identifies one fetched view of a resource: the resource name plus its
// canonical filter parameters. Keys are comparable; two keys are equal iff
// their canonical forms are byte-equal.
type Key struct {
	resource string
	params   string
}

const paramSeparator = "&"

// Encode builds the Key for resource filtered by params.
//
// Parameter names are sorted and each name=value pair is query-escaped, so
// equivalent maps always produce the same Key. Values must be strings,
// booleans, or numbers (named types over those kinds are accepted); an int 3
// and the string "3" encode identically, as they would in a query string.
func Encode(resource string, params map[string]any) (Key, error) {
	if strings.TrimSpace(resource) == "" {
		return Key{}, &KeyError{Resource: resource, Reason: "resource name is empty"}
	}
	if len(params) == 0 {
		return Key{resource: resource}, nil
	}

	names := make([]string, 0, len(params))
	for name := range params {
		if name == "" {
			return Key{}, &KeyError{Resource: resource, Reason: "empty param name"}
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	for i, name := range names {
		v, err := formatParam(params[name])
		if err != nil {
			return Key{}, &KeyError{Resource: resource, Param: name, Reason: err.Error()}
		}
		if i > 0 {
			b.WriteString(paramSeparator)
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	return Key{resource: resource, params: b.String()}, nil
}

// MustEncode is like Encode but panics on error. Use it for keys built from
// constants.
func MustEncode(resource string, params map[string]any) Key {
	k, err := Encode(resource, params)
	if err != nil {
		panic(err)
	}
	return k
}

func formatParam(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("nil value")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// Resource returns the resource name component.
func (k Key) Resource() string { return k.resource }

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool { return k.resource == "" }

// String returns the encoded key, "resource" or "resource?name=value&...".
func (k Key) String() string {
	if k.params == "" {
		return k.resource
	}
	return k.resource + "?" + k.params
}

// Query returns the filter parameters as url.Values.
func (k Key) Query() url.Values {
	if k.params == "" {
		return url.Values{}
	}
	// The canonical form is produced by Encode and always parses.
	v, _ := url.ParseQuery(k.params)
	return v
}
