// Package bind decodes and validates request input for handlers
package bind

import (
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	perr "stopsearch/internal/platform/errors"
	"stopsearch/internal/platform/validate"
)

// Query decodes r's query string into T using `query` tags, then validates T.
// Supported field kinds are string, bool, ints, floats and pointers to them;
// a pointer stays nil when the key is absent
func Query[T any](r *http.Request) (T, error) {
	var dst T
	if err := Values(r.URL.Query(), &dst); err != nil {
		var zero T
		return zero, err
	}
	if err := validate.Struct(dst, perr.ErrorCodeValidation); err != nil {
		var zero T
		return zero, err
	}
	return dst, nil
}

// Values decodes vals into the struct pointed to by dst
func Values(vals url.Values, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return perr.Newf(perr.ErrorCodeUnknown, "bind target must be a struct pointer, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		sf := rt.Field(i)
		name, _, _ := strings.Cut(sf.Tag.Get("query"), ",")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		raw := strings.TrimSpace(vals.Get(name))
		if raw == "" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			p := reflect.New(fv.Type().Elem())
			if err := set(p.Elem(), raw, name); err != nil {
				return err
			}
			fv.Set(p)
			continue
		}
		if err := set(fv, raw, name); err != nil {
			return err
		}
	}
	return nil
}

func set(fv reflect.Value, raw, name string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return invalid(name, "a boolean")
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return invalid(name, "an integer")
		}
		fv.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return invalid(name, "a number")
		}
		fv.SetFloat(f)
	default:
		return perr.Newf(perr.ErrorCodeUnknown, "unsupported query field kind %s for %s", fv.Kind(), name)
	}
	return nil
}

func invalid(name, what string) error {
	return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s must be %s", name, what), name)
}
