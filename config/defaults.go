package config

import (
	"reflect"
	"strconv"
	"time"

	"github.com/kochabx/authguard/errors"
)

var durationType = reflect.TypeOf(time.Duration(0))

// applyDefaults walks a pointer-to-struct and fills zero-valued fields
// from their `default` tags. Nested structs and pointers to structs are
// descended into; fields already set are left alone.
func applyDefaults(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.Configuration("defaults target must be a non-nil pointer")
	}
	elem := v.Elem()
	if elem.Kind() != reflect.Struct {
		return errors.Configuration("defaults target must point to a struct")
	}
	return applyStructDefaults(elem)
}

func applyStructDefaults(v reflect.Value) error {
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		switch fv.Kind() {
		case reflect.Struct:
			if err := applyStructDefaults(fv); err != nil {
				return err
			}
			continue
		case reflect.Pointer:
			if fv.Type().Elem().Kind() == reflect.Struct {
				if fv.IsNil() {
					fv.Set(reflect.New(fv.Type().Elem()))
				}
				if err := applyStructDefaults(fv.Elem()); err != nil {
					return err
				}
			}
			continue
		}

		tag := field.Tag.Get("default")
		if tag == "" || !fv.IsZero() {
			continue
		}
		if err := setFieldDefault(fv, field.Name, tag); err != nil {
			return err
		}
	}
	return nil
}

func setFieldDefault(fv reflect.Value, name, tag string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(tag)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.Type() == durationType {
			d, err := time.ParseDuration(tag)
			if err != nil {
				return errors.Configuration("invalid duration default for %s: %v", name, err)
			}
			fv.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(tag, 10, 64)
		if err != nil {
			return errors.Configuration("invalid integer default for %s: %v", name, err)
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(tag, 10, 64)
		if err != nil {
			return errors.Configuration("invalid integer default for %s: %v", name, err)
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(tag, 64)
		if err != nil {
			return errors.Configuration("invalid float default for %s: %v", name, err)
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(tag)
		if err != nil {
			return errors.Configuration("invalid bool default for %s: %v", name, err)
		}
		fv.SetBool(b)
	}
	return nil
}
