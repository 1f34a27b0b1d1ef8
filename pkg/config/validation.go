package config

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// String returns the configuration with secret fields masked.
func (c *Config) String() string {
	return formatStruct(reflect.ValueOf(c).Elem(), "")
}

// RedactURL hides the password of a connection URL. Non-URL DSNs are fully masked.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		return "***"
	}
	if _, ok := u.User.Password(); !ok {
		return u.String()
	}
	// url.Userinfo escapes '*', so the mask is spliced in after encoding.
	user := url.User(u.User.Username()).String()
	u.User = nil
	rest := strings.TrimPrefix(u.String(), u.Scheme+"://")
	return u.Scheme + "://" + user + ":***@" + rest
}

func formatStruct(v reflect.Value, prefix string) string {
	var sb strings.Builder
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		value := v.Field(i)

		if !value.CanInterface() {
			continue
		}

		fieldName := field.Name
		if tag := field.Tag.Get("mapstructure"); tag != "" && tag != "-" {
			fieldName = tag
		}

		switch {
		case value.Kind() == reflect.Struct:
			sb.WriteString(fmt.Sprintf("%s%s:\n", prefix, fieldName))
			sb.WriteString(formatStruct(value, prefix+"  "))
		case field.Tag.Get("secret") == "true" && value.Kind() == reflect.String:
			sb.WriteString(fmt.Sprintf("%s%s: %v\n", prefix, fieldName, RedactURL(value.String())))
		default:
			sb.WriteString(fmt.Sprintf("%s%s: %v\n", prefix, fieldName, value.Interface()))
		}
	}

	return sb.String()
}
