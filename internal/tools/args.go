package tools

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// Args is a decoded tool argument object.
type Args map[string]any

// DecodeArgs parses a JSON argument object. Empty input yields empty Args.
func DecodeArgs(raw json.RawMessage) (Args, error) {
	args := Args{}
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, toolerr.Newf(toolerr.KindInvalidArgument, "", "arguments must be a JSON object: %v", err)
	}
	return args, nil
}

// String returns the named string argument, or "" when absent or null.
func (a Args) String(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", toolerr.Newf(toolerr.KindInvalidArgument, "", "Argument %s must be a string", name)
	}
	return s, nil
}

// Required returns the named string argument, failing when it is absent or
// empty.
func (a Args) Required(name string) (string, error) {
	s, err := a.String(name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", toolerr.Missing(name)
	}
	return s, nil
}

// StringOr returns the named string argument or def when absent or empty.
func (a Args) StringOr(name, def string) (string, error) {
	s, err := a.String(name)
	if err != nil || s != "" {
		return s, err
	}
	return def, nil
}

// Bool returns the named boolean argument or def when absent or null.
func (a Args) Bool(name string, def bool) (bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, toolerr.Newf(toolerr.KindInvalidArgument, "", "Argument %s must be a boolean", name)
	}
	return b, nil
}

// Int returns the named integer argument or def when absent or null.
func (a Args) Int(name string, def int) (int, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, toolerr.Newf(toolerr.KindInvalidArgument, "", "Argument %s must be an integer", name)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, toolerr.Newf(toolerr.KindInvalidArgument, "", "Argument %s must be an integer", name)
		}
		return int(i), nil
	default:
		return 0, toolerr.Newf(toolerr.KindInvalidArgument, "", "Argument %s must be an integer", name)
	}
}
