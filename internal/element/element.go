package element

import (
	"fmt"
	"strconv"
	"strings"
)

// Element is a named logical input slot on a device.
type Element struct {
	Name    string
	Content Content
}

// Type returns the element's content type.
func (e *Element) Type() Type {
	return e.Content.Type()
}

// String renders the element in spec grammar.
func (e *Element) String() string {
	return FormatSpec(e)
}

// Parse parses a single element spec of the form
//
//	<name> <type> [<type-params>]
//
// Type parameters:
//
//	trigger                      (none)
//	switch   [state]             state is 0|1|true|false|on|off
//	valuator min max [initial]   initial defaults to 0 clamped to [min,max]
//	vector   size [(min max [value]) * size]
//	keyboard [code]
//
// For vectors the component list is either empty (each component ranges
// over [-1,1]), 2*size numbers or 3*size numbers.
func Parse(spec string) (*Element, error) {
	fields := strings.Fields(spec)
	if len(fields) < 2 {
		return nil, &ParseError{Text: spec, Err: fmt.Errorf("%w: need name and type", ErrSyntax)}
	}

	typ, err := ParseType(fields[1])
	if err != nil {
		return nil, &ParseError{Text: spec, Err: err}
	}

	content, err := parseParams(typ, fields[2:])
	if err != nil {
		return nil, &ParseError{Text: spec, Err: err}
	}

	return &Element{Name: fields[0], Content: content}, nil
}

// ParseList parses a list of element specs. Blank lines and lines starting
// with '#' are skipped. Invalid lines are reported in errs and skipped; the
// remaining elements are still returned.
func ParseList(lines []string) (elems []*Element, errs []error) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		e, err := Parse(trimmed)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.Line = i + 1
			}
			errs = append(errs, err)
			continue
		}
		elems = append(elems, e)
	}
	return elems, errs
}

func parseParams(typ Type, params []string) (Content, error) {
	switch typ {
	case Trigger:
		if len(params) != 0 {
			return nil, fmt.Errorf("%w: trigger takes no parameters", ErrSyntax)
		}
		return &TriggerContent{}, nil

	case Switch:
		c := &SwitchContent{}
		switch len(params) {
		case 0:
		case 1:
			state, err := parseBool(params[0])
			if err != nil {
				return nil, err
			}
			c.State = state
		default:
			return nil, fmt.Errorf("%w: switch takes at most one parameter", ErrSyntax)
		}
		return c, nil

	case Valuator:
		if len(params) < 2 || len(params) > 3 {
			return nil, fmt.Errorf("%w: valuator needs min max [initial]", ErrSyntax)
		}
		nums, err := parseFloats(params)
		if err != nil {
			return nil, err
		}
		c := &ValuatorContent{Min: nums[0], Max: nums[1]}
		if len(nums) == 3 {
			c.Value = nums[2]
		} else {
			c.Value = clamp(0, c.Min, c.Max)
		}
		return c, nil

	case Vector:
		if len(params) < 1 {
			return nil, fmt.Errorf("%w: vector needs a size", ErrSyntax)
		}
		size, err := strconv.Atoi(params[0])
		if err != nil || size < 0 {
			return nil, fmt.Errorf("%w: invalid vector size %q", ErrSyntax, params[0])
		}
		nums, err := parseFloats(params[1:])
		if err != nil {
			return nil, err
		}
		v := NewVector(size)
		switch len(nums) {
		case 0:
			for i := range v.Value {
				v.Min[i], v.Max[i] = -1, 1
			}
		case 2 * size:
			for i := range v.Value {
				v.Min[i], v.Max[i] = nums[2*i], nums[2*i+1]
				v.Value[i] = clamp(0, v.Min[i], v.Max[i])
			}
		case 3 * size:
			for i := range v.Value {
				v.Min[i], v.Max[i], v.Value[i] = nums[3*i], nums[3*i+1], nums[3*i+2]
			}
		default:
			return nil, fmt.Errorf("%w: vector of size %d needs 0, %d or %d numbers, got %d",
				ErrSyntax, size, 2*size, 3*size, len(nums))
		}
		return v, nil

	case Keyboard:
		c := &KeyboardContent{}
		switch len(params) {
		case 0:
		case 1:
			code, err := strconv.Atoi(params[0])
			if err != nil {
				return nil, fmt.Errorf("%w: invalid key code %q", ErrSyntax, params[0])
			}
			c.Code = code
		default:
			return nil, fmt.Errorf("%w: keyboard takes at most one parameter", ErrSyntax)
		}
		return c, nil
	}

	return nil, ErrUnknownType
}

func parseFloats(params []string) ([]float64, error) {
	nums := make([]float64, len(params))
	for i, p := range params {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q", ErrSyntax, p)
		}
		nums[i] = f
	}
	return nums, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: invalid switch state %q", ErrSyntax, s)
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatSpec renders e in the grammar accepted by Parse.
func FormatSpec(e *Element) string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	sb.WriteByte(' ')
	switch c := e.Content.(type) {
	case *TriggerContent:
		sb.WriteString("trigger")
	case *SwitchContent:
		fmt.Fprintf(&sb, "switch %d", boolInt(c.State))
	case *ValuatorContent:
		fmt.Fprintf(&sb, "valuator %g %g %g", c.Min, c.Max, c.Value)
	case *VectorContent:
		fmt.Fprintf(&sb, "vector %d", c.Size())
		for i := range c.Value {
			fmt.Fprintf(&sb, " %g %g %g", c.Min[i], c.Max[i], c.Value[i])
		}
	case *KeyboardContent:
		fmt.Fprintf(&sb, "keyboard %d", c.Code)
	default:
		sb.WriteString("unknown")
	}
	return sb.String()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
