package semipoly

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"
)

// ============================================================
// JSON Serialization
// ============================================================

// ToJSON renders an expression as a JSON document. Internal tagged
// values never escape the decomposition, so they are not encodable.
func ToJSON(e Expr) (string, error) {
	m, err := toJSONMap(e)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "semipoly: encode expression")
	}
	return string(b), nil
}

func toJSONMap(e Expr) (map[string]interface{}, error) {
	switch v := e.(type) {
	case *Num:
		return map[string]interface{}{"type": "num", "value": v.String()}, nil
	case *Sym:
		return map[string]interface{}{"type": "sym", "name": v.name}, nil
	case *Add:
		terms, err := toJSONList(v.terms)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "add", "terms": terms}, nil
	case *Mul:
		factors, err := toJSONList(v.factors)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "mul", "factors": factors}, nil
	case *Pow:
		base, err := toJSONMap(v.base)
		if err != nil {
			return nil, err
		}
		exp, err := toJSONMap(v.exp)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "pow", "base": base, "exp": exp}, nil
	case *Div:
		num, err := toJSONMap(v.num)
		if err != nil {
			return nil, err
		}
		den, err := toJSONMap(v.den)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "div", "num": num, "den": den}, nil
	case *Func:
		arg, err := toJSONMap(v.arg)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"type": "func", "name": v.name, "arg": arg}, nil
	}
	return nil, errors.Errorf("semipoly: expression kind %q is not encodable", e.exprType())
}

func toJSONList(exprs []Expr) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, len(exprs))
	for i, e := range exprs {
		m, err := toJSONMap(e)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// ParseJSON decodes a JSON document into an expression.
func ParseJSON(data []byte) (Expr, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "semipoly: decode expression")
	}
	return FromJSON(m)
}

// FromJSON rebuilds an expression from its decoded JSON object form.
// Nodes go through the simplifying constructors, matching what a caller
// building the same tree in code would get.
func FromJSON(data map[string]interface{}) (Expr, error) {
	if data == nil {
		return nil, errors.New("semipoly: expression must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, errors.New("semipoly: field 'type' must be a non-empty string")
	}

	subObj := func(field string) (map[string]interface{}, error) {
		m, ok := data[field].(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("semipoly: %s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subExpr := func(field string) (Expr, error) {
		m, err := subObj(field)
		if err != nil {
			return nil, err
		}
		e, err := FromJSON(m)
		return e, errors.Wrapf(err, "%s: %q", typ, field)
	}

	subExprList := func(field string) ([]Expr, error) {
		raw, ok := data[field].([]interface{})
		if !ok {
			return nil, errors.Errorf("semipoly: %s: %q must be an array", typ, field)
		}
		out := make([]Expr, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, errors.Errorf("semipoly: %s: %q[%d] must be an object", typ, field, i)
			}
			e, err := FromJSON(m)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: %q[%d]", typ, field, i)
			}
			out[i] = e
		}
		return out, nil
	}

	switch typ {
	case "num":
		val, ok := data["value"].(string)
		if !ok || val == "" {
			return nil, errors.New("semipoly: num: 'value' must be a non-empty string")
		}
		r := new(big.Rat)
		if _, ok := r.SetString(val); !ok {
			return nil, errors.Errorf("semipoly: invalid num value %q", val)
		}
		return &Num{val: r}, nil

	case "sym":
		name, ok := data["name"].(string)
		if !ok || name == "" {
			return nil, errors.New("semipoly: sym: 'name' must be a non-empty string")
		}
		return S(name), nil

	case "add":
		terms, err := subExprList("terms")
		if err != nil {
			return nil, err
		}
		return AddOf(terms...), nil

	case "mul":
		factors, err := subExprList("factors")
		if err != nil {
			return nil, err
		}
		return MulOf(factors...), nil

	case "pow":
		base, err := subExpr("base")
		if err != nil {
			return nil, err
		}
		exp, err := subExpr("exp")
		if err != nil {
			return nil, err
		}
		return PowOf(base, exp), nil

	case "div":
		num, err := subExpr("num")
		if err != nil {
			return nil, err
		}
		den, err := subExpr("den")
		if err != nil {
			return nil, err
		}
		return DivOf(num, den), nil

	case "func":
		name, ok := data["name"].(string)
		if !ok || name == "" {
			return nil, errors.New("semipoly: func: 'name' must be a non-empty string")
		}
		arg, err := subExpr("arg")
		if err != nil {
			return nil, err
		}
		return funcOf(name, arg).Simplify(), nil
	}
	return nil, errors.Errorf("semipoly: unknown expression type %q", typ)
}
