package automation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/model"
)

// 条件运算符对应的表达式, actual 为事件字段值, expected 为规则配置值
var operatorExprs = map[string]string{
	model.OperatorEquals:      "actual == expected",
	model.OperatorNotEquals:   "actual != expected",
	model.OperatorContains:    "actual contains expected",
	model.OperatorGreaterThan: "actual > expected",
	model.OperatorLessThan:    "actual < expected",
	model.OperatorIn:          "actual in expected",
}

// 数组包含判断
const containsElemExpr = "expected in actual"

var (
	programsMu sync.Mutex
	programs   = make(map[string]*vm.Program)
)

func program(code string) (*vm.Program, error) {
	programsMu.Lock()
	defer programsMu.Unlock()

	if p, ok := programs[code]; ok {
		return p, nil
	}
	env := map[string]interface{}{"actual": nil, "expected": nil}
	p, err := expr.Compile(code, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression '%s': %w", code, err)
	}
	programs[code] = p
	return p, nil
}

// ConditionResult 单个条件的判定结果
type ConditionResult struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
	Passed   bool        `json:"passed"`
}

// EvaluateCondition 判定单个条件; 字段缺失或类型不匹配视为不通过
func EvaluateCondition(cond model.AutomationCondition, payload map[string]interface{}) ConditionResult {
	actual, found := Lookup(payload, cond.Field)
	res := ConditionResult{
		Field:    cond.Field,
		Operator: cond.Operator,
		Expected: cond.Value,
		Actual:   actual,
	}

	code, ok := operatorExprs[cond.Operator]
	if !ok {
		return res
	}
	if !found && cond.Operator != model.OperatorNotEquals {
		return res
	}

	actualV, expectedV := normalize(actual), normalize(cond.Value)
	if cond.Operator == model.OperatorContains {
		if _, isString := actualV.(string); isString {
			expectedV = fmt.Sprint(expectedV)
		} else {
			code = containsElemExpr
		}
	}

	p, err := program(code)
	if err != nil {
		return res
	}
	out, err := expr.Run(p, map[string]interface{}{"actual": actualV, "expected": expectedV})
	if err != nil {
		return res
	}
	res.Passed, _ = out.(bool)
	return res
}

// Lookup 按点分路径读取字段, 例如 task.priority
func Lookup(payload map[string]interface{}, field string) (interface{}, bool) {
	var current interface{} = payload
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// normalize 数值统一为 float64, 指针解引用, 切片统一为 []interface{}
func normalize(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	}
	return rv.Interface()
}
