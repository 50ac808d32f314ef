// Package conv 把 YAML/JSON 解码得到的 map[string]any 配置值转换为具体类型。
//
// yaml.v3 把整数解码为 int，go-json 解码为 float64；这里的读取函数对两者一视同仁。
package conv

import "strconv"

// ToFloat64 数值类型转 float64，其他类型返回 false。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// Strings 把 []string 或 []any 转为 []string。数字按最短形式格式化（12.0 → "12"），其他元素跳过。
func Strings(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, e := range val {
			if s, ok := e.(string); ok {
				out = append(out, s)
				continue
			}
			if f, ok := ToFloat64(e); ok {
				out = append(out, strconv.FormatFloat(f, 'f', -1, 64))
			}
		}
		return out
	default:
		return nil
	}
}

// ConfigGet 按 key 取 T，缺失或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if t, ok := m[key].(T); ok {
		return t
	}
	return defaultVal
}

// ConfigGetFloat64 按 key 取数值。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	if f, ok := ToFloat64(m[key]); ok {
		return f
	}
	return defaultVal
}

// ConfigGetInt 按 key 取整数，小数部分截断。
func ConfigGetInt(m map[string]any, key string, defaultVal int) int {
	if f, ok := ToFloat64(m[key]); ok {
		return int(f)
	}
	return defaultVal
}

// ConfigGetStrings 按 key 取字符串列表，见 Strings。
func ConfigGetStrings(m map[string]any, key string) []string {
	return Strings(m[key])
}
