// Package clock 处理 "HH:MM" 与一天内分钟数之间的转换。
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 24 * 60

// ParseHHMM 把 "HH:MM" 解析为当天零点起的分钟数。
// 接受 "9:05" 与 "24:00"（表示当天结束）。
func ParseHHMM(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if len(parts[1]) != 2 || h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatHHMM 把分钟数格式化为 "HH:MM"。超过一天的部分按 24 小时取模。
func FormatHHMM(minutes int) string {
	if minutes == MinutesPerDay {
		return "24:00"
	}
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
