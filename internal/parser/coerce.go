package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericCleanRe 去掉千分位逗号、百分号、货币符号等装饰字符
var numericCleanRe = regexp.MustCompile(`[,，%％$¥\s]`)

func cleanNumericString(s string) string {
	return numericCleanRe.ReplaceAllString(strings.TrimSpace(s), "")
}

// ToFloat 尽力把任意单元格值转成 float64。
// nil、NaN、Inf、解析失败一律返回默认值，绝不报错。
func ToFloat(v any, def float64) float64 {
	switch x := v.(type) {
	case nil:
		return def
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return def
		}
		return x
	case float32:
		return ToFloat(float64(x), def)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := cleanNumericString(x)
		if s == "" {
			return def
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	}
	return def
}

// ToInt 尽力转 int，小数截断
func ToInt(v any, def int) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	}
	f := ToFloat(v, math.NaN())
	if math.IsNaN(f) {
		return def
	}
	return int(f)
}

// SafePercentage 安全的百分比计算。
// 分母为零或任一参数非有限时返回默认值，否则保留两位小数。
func SafePercentage(numerator, denominator, def float64) float64 {
	if denominator == 0 ||
		math.IsNaN(numerator) || math.IsInf(numerator, 0) ||
		math.IsNaN(denominator) || math.IsInf(denominator, 0) {
		return def
	}
	return Round2(numerator / denominator * 100)
}

// Round2 四舍五入保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp 把 v 限制在 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// looksNumeric 判断字符串清洗后能否按数值解析，分类器采样用
func looksNumeric(s string) bool {
	c := cleanNumericString(s)
	if c == "" {
		return false
	}
	_, err := strconv.ParseFloat(c, 64)
	return err == nil
}
