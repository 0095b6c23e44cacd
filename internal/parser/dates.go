package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateTimeFormats 带时间部分的格式，按出现频率排序逐个尝试
var dateTimeFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"01/02/2006 15:04:05",
	"2006/01/02 15:04:05",
	"02-Jan-2006 15:04:05",
	"2006-01-02 15:04",
	"01/02/2006 3:04 PM",
}

// dateFormats 纯日期格式
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"2006年1月2日",
}

// 文本里扫日期用的模式
var (
	parenRe     = regexp.MustCompile(`[(（]([^)）]+)[)）]`)
	isoDateRe   = regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`)
	monthNameRe = regexp.MustCompile(`[A-Z][a-z]{2,8}\.? \d{1,2},? \d{4}(?: \d{1,2}:\d{2}(?::\d{2})?(?: ?[AP]M)?)?`)
)

// ParseFlexibleDate 按格式级联解析日期字符串，包括 Excel 序列号。
// 完全解析不出来时 ok 为 false，调用方自行兜底。
func ParseFlexibleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateTimeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Excel 日期序列号：单元格没设日期格式时读出来就是这种
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 20000 && f < 80000 {
		if t, err := excelize.ExcelDateToTime(f, false); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// ExtractDateFromText 从自由文本里抽日期。
// 先整体解析，再看括号里的内容（厂商状态串常见写法，如
// "Completed( Aug 27, 2025 11:24:43 PM )"），最后全文扫日期样式的片段。
func ExtractDateFromText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := ParseFlexibleDate(s); ok {
		return t, true
	}

	for _, m := range parenRe.FindAllStringSubmatch(s, -1) {
		if t, ok := ParseFlexibleDate(strings.TrimSpace(m[1])); ok {
			return t, true
		}
	}

	if frag := isoDateRe.FindString(s); frag != "" {
		if t, ok := ParseFlexibleDate(frag); ok {
			return t, true
		}
	}
	if frag := monthNameRe.FindString(s); frag != "" {
		if t, ok := ParseFlexibleDate(strings.TrimSpace(frag)); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

// HasTimePart 判断原始文本是否带时分秒，决定输出用日期还是完整时间
func HasTimePart(s string) bool {
	return strings.Contains(s, ":")
}

// FormatDate 输出 ISO 日期
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateTime 输出 ISO 日期时间
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// trueTokens / falseTokens 布尔词表，各家导出的写法都收进来
var trueTokens = map[string]struct{}{
	"true": {}, "yes": {}, "y": {}, "1": {}, "enabled": {}, "on": {},
	"active": {}, "connected": {}, "online": {}, "compliant": {},
	"managed": {}, "supervised": {}, "up to date": {}, "up-to-date": {},
	"uptodate": {}, "latest": {}, "completed": {}, "success": {},
	"passed": {}, "installed": {}, "protected": {}, "是": {},
}

var falseTokens = map[string]struct{}{
	"false": {}, "no": {}, "n": {}, "0": {}, "disabled": {}, "off": {},
	"inactive": {}, "disconnected": {}, "offline": {}, "noncompliant": {},
	"non-compliant": {}, "not compliant": {}, "unmanaged": {}, "outdated": {},
	"out of date": {}, "pending": {}, "failed": {}, "never": {}, "否": {},
}

// ParseFlexibleBool 宽松布尔解析，词表外的值一律按 false 处理
func ParseFlexibleBool(s string) bool {
	_, ok := trueTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// isBooleanToken 判断值是否属于布尔词表，分类器采样用
func isBooleanToken(s string) bool {
	k := strings.ToLower(strings.TrimSpace(s))
	if _, ok := trueTokens[k]; ok {
		return true
	}
	_, ok := falseTokens[k]
	return ok
}
