package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadTable 把一个 sheet 读成表结构。
// 第一个非空行当表头，表头前的行丢弃；数据行里整行空白的跳过；
// 行数到达 rowCap 截断并打标记。单元格统一按显示字符串取值。
func ReadTable(f *excelize.File, sheet string, rowCap int) (*Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	table := &Table{SheetName: sheet}

	headerIdx := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	headers := rows[headerIdx]
	table.Headers = make([]string, len(headers))
	for i, h := range headers {
		table.Headers[i] = strings.TrimSpace(h)
	}

	for _, row := range rows[headerIdx+1:] {
		if isBlankRow(row) {
			continue
		}
		if rowCap > 0 && len(table.Rows) >= rowCap {
			table.Truncated = true
			break
		}
		// 对齐到表头宽度，excelize 会把行尾空单元格吃掉
		cells := make([]string, len(table.Headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = strings.TrimSpace(row[i])
			}
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}
