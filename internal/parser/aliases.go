package parser

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var aliasesYAML []byte

// AliasTable 全部工具的识别规则
type AliasTable struct {
	Tools []ToolSpec `yaml:"tools"`
}

// LoadAliasTable 解析内嵌的别名表
func LoadAliasTable() (*AliasTable, error) {
	var table AliasTable
	if err := yaml.Unmarshal(aliasesYAML, &table); err != nil {
		return nil, fmt.Errorf("failed to parse embedded alias table: %w", err)
	}
	if len(table.Tools) == 0 {
		return nil, fmt.Errorf("embedded alias table has no tools")
	}
	return &table, nil
}

// MustAliasTable 内嵌表解析失败属于构建错误，直接 panic
func MustAliasTable() *AliasTable {
	table, err := LoadAliasTable()
	if err != nil {
		panic(err)
	}
	return table
}

// Tool 按类型取工具规则，找不到返回 nil
func (t *AliasTable) Tool(toolType string) *ToolSpec {
	for i := range t.Tools {
		if t.Tools[i].Type == toolType {
			return &t.Tools[i]
		}
	}
	return nil
}
