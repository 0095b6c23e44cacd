package parser

import "testing"

func TestLoadAliasTable_EmbeddedRules(t *testing.T) {
	t.Parallel()

	table, err := LoadAliasTable()
	if err != nil {
		t.Fatalf("load alias table: %v", err)
	}
	if len(table.Tools) < 2 {
		t.Fatalf("tools want>=2 got=%d", len(table.Tools))
	}
	if table.Tool("edr") == nil {
		t.Fatalf("edr rules missing")
	}
	if table.Tool("mdm") == nil {
		t.Fatalf("mdm rules missing")
	}
	if table.Tool("nonexistent") != nil {
		t.Fatalf("unknown tool should be nil")
	}
}

func TestAliasTable_DeclaredFieldsAreConsistent(t *testing.T) {
	t.Parallel()

	table := MustAliasTable()
	for _, tool := range table.Tools {
		if tool.Type == "" {
			t.Fatalf("tool with empty type")
		}
		if len(tool.Entities) == 0 {
			t.Fatalf("tool %s has no entities", tool.Type)
		}
		for _, entity := range tool.Entities {
			if entity.IDField == "" {
				t.Fatalf("%s/%s missing id_field", tool.Type, entity.Name)
			}
			if len(entity.SheetAliases) == 0 {
				t.Fatalf("%s/%s missing sheet_aliases", tool.Type, entity.Name)
			}

			declared := map[string]bool{}
			for _, f := range entity.Fields {
				if f.Canonical == "" || len(f.Aliases) == 0 {
					t.Fatalf("%s/%s has incomplete field %+v", tool.Type, entity.Name, f)
				}
				if declared[f.Canonical] {
					t.Fatalf("%s/%s duplicate canonical %s", tool.Type, entity.Name, f.Canonical)
				}
				declared[f.Canonical] = true
			}
			// 标识和主日期必须是声明过的规范字段
			if !declared[entity.IDField] {
				t.Fatalf("%s/%s id_field %q not declared", tool.Type, entity.Name, entity.IDField)
			}
			if entity.DateField != "" && !declared[entity.DateField] {
				t.Fatalf("%s/%s date_field %q not declared", tool.Type, entity.Name, entity.DateField)
			}
		}
		// 回填规则引用的实体必须存在
		names := map[string]bool{}
		for _, e := range tool.Entities {
			names[e.Name] = true
		}
		for _, rule := range tool.Enrich {
			if !names[rule.Target] || !names[rule.Source] {
				t.Fatalf("%s enrich rule references unknown entity: %+v", tool.Type, rule)
			}
		}
	}
}
