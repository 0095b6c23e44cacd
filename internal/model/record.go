package model

// Record 规范化后的单条实体记录。解析阶段按画像推断出的规范字段名填充，
// 每个实体类型的字段集合固定：缺失字段填 nil，而不是缺 key。
type Record map[string]any

// GetString 读取字符串字段，nil 或非字符串返回空串
func (r Record) GetString(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetBool 读取布尔字段，缺失或类型不符返回 false
func (r Record) GetBool(key string) bool {
	if v, ok := r[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// GetFloat 读取数值字段，缺失返回 0
func (r Record) GetFloat(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Clone 浅拷贝一条记录，计算阶段给记录补写派生字段时用，避免污染原表
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
