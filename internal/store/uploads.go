package store

import (
	"database/sql"
	"fmt"

	"soccentral/internal/model"
)

// CreateUpload 登记一次上传，初始状态 processing
func (s *Store) CreateUpload(id, filename string) error {
	_, err := s.db.Exec(`
		INSERT INTO uploads (id, filename, status)
		VALUES (?, ?, 'processing')
	`, id, filename)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// FinishUpload 处理完成后回写上传状态与统计
func (s *Store) FinishUpload(id, toolType, status string, sheetCount, rowCount int, syntheticDates bool, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE uploads SET
			tool_type = ?,
			status = ?,
			sheet_count = ?,
			row_count = ?,
			synthetic_dates = ?,
			error_message = ?
		WHERE id = ?
	`, toolType, status, sheetCount, rowCount, boolToInt(syntheticDates), errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to finish upload: %w", err)
	}
	return nil
}

// SaveResult 保存清洗后的结果 JSON，同一上传重复保存时覆盖
func (s *Store) SaveResult(uploadID string, payload []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO results (upload_id, payload) VALUES (?, ?)
		ON CONFLICT(upload_id) DO UPDATE SET payload = excluded.payload
	`, uploadID, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// GetResult 取某次上传的结果 JSON，没有时返回 sql.ErrNoRows
func (s *Store) GetResult(uploadID string) ([]byte, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM results WHERE upload_id = ?`, uploadID).Scan(&payload)
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// ActivateUpload 把某次上传设为其工具类型下的当前数据集。
// 同工具类型只允许一个 active，事务里先清旧的再立新的
func (s *Store) ActivateUpload(uploadID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var toolType string
	if err := tx.QueryRow(`SELECT tool_type FROM uploads WHERE id = ?`, uploadID).Scan(&toolType); err != nil {
		return fmt.Errorf("failed to find upload: %w", err)
	}

	if _, err := tx.Exec(`UPDATE uploads SET active = 0 WHERE tool_type = ?`, toolType); err != nil {
		return fmt.Errorf("failed to deactivate previous uploads: %w", err)
	}
	if _, err := tx.Exec(`UPDATE uploads SET active = 1 WHERE id = ?`, uploadID); err != nil {
		return fmt.Errorf("failed to activate upload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ActiveResult 取当前展示数据集的结果 JSON。
// toolType 为空时取最近激活的任意一个
func (s *Store) ActiveResult(toolType string) (string, []byte, error) {
	query := `
		SELECT u.id, r.payload
		FROM uploads u
		JOIN results r ON r.upload_id = u.id
		WHERE u.active = 1`
	args := []interface{}{}

	if toolType != "" {
		query += " AND u.tool_type = ?"
		args = append(args, toolType)
	}
	query += " ORDER BY u.created_at DESC LIMIT 1"

	var id, payload string
	err := s.db.QueryRow(query, args...).Scan(&id, &payload)
	if err != nil {
		return "", nil, err
	}
	return id, []byte(payload), nil
}

// UploadQueryOptions 上传列表查询选项
type UploadQueryOptions struct {
	ToolType *string
	Status   *string
	Active   *bool
	Limit    int
	Offset   int
}

// ListUploads 按条件查上传记录，新的在前
func (s *Store) ListUploads(opts UploadQueryOptions) ([]*model.Upload, error) {
	query := `
		SELECT id, filename, tool_type, status, sheet_count, row_count,
		       synthetic_dates, active, created_at
		FROM uploads WHERE 1=1`
	args := []interface{}{}

	if opts.ToolType != nil {
		query += " AND tool_type = ?"
		args = append(args, *opts.ToolType)
	}
	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, *opts.Status)
	}
	if opts.Active != nil {
		query += " AND active = ?"
		args = append(args, boolToInt(*opts.Active))
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	defer rows.Close()

	return scanUploadRows(rows)
}

// GetUpload 按 id 取单条上传记录
func (s *Store) GetUpload(id string) (*model.Upload, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, tool_type, status, sheet_count, row_count,
		       synthetic_dates, active, created_at
		FROM uploads WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload: %w", err)
	}
	defer rows.Close()

	list, err := scanUploadRows(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, sql.ErrNoRows
	}
	return list[0], nil
}

// DeleteUpload 删除上传及其结果（外键级联）
func (s *Store) DeleteUpload(id string) error {
	_, err := s.db.Exec(`DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// LogAccess 记一条接口访问流水
func (s *Store) LogAccess(path, method string, status int, clientIP string) error {
	_, err := s.db.Exec(`
		INSERT INTO access_log (path, method, status, client_ip)
		VALUES (?, ?, ?, ?)
	`, path, method, status, clientIP)
	if err != nil {
		return fmt.Errorf("failed to log access: %w", err)
	}
	return nil
}

// CountUploads 各状态的上传数量，状态页用
func (s *Store) CountUploads() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM uploads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count uploads: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanUploadRows(rows *sql.Rows) ([]*model.Upload, error) {
	var list []*model.Upload
	for rows.Next() {
		u := &model.Upload{}
		var synthetic, active int
		if err := rows.Scan(&u.ID, &u.Filename, &u.ToolType, &u.Status,
			&u.SheetCount, &u.RowCount, &synthetic, &active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		u.SyntheticDates = synthetic != 0
		u.Active = active != 0
		list = append(list, u)
	}
	return list, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
