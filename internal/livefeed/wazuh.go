package livefeed

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"soccentral/internal/calculator"
	"soccentral/internal/config"
	"soccentral/internal/model"
	"soccentral/internal/parser"
)

// FileTypeWazuh Wazuh 实时快照的结果类型标识
const FileTypeWazuh = "wazuh-live"

const (
	agentPageSize = 500
	// tokenTTL Wazuh JWT 默认 900 秒，留出余量提前换新
	tokenTTL = 10 * time.Minute
)

// Client Wazuh 管理端 API 客户端。
// 拉取 agent 清单并走与文件上传完全相同的计算链路，产出同构结果。
type Client struct {
	cfg        config.WazuhConfig
	calc       *calculator.Calculator
	httpClient *http.Client
	log        *zap.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// New 创建 Wazuh 客户端
func New(cfg config.WazuhConfig, score config.ScoreConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	transport := http.DefaultTransport
	if cfg.Insecure {
		// Wazuh 默认自签名证书
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		cfg:  cfg,
		calc: calculator.New(score),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		log: log,
	}
}

// wazuhAgent Wazuh /agents 接口返回的单个 agent
type wazuhAgent struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	IP            string   `json:"ip"`
	Status        string   `json:"status"` // active / disconnected / pending / never_connected
	Version       string   `json:"version"`
	Manager       string   `json:"manager"`
	DateAdd       string   `json:"dateAdd"`
	LastKeepAlive string   `json:"lastKeepAlive"`
	Group         []string `json:"group"`
	OS            struct {
		Name     string `json:"name"`
		Version  string `json:"version"`
		Platform string `json:"platform"`
	} `json:"os"`
}

type wazuhListResponse struct {
	Data struct {
		AffectedItems      []wazuhAgent `json:"affected_items"`
		TotalAffectedItems int          `json:"total_affected_items"`
	} `json:"data"`
	Error int `json:"error"`
}

type wazuhAuthResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Snapshot 拉取全量 agent 并计算 KPI，返回与上传处理同构的结果
func (c *Client) Snapshot(ctx context.Context) (*model.Result, error) {
	agents, err := c.fetchAgents(ctx)
	if err != nil {
		return nil, err
	}

	out := buildParseOutput(agents)
	kpis, analytics := c.calc.Compute(out)

	entity := out.Entities["endpoints"]
	result := &model.Result{
		FileType:  FileTypeWazuh,
		Success:   true,
		KPIs:      kpis,
		Details:   map[string][]model.Record{"endpoints": entity.Records},
		Analytics: analytics,
		Metadata: model.Metadata{
			ProcessedAt: parser.FormatDateTime(time.Now()),
			SourceFile:  c.cfg.BaseURL,
			SheetNames:  out.SheetNames,
			RowCounts:   map[string]int{"endpoints": len(entity.Records)},
		},
	}
	parser.SanitizeResult(result)

	c.log.Info("wazuh snapshot fetched",
		zap.Int("agents", len(agents)),
		zap.String("baseUrl", c.cfg.BaseURL))
	return result, nil
}

// fetchAgents 分页拉取全部 agent，manager 自身（id 000）不计入
func (c *Client) fetchAgents(ctx context.Context) ([]wazuhAgent, error) {
	var agents []wazuhAgent
	offset := 0

	for {
		var page wazuhListResponse
		path := fmt.Sprintf("/agents?offset=%d&limit=%d&q=id!=000", offset, agentPageSize)
		if err := c.getJSON(ctx, path, &page); err != nil {
			return nil, err
		}
		if page.Error != 0 {
			return nil, fmt.Errorf("wazuh api returned error code %d", page.Error)
		}

		agents = append(agents, page.Data.AffectedItems...)
		if len(page.Data.AffectedItems) == 0 || len(agents) >= page.Data.TotalAffectedItems {
			return agents, nil
		}
		offset += len(page.Data.AffectedItems)
	}
}

// getJSON 发起带 JWT 的 GET 请求，401 时重新认证重试一次
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.authenticate(ctx, attempt > 0)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			strings.TrimSuffix(c.cfg.BaseURL, "/")+path, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to call wazuh api: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			continue
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("wazuh api returned status %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode wazuh response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("wazuh authentication rejected")
}

// authenticate 获取 JWT，未过期时直接复用缓存
func (c *Client) authenticate(ctx context.Context, force bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !force && c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(c.cfg.BaseURL, "/")+"/security/user/authenticate", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to authenticate with wazuh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wazuh authentication returned status %d", resp.StatusCode)
	}

	var auth wazuhAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if auth.Data.Token == "" {
		return "", fmt.Errorf("wazuh authentication returned empty token")
	}

	c.token = auth.Data.Token
	c.tokenExp = time.Now().Add(tokenTTL)
	return c.token, nil
}

// buildParseOutput 把 agent 清单转成与 EDR 上传一致的实体结构，
// 计算走 edr 分支，endpoints 的规范字段名与列别名表保持一致。
func buildParseOutput(agents []wazuhAgent) *parser.ParseOutput {
	latest := latestAgentVersion(agents)

	headers := []string{
		"endpointName", "osName", "osVersion", "agentVersion",
		"isConnected", "isUpToDate", "lastSeen", "ipAddress",
		"serialNumber", "groupName",
	}

	records := make([]model.Record, 0, len(agents))
	rows := make([][]string, 0, len(agents))
	for _, a := range agents {
		name := a.Name
		if name == "" {
			name = "Agent-" + a.ID
		}
		connected := a.Status == "active"
		upToDate := a.Version != "" && a.Version == latest
		lastSeen := formatKeepAlive(a.LastKeepAlive)

		rec := model.Record{
			"endpointName": name,
			"osName":       a.OS.Name,
			"osVersion":    a.OS.Version,
			"agentVersion": a.Version,
			"isConnected":  connected,
			"isUpToDate":   upToDate,
			"lastSeen":     lastSeen,
			"ipAddress":    a.IP,
			"serialNumber": a.ID,
			"groupName":    strings.Join(a.Group, ","),
		}
		records = append(records, rec)

		rows = append(rows, []string{
			name, a.OS.Name, a.OS.Version, a.Version,
			fmt.Sprintf("%t", connected), fmt.Sprintf("%t", upToDate),
			lastSeen, a.IP, a.ID, strings.Join(a.Group, ","),
		})
	}

	table := &parser.Table{
		SheetName: "Wazuh Agents",
		Headers:   headers,
		Rows:      rows,
	}
	profiles := parser.ClassifyTable(table)
	for i := range profiles {
		profiles[i].Canonical = profiles[i].Name
	}

	return &parser.ParseOutput{
		ToolType: "edr",
		Entities: map[string]*parser.EntityData{
			"endpoints": {
				Entity:    "endpoints",
				SheetName: table.SheetName,
				DateField: "lastSeen",
				Records:   records,
				Profiles:  profiles,
			},
		},
		Order:      []string{"endpoints"},
		SheetNames: []string{table.SheetName},
	}
}

// latestAgentVersion 以最大版本号作为基线判断 agent 是否已升级
func latestAgentVersion(agents []wazuhAgent) string {
	latest := ""
	for _, a := range agents {
		if a.Version > latest {
			latest = a.Version
		}
	}
	return latest
}

// formatKeepAlive Wazuh 的 lastKeepAlive 是 RFC3339（可能带毫秒），统一成内部日期时间格式
func formatKeepAlive(s string) string {
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return parser.FormatDateTime(t)
	}
	if t, ok := parser.ParseFlexibleDate(s); ok {
		return parser.FormatDateTime(t)
	}
	return s
}
