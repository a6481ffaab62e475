package dto

// HealthDTO 健康检查响应
type HealthDTO struct {
	Status     string  `json:"status"`
	Version    string  `json:"version"`
	Database   string  `json:"database"`
	Embedding  string  `json:"embedding"`
	Uptime     string  `json:"uptime"`
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float64 `json:"memPercent"`
	Goroutines int     `json:"goroutines"`
}
