// Package service 实现业务逻辑层
package service

// ServiceConfig 服务层配置
type ServiceConfig struct {
	Search   SearchConfig
	Backfill BackfillConfig
}

// SearchConfig 检索排序配置
type SearchConfig struct {
	// SemanticWeight and LexicalWeight weigh the two scores of a note that has
	// an embedding while the query embedding is available.
	SemanticWeight float64 `yaml:"semantic-weight" default:"0.7"`
	LexicalWeight  float64 `yaml:"lexical-weight" default:"0.3"`
	// MaxResults caps the result list, 0 returns every candidate.
	MaxResults int `yaml:"max-results" default:"0"`
}

// BackfillConfig 向量补全配置
type BackfillConfig struct {
	BatchSize int `yaml:"batch-size" default:"100"`
}

// DefaultServiceConfig 返回默认配置
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Search:   SearchConfig{SemanticWeight: 0.7, LexicalWeight: 0.3},
		Backfill: BackfillConfig{BatchSize: 100},
	}
}
