package service

import (
	"github.com/pinn-product-builder/pinnbai-sub001/common/llm"
	"github.com/pinn-product-builder/pinnbai-sub001/core/config"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/lock"
	"github.com/pinn-product-builder/pinnbai-sub001/internal/store"
)

type Services struct {
	stores    *store.Stores
	txRunner  TxRunner
	locker    lock.Locker
	llm       llm.Client
	ingestCfg config.IngestConfig
	queryCfg  config.QueryConfig
}

// NewServices wires services over the shared stores. llmClient may be nil,
// in which case insights report ErrInsightsDisabled.
func NewServices(stores *store.Stores, txRunner TxRunner, locker lock.Locker, llmClient llm.Client, ingestCfg config.IngestConfig, queryCfg config.QueryConfig) *Services {
	return &Services{
		stores:    stores,
		txRunner:  txRunner,
		locker:    locker,
		llm:       llmClient,
		ingestCfg: ingestCfg,
		queryCfg:  queryCfg,
	}
}

func (s *Services) Workspaces() WorkspaceService {
	return NewWorkspaceService(s.stores.Workspaces(), s.stores.Namespaces(), s.ingestCfg.SchemaTimeout)
}

func (s *Services) Datasets() DatasetService {
	return NewDatasetService(
		s.stores.Datasets(),
		s.stores.ImportRuns(),
		s.txRunner,
		s.locker,
		s.ingestCfg,
		s.queryCfg,
	)
}

func (s *Services) Insights() InsightService {
	return NewInsightService(s.stores.Datasets(), s.llm, s.queryCfg.Timeout)
}
