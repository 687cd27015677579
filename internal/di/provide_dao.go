package di

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/dao/rundao"
	"github.com/relgate/relgate/internal/errors"
)

// ProvideRunDAO constructs the run-history DAO. It returns
// errors.ErrHistoryDisabled when history is not enabled; callers that can run
// without history should not request the DAO at all.
func ProvideRunDAO(env string, cfg *config.Config, client *dynamodb.Client) (*rundao.DAO, error) {
	table, err := historyTable(env, cfg)
	if err != nil {
		return nil, err
	}
	return rundao.New(client, table), nil
}

// historyTable resolves the run-history table name, preferring an explicit
// configured table over the environment's default.
func historyTable(env string, cfg *config.Config) (string, error) {
	if !cfg.History.Recording() {
		return "", errors.ErrHistoryDisabled
	}
	if cfg.History.Table != "" {
		return cfg.History.Table, nil
	}
	return rundao.TableName(env), nil
}
