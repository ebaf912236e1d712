package main

import (
	"fmt"

	"menu-recommender/internal/catalog"
	"menu-recommender/internal/common/config"
	"menu-recommender/internal/common/database"
	"menu-recommender/internal/history"
)

func newCatalogSource(cfg config.CatalogConfig, pg *database.PostgresClient, es *database.ElasticsearchClient) (catalog.Source, error) {
	switch cfg.Source {
	case config.CatalogSourceCSV:
		return catalog.NewCSVSource(cfg.Path), nil
	case config.CatalogSourcePostgres:
		return catalog.NewPostgresSource(pg.DB, cfg.Table)
	case config.CatalogSourceElasticsearch:
		if es == nil {
			return nil, fmt.Errorf("elasticsearch catalog source without a client")
		}
		return catalog.NewESSource(es.Client, cfg.Index, cfg.PageSize)
	}
	return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
}

func newHistoryStore(cfg config.HistoryConfig, pg *database.PostgresClient, rdb *database.RedisClient) history.Store {
	if cfg.Backend == config.HistoryBackendRedis && rdb != nil {
		return history.NewRedisStore(rdb.Client)
	}
	return history.NewPostgresStore(pg.DB)
}
