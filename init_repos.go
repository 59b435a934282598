package main

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/akinalp/blogme/config"
	"github.com/akinalp/blogme/gateway"
	"github.com/akinalp/blogme/repository"
)

// Repositories holds the local store adapters.
type Repositories struct {
	Store   repository.StoreRepository
	Account repository.AccountRepository
	Session repository.SessionRepository
}

func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		Store:   repository.NewSQLiteStoreRepo(conn),
		Account: repository.NewSQLiteAccountRepo(conn),
		Session: repository.NewSQLiteSessionRepo(conn),
	}
}

// Gateways holds the remote backend clients. Both share one HTTP client
// and one set of request metrics.
type Gateways struct {
	Posts    gateway.PostGateway
	Accounts gateway.AccountGateway
}

func initGateways(cfg config.RemoteConfig, reg prometheus.Registerer) *Gateways {
	httpc := &http.Client{}
	metrics := gateway.NewMetrics(reg)
	return &Gateways{
		Posts:    gateway.NewPostGateway(cfg, httpc, metrics),
		Accounts: gateway.NewAccountGateway(cfg, httpc, metrics),
	}
}
