package rpc

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// AMM RPC Paths
const (
	VersionRoutePath = "/v1/"
	TxRoutePath      = "/v1/tx"
	AccountRoutePath = "/v1/query/account"
	PoolRoutePath    = "/v1/query/pool"
	PoolsRoutePath   = "/v1/query/pools"
	KeysRoutePath    = "/v1/query/keys"
	MarketRoutePath  = "/v1/query/market"
	QuoteRoutePath   = "/v1/query/quote"
	// admin
	CreateMarketRoutePath = "/v1/admin/market"
	ConfigRoutePath       = "/v1/admin/config"
	LogsRoutePath         = "/v1/admin/log"
)

const (
	VersionRouteName      = "version"
	TxRouteName           = "tx"
	AccountRouteName      = "account"
	PoolRouteName         = "pool"
	PoolsRouteName        = "pools"
	KeysRouteName         = "keys"
	MarketRouteName       = "market"
	QuoteRouteName        = "quote"
	CreateMarketRouteName = "create-market"
	ConfigRouteName       = "config"
	LogsRouteName         = "logs"
)

// routes contains the method and path for an AMM RPC route
type routes map[string]struct {
	Method string
	Path   string
}

// routePaths is a mapping from route names to their corresponding HTTP methods and paths
var routePaths = routes{
	VersionRouteName:      {Method: http.MethodGet, Path: VersionRoutePath},
	TxRouteName:           {Method: http.MethodPost, Path: TxRoutePath},
	AccountRouteName:      {Method: http.MethodPost, Path: AccountRoutePath},
	PoolRouteName:         {Method: http.MethodPost, Path: PoolRoutePath},
	PoolsRouteName:        {Method: http.MethodPost, Path: PoolsRoutePath},
	KeysRouteName:         {Method: http.MethodPost, Path: KeysRoutePath},
	MarketRouteName:       {Method: http.MethodPost, Path: MarketRoutePath},
	QuoteRouteName:        {Method: http.MethodPost, Path: QuoteRoutePath},
	CreateMarketRouteName: {Method: http.MethodPost, Path: CreateMarketRoutePath},
	ConfigRouteName:       {Method: http.MethodGet, Path: ConfigRoutePath},
	LogsRouteName:         {Method: http.MethodGet, Path: LogsRoutePath},
}

// httpRouteHandlers is a custom type that maps strings to httprouter handle functions
type httpRouteHandlers map[string]httprouter.Handle

// createRouter initializes and returns a new HTTP router with predefined route handlers
func createRouter(s *Server) *httprouter.Router {
	var r = httpRouteHandlers{
		VersionRouteName:      s.Version,
		TxRouteName:           s.Transaction,
		AccountRouteName:      s.Account,
		PoolRouteName:         s.Pool,
		PoolsRouteName:        s.Pools,
		KeysRouteName:         s.Keys,
		MarketRouteName:       s.Market,
		QuoteRouteName:        s.Quote,
		CreateMarketRouteName: s.CreateMarket,
		ConfigRouteName:       s.Config,
		LogsRouteName:         logsHandler(s),
	}

	// Initialize a new router using the httprouter package.
	router := httprouter.New()

	for name, handler := range r {
		// Retrieve the path configuration for the current route name.
		path := routePaths[name]

		// Add the handler for the specific path and HTTP method to the router.
		router.Handle(path.Method, path.Path, logHandler{path.Path, handler, s.logger}.Handle)
	}

	return router
}
