package constants

type ContextKey string

const (
	AppKey       ContextKey = "app"
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	ParamsKey    ContextKey = "params"
	UserKey      ContextKey = "user"
	RequestStart ContextKey = "request-start"
)
