package server

import (
	"bytes"
	"time"

	"FreshCart/authstate"
	"FreshCart/config"
	"FreshCart/events"
	"FreshCart/gateway"
	"FreshCart/guard"
	"FreshCart/handlers"
	"FreshCart/invoice"
	"FreshCart/limiter"
	custommiddleware "FreshCart/middleware"
	"FreshCart/session"
	"FreshCart/tokenstore"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

type Server struct {
	Echo           *echo.Echo
	Config         *config.Config
	Tokens         *tokenstore.Store
	AuthHandler    *handlers.AuthHandler
	GuardHandler   *handlers.GuardHandler
	StateWSHandler *handlers.StateWSHandler
	ProxyHandler   *handlers.ProxyHandler
	PlacesHandler  *handlers.PlacesHandler
	PDFHandler     *handlers.PDFHandler
	Guard          *guard.Guard
	States         *authstate.Manager
	Limiter        *limiter.Manager
}

func NewServer() *Server {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 令牌存储：Redis 主 + 文件副，双写
	redisBackend, err := tokenstore.NewRedisBackend(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}
	fileBackend, err := tokenstore.NewFileBackend(cfg.Auth.TokenStateDir)
	if err != nil {
		log.Fatal("Failed to init file token storage:", err)
	}
	tokens := tokenstore.NewStore(redisBackend, fileBackend)

	// 认证事件总线（未配置 broker 时为空，静默丢弃）
	producer, err := events.NewProducer(&cfg.Kafka)
	if err != nil {
		log.Warn("Kafka producer unavailable, auth events disabled:", err)
		producer = nil
	}

	backendTimeout := time.Duration(cfg.Backend.Timeout) * time.Second
	gw := gateway.NewClient(cfg.Backend.BaseURL, backendTimeout, tokens)
	states := authstate.NewManager(gw, tokens, producer)

	exchanger := session.NewGoogleExchanger(&cfg.Auth.Google)
	flow := session.NewFlow(exchanger, states, tokens, gw)

	onboardingGuard := guard.NewGuard(cfg.Guard.PublicPaths, cfg.Guard.ProtectedPaths, gw, tokens)
	limiterManager := limiter.NewManager(redisBackend.Client, limiter.StrategyFromName(cfg.Limiter.Strategy))

	renderer := invoice.NewRenderer(cfg.Invoice.RenderEngineURL)

	// 初始化 Echo
	e := echo.New()
	e.HideBanner = true
	// 请求日志带上令牌主题（由会话中间件从 Bearer 头窥探）
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","remote_ip":"${remote_ip}","method":"${method}",` +
			`"uri":"${uri}","status":${status},"latency_human":"${latency_human}","subject":"${custom}"}` + "\n",
		CustomTagFunc: func(c echo.Context, buf *bytes.Buffer) (int, error) {
			if sub, ok := c.Get("tokenSubject").(string); ok {
				return buf.WriteString(sub)
			}
			return 0, nil
		},
	}))
	e.Use(middleware.Recover())
	allowOrigins := cfg.Server.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{cfg.Server.SiteBaseURL}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.PATCH},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
		MaxAge:           86400,
	}))

	s := &Server{
		Echo:           e,
		Config:         &cfg,
		Tokens:         tokens,
		AuthHandler:    handlers.NewAuthHandler(states, flow),
		GuardHandler:   handlers.NewGuardHandler(onboardingGuard, states),
		StateWSHandler: handlers.NewStateWSHandler(states),
		ProxyHandler:   handlers.NewProxyHandler(cfg.Backend.BaseURL, cfg.Proxy.NormalizePaths, backendTimeout),
		PlacesHandler:  handlers.NewPlacesHandler(cfg.Places.APIKey),
		PDFHandler:     handlers.NewPDFHandler(renderer),
		Guard:          onboardingGuard,
		States:         states,
		Limiter:        limiterManager,
	}

	// --- 设置路由 ---
	s.SetupRoutes(custommiddleware.Session())
	return s
}

func (s *Server) Start(addr string) {
	if addr == "" {
		addr = s.Config.Server.Addr
	}
	log.Fatal(s.Echo.Start(addr))
}
