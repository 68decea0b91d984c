package server

import (
	"time"

	"FreshCart/limiter"
	custommiddleware "FreshCart/middleware"

	"github.com/labstack/echo/v4"
)

func (s *Server) SetupRoutes(sessionMiddleware echo.MiddlewareFunc) {
	e := s.Echo
	api := e.Group("/api")
	api.Use(sessionMiddleware)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", s.AuthHandler.SignUp)
		auth.POST("/signin", s.AuthHandler.SignIn)
		auth.POST("/signout", s.AuthHandler.SignOut)
		auth.GET("/state", s.AuthHandler.State)
		auth.POST("/refresh-user", s.AuthHandler.RefreshUser)
		auth.POST("/clear-error", s.AuthHandler.ClearError)
		// 外部身份提供方跳转回来的落地点
		auth.GET("/callback", s.AuthHandler.Callback)
		// 认证状态推送
		auth.GET("/state/ws", s.StateWSHandler.Subscribe)
	}

	// 后端透传代理
	api.Any("/backend/*", s.ProxyHandler.Forward)

	// Places（限流）
	rateLimit := limiter.Middleware(s.Limiter, s.Config.Limiter.Limit,
		time.Duration(s.Config.Limiter.Window)*time.Second)
	places := api.Group("/places", rateLimit)
	{
		places.GET("/autocomplete", s.PlacesHandler.Autocomplete)
		places.GET("/details", s.PlacesHandler.Details)
	}

	// 路由门禁查询
	api.GET("/users/onboarding-check", s.GuardHandler.Check)

	// 发票 PDF，订单页属于需完成引导的路由
	api.GET("/generate-pdf", s.PDFHandler.Generate,
		custommiddleware.Onboarding(s.Guard, s.States, "/orders"))
}
