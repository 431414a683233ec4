package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/orcamais/orcamais-backend/internal/middleware"
)

// Handlers groups the HTTP handlers served under /api/v1
type Handlers struct {
	Auth        *AuthHandler
	Profile     *ProfileHandler
	Dashboard   *DashboardHandler
	Transaction *TransactionHandler
	Budget      *BudgetHandler
	Dream       *DreamHandler
	Investment  *InvestmentHandler
	WebSocket   *WebSocketHandler
}

// RegisterRoutes sets up all API routes. publicLimiter throttles the
// unauthenticated auth endpoints by client address; userLimiter throttles
// everything else by user.
func RegisterRoutes(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	publicLimiter *middleware.RateLimiter,
	userLimiter *middleware.RateLimiter,
	h Handlers,
) {
	api := e.Group("/api/v1")

	protected := func(g *echo.Group) *echo.Group {
		g.Use(authMiddleware.Authenticate())
		g.Use(middleware.RateLimitMiddleware(userLimiter))
		return g
	}

	// Auth routes (public)
	public := api.Group("/auth")
	public.Use(middleware.RateLimitMiddleware(publicLimiter))
	public.POST("/signup", h.Auth.SignUp)
	public.POST("/signin", h.Auth.SignIn)
	public.POST("/password/forgot", h.Auth.ForgotPassword)
	public.POST("/password/reset", h.Auth.ResetPassword)

	// Session routes (protected)
	session := protected(api.Group("/session"))
	session.GET("", h.Auth.Me)
	session.DELETE("", h.Auth.Logout)

	// Profile routes (protected)
	profile := protected(api.Group("/profile"))
	profile.GET("", h.Profile.GetProfile)
	profile.PUT("", h.Profile.UpdateProfile)
	profile.PUT("/settings", h.Profile.UpdateSettings)

	// Summary routes (protected)
	summary := protected(api.Group("/summary"))
	summary.GET("/series", h.Dashboard.GetSeries)
	summary.GET("/:period", h.Dashboard.GetSummary)
	summary.GET("/:period/compare", h.Dashboard.GetComparison)

	// Transaction routes (protected)
	transactions := protected(api.Group("/transactions"))
	transactions.GET("", h.Transaction.GetTransactions)
	transactions.POST("", h.Transaction.CreateTransaction)
	transactions.GET("/categories", h.Transaction.GetCategories)
	transactions.GET("/recurring", h.Transaction.GetRecurring)
	transactions.DELETE("/:id", h.Transaction.DeleteTransaction)

	// Income and budget routes (protected)
	income := protected(api.Group("/income"))
	income.PUT("/:period", h.Budget.SetMonthlyIncome)

	budgets := protected(api.Group("/budgets"))
	budgets.PUT("/categories/:category", h.Budget.SetCategoryBudget)
	budgets.GET("/:period", h.Budget.GetBudgetStatus)

	// Dream routes (protected)
	dreams := protected(api.Group("/dreams"))
	dreams.GET("", h.Dream.GetDreams)
	dreams.POST("", h.Dream.CreateDream)
	dreams.GET("/:id", h.Dream.GetDream)
	dreams.DELETE("/:id", h.Dream.DeleteDream)
	dreams.PATCH("/:id/savings", h.Dream.UpdateSavings)
	dreams.POST("/:id/contributions", h.Dream.Contribute)
	dreams.POST("/:id/image", h.Dream.UploadImage)

	// Investment routes (protected)
	investments := protected(api.Group("/investments"))
	investments.GET("/quotes", h.Investment.GetQuotes)
	investments.POST("/simulate", h.Investment.Simulate)

	// Change events; the token is checked by the handler
	e.GET("/ws", h.WebSocket.HandleWS)
}
