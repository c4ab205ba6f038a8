package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	auth := s.echo.Group("/api/auth")
	auth.POST("/signup", s.signup)
	auth.POST("/verify-email", s.verifyEmail)
	auth.POST("/resend-verification-email", s.resendVerificationEmail)
	auth.POST("/login", s.login)
	auth.POST("/change-password", s.changePassword)
	auth.POST("/forgot-password", s.forgotPassword)
	auth.POST("/reset-password", s.resetPassword)

	auth.GET("/me", s.getOwnAccount, s.middleware.JWT.RequireJWT())
}
