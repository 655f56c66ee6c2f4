package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"xmr-arcade-backend/internal/config"
	"xmr-arcade-backend/internal/handlers"
	"xmr-arcade-backend/internal/middleware"
	"xmr-arcade-backend/internal/services"
	"xmr-arcade-backend/internal/store"
	"xmr-arcade-backend/internal/wallet"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisStore, err := store.NewRedisStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisStore.Close()

	walletClient := wallet.NewRPCClient(cfg.WalletRPCURL)

	jwtService := services.NewJWTService(cfg)
	ledger := services.NewLedger(redisStore)
	playerService := services.NewPlayerService(redisStore, walletClient)
	rate := services.NewXMRRate(cfg.XMRRateLeeway)
	hotwallet := services.NewHotWalletStatus(walletClient, cfg.HotwalletLeeway)

	hub := handlers.NewWebSocketHub()

	gameEngine := services.NewGameEngine(redisStore, ledger)
	gameEngine.SetBroadcaster(hub)
	if err := gameEngine.EnsureLanes(); err != nil {
		log.Fatalf("Failed to open game lanes: %v", err)
	}
	go gameEngine.Run()

	depositService := services.NewDepositService(redisStore, ledger, walletClient, cfg.DepositSweepInterval)
	go depositService.Run()

	withdrawService := services.NewWithdrawService(redisStore, ledger, walletClient, cfg.WithdrawStaleAfter)
	go withdrawService.Run()

	playerHandler := handlers.NewPlayerHandler(playerService, jwtService, ledger)
	arcadeHandler := handlers.NewArcadeHandler(gameEngine, redisStore, rate)
	walletHandler := handlers.NewWalletHandler(ledger, playerService, withdrawService, rate, hotwallet)
	wsHandler := handlers.NewWebSocketHandler(hub, ledger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/login", playerHandler.Login)
	router.GET("/rate/xmr", walletHandler.GetRate)
	router.GET("/hotwallet/status", walletHandler.GetHotWalletStatus)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisStore))
	{
		protected.GET("/me", playerHandler.GetCurrentPlayer)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		arcade := protected.Group("/arcade")
		{
			arcade.GET("/rounds", arcadeHandler.ListRounds)
			arcade.GET("/rounds/:id", arcadeHandler.GetRound)
			arcade.POST("/rounds/:id/spots", arcadeHandler.ReserveSpot)
			arcade.GET("/rounds/:id/verify", arcadeHandler.VerifyRound)
		}

		walletGroup := protected.Group("/wallet")
		{
			walletGroup.GET("/balance", walletHandler.GetBalance)
			walletGroup.GET("/deposit-address", walletHandler.GetDepositAddress)
			walletGroup.POST("/withdraw", walletHandler.CreateWithdraw)
			walletGroup.GET("/withdraw/:id", walletHandler.GetWithdraw)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
