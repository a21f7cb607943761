package main

import (
	"context"
	"io"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/joho/godotenv"

	"github.com/Lyham67/Tombobach/internal/config"
	"github.com/Lyham67/Tombobach/internal/handlers"
	"github.com/Lyham67/Tombobach/internal/mailer"
	"github.com/Lyham67/Tombobach/internal/payments"
	"github.com/Lyham67/Tombobach/internal/services"
	"github.com/Lyham67/Tombobach/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	defer logger.Init("tombobach", true, false, io.Discard).Close()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// 1. Open the database and apply the schema.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	st := store.NewStore(db)
	if err := st.Init(context.Background()); err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}

	// 2. Select the payment provider.
	provider, err := payments.NewProvider(cfg)
	if err != nil {
		logger.Fatalf("Failed to create payment provider: %v", err)
	}

	// 3. Wire the mailer. Without an API key, confirmation emails are
	// silently skipped; the purchase flow never depends on them.
	var mail mailer.Mailer = mailer.Noop{}
	if cfg.ResendAPIKey != "" {
		mail = mailer.NewResend(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		logger.Warningf("RESEND_API_KEY is empty, confirmation emails are disabled")
	}

	// 4. Initialize the services and the HTTP handler.
	sales := services.NewSalesService(st, mail, cfg.AdminPassword)
	content := services.NewContentService(st, cfg.AdminPassword)
	httpHandler := handlers.NewHTTPHandler(sales, content, provider)

	// 5. Set up the Gin router. The front-end is a static site hosted
	// elsewhere, so every route is served with CORS.
	r := gin.Default()
	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-Admin-Password")
	r.Use(cors.New(corsCfg))

	httpHandler.RegisterRoutes(r)

	// 6. Run the server.
	logger.Infof("Server starting on %s (payment provider: %s)", cfg.HTTPAddr, provider.Name())
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatalf("Failed to run server: %v", err)
	}
}
