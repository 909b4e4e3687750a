package main

import (
	"engage-predict/pkg/config"
	app "engage-predict/services/engage/internal/app"

	_ "engage-predict/services/engage/docs" // Swagger docs
)

// @title           EngagePredict API
// @version         1.0
// @description     Engagement scoring and prediction history for social media posts
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:5000
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Shared-secret tokens need a real secret; JWKS verification does not
	if cfg.IdentityJWKSURL == "" && cfg.HasDefaultSecret() {
		panic("JWT_SECRET must be set in environment variables")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}
