package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/hray3182/CareMind/internal/http/handlers"
	httpMW "github.com/hray3182/CareMind/internal/http/middleware"
	"github.com/hray3182/CareMind/internal/logger"
	"github.com/hray3182/CareMind/internal/observability"
)

type RouterConfig struct {
	Logger         *logger.Logger
	CORSOrigins    []string
	CronSecret     string
	AuthMiddleware *httpMW.AuthMiddleware

	ItemHandler   *httpH.ItemHandler
	AgendaHandler *httpH.AgendaHandler
	FamilyHandler *httpH.FamilyHandler
	CodeHandler   *httpH.LinkCodeHandler
	VoiceHandler  *httpH.VoiceHandler
	ParseHandler  *httpH.ParseHandler
	CronHandler   *httpH.CronHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(httpMW.RequestLogger(log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Cron triggers authenticate with a shared secret instead of a token.
	if cfg.CronHandler != nil {
		cron := api.Group("/cron")
		cron.Use(httpMW.RequireCronSecret(cfg.CronSecret))
		cron.POST("/reset", cfg.CronHandler.Reset)
		cron.POST("/monitor", cfg.CronHandler.Monitor)
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Medications and routines
		if cfg.ItemHandler != nil {
			protected.GET("/profiles/:ownerId/medications", cfg.ItemHandler.ListMedications)
			protected.POST("/profiles/:ownerId/medications", cfg.ItemHandler.CreateMedication)
			protected.DELETE("/medications/:id", cfg.ItemHandler.DeleteMedication)
			protected.POST("/medications/:id/taken", cfg.ItemHandler.MarkMedicationTaken)
			protected.DELETE("/medications/:id/taken", cfg.ItemHandler.UnmarkMedicationTaken)

			protected.GET("/profiles/:ownerId/routines", cfg.ItemHandler.ListRoutines)
			protected.POST("/profiles/:ownerId/routines", cfg.ItemHandler.CreateRoutine)
			protected.DELETE("/routines/:id", cfg.ItemHandler.DeleteRoutine)
			protected.POST("/routines/:id/done", cfg.ItemHandler.MarkRoutineDone)
			protected.DELETE("/routines/:id/done", cfg.ItemHandler.UnmarkRoutineDone)
		}

		if cfg.ParseHandler != nil {
			protected.POST("/profiles/:ownerId/medications/parse", cfg.ParseHandler.ParseMedication)
		}

		if cfg.AgendaHandler != nil {
			protected.GET("/profiles/:ownerId/agenda", cfg.AgendaHandler.GetAgenda)
		}

		if cfg.CodeHandler != nil {
			protected.POST("/profiles/:ownerId/telegram-code", cfg.CodeHandler.IssueTelegramCode)
			protected.POST("/profiles/:ownerId/family-code", cfg.CodeHandler.IssueFamilyCode)
		}

		if cfg.FamilyHandler != nil {
			protected.POST("/family/links", cfg.FamilyHandler.CreateLink)
			protected.DELETE("/family/links/:elderlyId", cfg.FamilyHandler.DeleteLink)
		}

		if cfg.VoiceHandler != nil {
			protected.POST("/voice/complete", cfg.VoiceHandler.Complete)
		}
	}

	return r
}
