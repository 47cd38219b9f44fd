package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"finadvisor/internal/ai"
	appsvc "finadvisor/internal/app"
	"finadvisor/internal/bootstrap"
	"finadvisor/internal/cache"
	rabbitmqClient "finadvisor/internal/platform/rabbitmq"
	"finadvisor/internal/rag"
	"finadvisor/internal/repository"
	"finadvisor/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	embedder := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL:        app.Config.Embedding.BaseURL,
		APIKey:         app.Config.Embedding.APIKey,
		Dimension:      app.Config.Embedding.Dimension,
		TimeoutSeconds: app.Config.Embedding.TimeoutSeconds,
	})
	generator := ai.NewChatClient(ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	})
	pipeline := rag.NewPipeline(embedder, app.VectorIndex, app.Config.RAG.ChunkSize, app.Config.RAG.Overlap)

	answerCache := cache.NewAnswerCache(app.Redis, time.Duration(app.Config.Redis.AnswerTTLSeconds)*time.Second)
	queryLogPublisher := rabbitmqClient.NewQueryLogPublisher(app.MQConn, app.Config.RabbitMQ.QueryLogQueue)
	portfolioRepo := repository.NewPortfolioRepository(app.MySQL)

	docService := appsvc.NewDocumentService(pipeline, app.VectorIndex)
	advisorService := appsvc.NewAdvisorService(pipeline, generator, answerCache, queryLogPublisher)
	portfolioService := appsvc.NewPortfolioService(portfolioRepo, pipeline, generator)

	docHandler := handler.NewDocumentHandler(docService)
	advisorHandler := handler.NewAdvisorHandler(advisorService)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService)

	v1 := router.Group("/api/v1")

	docGroup := v1.Group("/documents")
	docGroup.POST("", docHandler.IngestText)
	docGroup.POST("/upload", docHandler.UploadPDF)
	docGroup.GET("", docHandler.ListSources)
	docGroup.DELETE("/:id", docHandler.DeleteSource)

	v1.POST("/ask", advisorHandler.Ask)

	portfolioGroup := v1.Group("/portfolios")
	portfolioGroup.POST("/upload", portfolioHandler.UploadCSV)
	portfolioGroup.GET("", portfolioHandler.List)
	portfolioGroup.GET("/:name", portfolioHandler.Summary)
	portfolioGroup.DELETE("/:name", portfolioHandler.Delete)
	portfolioGroup.POST("/:name/advice", portfolioHandler.Advise)

	return router
}
