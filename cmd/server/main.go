package main

import (
	"context"
	"log"
	"os"
	"time"

	"policychat/internal/adapter/api"
	"policychat/internal/adapter/client"
	"policychat/internal/adapter/store"
	"policychat/internal/config"
	"policychat/internal/domain/repository"
	"policychat/internal/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	ctx := context.Background()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.ApplyEnv()

	genTimeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second

	// Embedding and generation providers
	var (
		embedder repository.Embedder
		primary  repository.AnswerProvider
		fallback repository.AnswerProvider
	)
	switch cfg.LLM.Provider {
	case "ollama":
		embedder = client.NewOllamaEmbedder(cfg.LLM.OllamaBaseURL, cfg.LLM.EmbeddingModel, cfg.LLM.EmbeddingDim)
		primary = client.NewOllamaClient(cfg.LLM.OllamaBaseURL, cfg.LLM.ChatModel)
	default:
		genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
			Project:  cfg.LLM.Project,
			Location: cfg.LLM.Location,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			log.Fatalf("failed to init genai client: %v", err)
		}
		embedder = client.NewGeminiEmbedderFromClient(genaiClient, cfg.LLM.EmbeddingModel, cfg.LLM.EmbeddingDim)
		primary = client.NewGeminiClientFromClient(genaiClient, cfg.LLM.ChatModel)
		fallback = client.NewGeminiClientFromClient(genaiClient, cfg.LLM.FallbackModel)
	}
	provider := usecase.NewResilientProvider(primary, fallback, genTimeout)

	// Semantic cache
	var cache repository.AnswerCache
	switch cfg.Cache.Backend {
	case "memory":
		memCache, err := store.NewMemoryCache(cfg.Cache.Capacity)
		if err != nil {
			log.Fatalf("failed to init memory cache: %v", err)
		}
		cache = memCache
	default:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		cache = store.NewRedisCache(rdb, cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLSecs)*time.Second)
	}

	// Qdrant holds the document-chunk collections
	qClient, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Qdrant.Host,
		Port: cfg.Qdrant.Port,
	})
	if err != nil {
		log.Fatalf("failed to connect to qdrant: %v", err)
	}
	retriever := store.NewQdrantRetriever(qClient, embedder)

	seen := make(map[string]bool)
	for _, collections := range cfg.Access {
		for _, collection := range collections {
			if seen[collection] {
				continue
			}
			seen[collection] = true
			if err := retriever.InitCollection(ctx, collection, uint64(cfg.LLM.EmbeddingDim)); err != nil {
				log.Fatalf("failed to init collection %s: %v", collection, err)
			}
		}
	}

	sessions := usecase.NewSessionManager(cfg.Access, cfg.Chat.MaxExchanges)
	orchestrator := usecase.NewOrchestrator(
		embedder, cache, retriever, provider,
		cfg.Cache.Threshold, cfg.Chat.TopK,
		time.Duration(cfg.Chat.SlowLogSecs*float64(time.Second)),
	)

	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := embedder.CreateEmbedding(warmCtx, "warmup"); err != nil {
			log.Printf("[WARMER] embedder warm-up failed: %v", err)
		}
		if _, err := provider.Generate(warmCtx, "."); err != nil {
			log.Printf("[WARMER] generation warm-up failed: %v", err)
		}
		log.Println("[WARMER] pre-warm complete")
	}()

	app := fiber.New(fiber.Config{
		AppName: "PolicyChat Gateway",
	})

	handler := api.NewChatHandler(sessions, orchestrator)
	api.SetupRouter(app, handler)

	log.Printf("PolicyChat gateway running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
