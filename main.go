package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/eduassistant/go-agent/config"
	"github.com/eduassistant/go-agent/database"
	"github.com/eduassistant/go-agent/documents"
	"github.com/eduassistant/go-agent/embeddings"
	"github.com/eduassistant/go-agent/ingestion"
	"github.com/eduassistant/go-agent/llm"
	"github.com/eduassistant/go-agent/rag"
	"github.com/eduassistant/go-agent/splitter"
	"github.com/eduassistant/go-agent/vectorstore"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing source documents")
	reset := flags.Bool("reset", false, "drop existing collection contents before ingesting (destructive)")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("vector store setup: %v", err)
	}
	defer closeStore()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	loader := documents.NewLoader(logger)
	split := splitter.New(cfg.ChunkSize, cfg.ChunkOverlap)
	svc := ingestion.NewService(loader, split, embedder, store, cfg.CollectionName, logger)

	logger.Printf("ingesting documents from %s using %s/%s embeddings", *dataDir, strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	count, err := svc.Ingest(ctx, *dataDir, *reset)
	if err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}

	if count == 0 {
		fmt.Println("Nothing to ingest. Add documents to the data directory and retry.")
		return
	}
	fmt.Printf("Ingested %d chunks into collection %q.\n", count, cfg.CollectionName)
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask the assistant")
	topK := flags.Int("top-k", cfg.TopK, "number of context passages to retrieve")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("vector store setup: %v", err)
	}
	defer closeStore()

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	generator := llm.NewGenerator(llmClient, logger)
	svc := rag.NewService(store, embedder, generator, cfg.CollectionName, *topK, logger)

	answer, err := svc.GenerateAnswer(ctx, *question)
	if err != nil {
		logger.Fatalf("answer failed: %v", err)
	}

	fmt.Println(answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for idx, source := range answer.Sources {
			fmt.Printf("%d. %s\n", idx+1, source)
		}
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Printf("This will permanently delete all chunks in collection %q. Continue? [y/N]: ", cfg.CollectionName)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("vector store setup: %v", err)
	}
	defer closeStore()

	if err := store.Reset(ctx, cfg.CollectionName); err != nil {
		logger.Fatalf("clear collection: %v", err)
	}
	logger.Printf("collection %s cleared", cfg.CollectionName)
}

func newStore(ctx context.Context, cfg config.Config) (vectorstore.Store, func(), error) {
	switch cfg.VectorStore {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connection: %w", err)
		}
		return vectorstore.NewPostgresStore(pool, cfg.Embeddings.Dimension), pool.Close, nil
	case config.StoreMemory:
		return vectorstore.NewMemoryStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

func printUsage() {
	fmt.Println("Usage: edu-agent <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ingest   Ingest documents into the vector store (use -reset to rebuild the collection)")
	fmt.Println("  ask      Ask the assistant a question against the ingested knowledge base")
	fmt.Println("  clear    Remove all chunks from the collection")
}
