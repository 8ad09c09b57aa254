package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/askdoc/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/askdoc/internal/transport/openai"
	"github.com/kailas-cloud/askdoc/internal/transport/repl"
	"github.com/kailas-cloud/askdoc/internal/usecase/answer"
	"github.com/kailas-cloud/askdoc/internal/usecase/index"
	"github.com/kailas-cloud/askdoc/internal/usecase/retrieve"
	"github.com/kailas-cloud/askdoc/internal/version"
)

const shutdownTimeout = 5 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Index the document and start the question loop (default)",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	logger := a.logger

	logger.Info("Starting askdoc",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.String("document", cfg.Document.Path),
		zap.String("collection", cfg.Collection.Driver),
	)

	coll, store, err := a.openCollection(ctx)
	if err != nil {
		return err
	}

	base := a.newEmbedder()
	emb := a.buildEmbedder(base, store)

	report, err := index.New(coll, emb, cfg.Embedding.BatchSize, logger).
		Load(ctx, cfg.Document.Path, cfg.Document.ChunkSize)
	if err != nil {
		return fmt.Errorf("index %s: %w", cfg.Document.Path, err)
	}
	logger.Info("Document indexed",
		zap.Int("chunks", report.Chunks),
		zap.Int("tokens", report.Tokens),
		zap.Duration("duration", report.Duration),
	)

	persona, err := answer.LoadPersona(cfg.Generation.PersonaFile, defaultPersona)
	if err != nil {
		return err
	}

	gen := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:        cfg.Generation.APIKey,
		BaseURL:       cfg.Generation.BaseURL,
		Model:         cfg.Generation.Model,
		MaxToolRounds: cfg.Generation.MaxToolRounds,
		Logger:        logger,
	})
	retriever := retrieve.New(coll, emb)
	answerer := answer.New(gen, retriever.Tool(cfg.Retrieval.TopK), answer.Options{
		Persona:  persona,
		Template: cfg.Generation.PromptTemplate,
		Timeout:  cfg.Generation.Timeout(),
	})

	voice := a.newVoice()
	loop := repl.New(cmd.InOrStdin(), cmd.OutOrStdout(), voice, answerer, logger)
	voice.OnStage(loop.ShowStage)

	if cfg.Metrics.Addr != "" {
		router := chiTransport.NewRouter(newHealth(store, base), logger)
		srv := chiTransport.NewServer(cfg.Metrics.Addr, router, logger)
		addr, err := srv.Start()
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		logger.Info("Metrics server listening", zap.String("addr", addr))

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown failed", zap.Error(err))
			}
		}()
	}

	return loop.Run(ctx)
}
