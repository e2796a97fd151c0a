package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docchat/internal/chat"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/helper"
	"docchat/internal/llmservice"
	"docchat/internal/rag"
	"docchat/internal/tui"
	"docchat/internal/vectorindex"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	cfgPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	question := flag.String("question", "", "Ask a single question and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *filePath == "" {
		fmt.Println("Usage: docchat -file document.pdf [-question \"...\"] [-config config.yaml]")
		os.Exit(1)
	}

	cfg := loadConfig(*cfgPath)
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	session, err := newSession(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error assembling pipeline")
	}

	ctx := context.Background()
	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error reading document")
	}
	format := filepath.Ext(*filePath)

	log.Info().Str("file", *filePath).Msg("Building index")
	if err := session.Upload(ctx, data, format); err != nil {
		log.Fatal().Err(err).Msg("Error building index")
	}

	if *question != "" {
		answerOnce(ctx, session, *question)
		return
	}

	program := tea.NewProgram(tui.New(session, filepath.Base(*filePath)), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatal().Err(err).Msg("Error running chat")
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Info().Str("path", path).Msg("No config file, using defaults")
			return config.Default()
		}
		log.Fatal().Err(err).Msg("Error loading config")
	}
	return cfg
}

func newSession(cfg *config.Config) (*chat.Session, error) {
	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		return nil, err
	}
	generator, err := llmservice.New(&cfg.ChatLLM)
	if err != nil {
		return nil, err
	}
	index, err := vectorindex.New(&cfg.Index)
	if err != nil {
		return nil, err
	}
	pipeline, err := rag.New(cfg, embedder, generator, index)
	if err != nil {
		return nil, err
	}
	return chat.NewSession(pipeline), nil
}

func answerOnce(ctx context.Context, session *chat.Session, question string) {
	answer, err := session.Submit(ctx, question)
	if err != nil {
		log.Fatal().Err(err).Msg("Error answering question")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", question)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	helper.PrettyPrint(answer.Sources)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", answer.Content)
}
