// Command saulo-cli is an interactive local chat with Saulo, backed by the
// in-memory store. Useful for persona work without a database or frontend.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"google.golang.org/adk/model"

	"github.com/pablomtz/saulo-agent/internal/brain"
	"github.com/pablomtz/saulo-agent/internal/chat"
	"github.com/pablomtz/saulo-agent/internal/config"
	"github.com/pablomtz/saulo-agent/internal/models"
	"github.com/pablomtz/saulo-agent/internal/store"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var llm model.LLM
	llm, err = models.New(ctx, cfg.Provider, models.Options{
		Model:        cfg.Model,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		GoogleAPIKey: cfg.GoogleAPIKey,
		LocalBaseURL: cfg.LocalLLMURL,
	})
	if err != nil {
		// Without a provider every turn degrades to the scripted fallback,
		// which is still enough to exercise the state machine.
		fmt.Printf("sin proveedor de modelo (%v); respuestas en modo degradado\n", err)
		llm = nil
	}

	orchestrator := chat.New(
		store.NewMemoryStore(cfg.HistoryCap),
		llm,
		nil,
		brain.NewFallbackResponder(nil),
		chat.Options{
			HistoryLimit:    cfg.HistoryLimit,
			InsightLimit:    cfg.InsightLimit,
			Timeout:         cfg.LLMTimeout,
			MaxOutputTokens: cfg.MaxOutputTokens,
			Temperature:     cfg.Temperature,
			DefaultUserID:   cfg.DefaultUserID,
		},
	)

	fmt.Println("Saulo listo. Comandos: /reset, /estado <base|melancolico|oposicion>, /mood <registro>, /debug, /salir")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/salir" {
			break
		}

		text := line
		command := ""
		if strings.HasPrefix(line, "/") {
			parts := strings.SplitN(line, " ", 2)
			command = parts[0]
			text = ""
			if len(parts) > 1 {
				text = strings.TrimSpace(parts[1])
			}
		}

		result, err := orchestrator.Converse(ctx, cfg.DefaultUserID, text, command)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		marker := ""
		if result.Blocked {
			marker = " [bloqueado]"
		}
		if result.IsDeep {
			marker += " [profundo]"
		}
		fmt.Printf("[%s]%s %s\n", result.State, marker, result.Text)
	}

	if err := scanner.Err(); err != nil {
		log.Fatalf("input failed: %v", err)
	}
}
