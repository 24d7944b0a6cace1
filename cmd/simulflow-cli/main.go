// Command simulflow-cli runs a minimal terminal voice-agent pipeline: stdin
// lines stand in for transcribed speech, and llm-text-chunk/speak-frame
// output is rendered to stdout (spec §6's text transports).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lookatitude/beluga-ai/aggregator"
	"github.com/lookatitude/beluga-ai/assistant"
	"github.com/lookatitude/beluga-ai/config"
	"github.com/lookatitude/beluga-ai/o11y"
	"github.com/lookatitude/beluga-ai/proc"
	"github.com/lookatitude/beluga-ai/sentence"
)

func main() {
	_ = godotenv.Load()

	if err := config.LoadConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "config: continuing with defaults:", err)
	}

	logger := o11y.NewLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = o11y.WithLogger(ctx, logger)

	shutdown, err := o11y.Bootstrap(ctx, "simulflow-cli")
	if err != nil {
		logger.Warn(ctx, "observability bootstrap failed, continuing without it", "err", err)
	} else {
		defer shutdown(context.Background())
	}

	graph := proc.Graph{
		BufferSize: 32,
		Nodes: []proc.Node{
			{Name: "stdin", Proc: newStdinInput()},
			{Name: "aggregator", Proc: &aggregator.Aggregator{}},
			{Name: "assistant", Proc: &assistant.Assembler{}},
			{Name: "sentence", Proc: &sentence.Splitter{}},
			{Name: "stdout", Proc: newStdoutOutput()},
		},
		Edges: []proc.Edge{
			{FromNode: "stdin", FromPort: proc.PortOut, ToNode: "aggregator", ToPort: proc.PortIn},
			{FromNode: "aggregator", FromPort: proc.PortOut, ToNode: "stdout", ToPort: proc.PortIn},
			{FromNode: "assistant", FromPort: proc.PortOut, ToNode: "aggregator", ToPort: proc.PortIn},
			{FromNode: "assistant", FromPort: proc.PortOut, ToNode: "sentence", ToPort: proc.PortIn},
			{FromNode: "sentence", FromPort: proc.PortOut, ToNode: "stdout", ToPort: proc.PortIn},
		},
	}.AutoWireSysPlane()

	rt, err := graph.Build()
	if err != nil {
		logger.Error(ctx, "build graph", "err", err)
		os.Exit(1)
	}

	if err := rt.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error(ctx, "runtime exited", "err", err)
		os.Exit(1)
	}
}
