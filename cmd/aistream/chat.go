package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/aistream/core/client"
	"github.com/leofalp/aistream/internal/config"
	"github.com/leofalp/aistream/internal/logger"
	"github.com/leofalp/aistream/internal/tracer"
	"github.com/leofalp/aistream/internal/utils"
	"github.com/leofalp/aistream/providers/ai"
)

type chatFlags struct {
	provider    string
	model       string
	baseURL     string
	system      string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	noStream    bool
	jsonOutput  bool
}

func newChatCmd(root *rootFlags) *cobra.Command {
	flags := &chatFlags{}

	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: "Send a prompt and stream the reply to stdout",
		Long: "Send a prompt and stream the reply to stdout. Without arguments the prompt is read from stdin.\n" +
			"Flags override the config file and the AISTREAM_* environment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath, root.envFile)
			if err != nil {
				return err
			}
			flags.applyTo(cmd, cfg)
			if err := config.Validate(cfg); err != nil {
				return err
			}

			prompt, err := readPrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			log, closeLog, err := logger.New(cfg.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			shutdown, err := tracer.Setup(cmd.Context(), cfg.Tracer)
			if err != nil {
				return err
			}
			defer func() { _ = shutdown(context.Background()) }()

			c, err := newClient(cfg, log)
			if err != nil {
				return err
			}

			return runChat(cmd.Context(), c, cmd.OutOrStdout(), flags.messages(prompt), flags.options(cmd), flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.provider, "provider", "p", "", "provider: openai, anthropic or gemini")
	f.StringVarP(&flags.model, "model", "m", "", "model name (provider default when empty)")
	f.StringVar(&flags.baseURL, "base-url", "", "override the provider base URL")
	f.StringVarP(&flags.system, "system", "s", "", "system prompt")
	f.Float64VarP(&flags.temperature, "temperature", "t", 0, "sampling temperature")
	f.IntVar(&flags.maxTokens, "max-tokens", 0, "maximum tokens to generate")
	f.DurationVar(&flags.timeout, "timeout", 0, "deadline for the whole call")
	f.BoolVar(&flags.noStream, "no-stream", false, "wait for the full reply instead of streaming")
	f.BoolVar(&flags.jsonOutput, "json", false, "decode the reply as JSON and pretty-print it")

	return cmd
}

// applyTo copies explicitly set flags over the loaded config.
func (f *chatFlags) applyTo(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("provider") {
		cfg.Provider.Name = f.provider
		// Keys and URLs in config belong to the configured provider.
		cfg.Provider.APIKey = ""
		cfg.Provider.BaseURL = ""
	}
	if changed("model") {
		cfg.Provider.Model = f.model
	}
	if changed("base-url") {
		cfg.Provider.BaseURL = f.baseURL
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
}

func (f *chatFlags) messages(prompt string) []ai.Message {
	var messages []ai.Message
	if f.system != "" {
		messages = append(messages, ai.SystemMessage(f.system))
	}
	return append(messages, ai.UserMessage(prompt))
}

func (f *chatFlags) options(cmd *cobra.Command) ai.ChatOptions {
	var options ai.ChatOptions
	if cmd.Flags().Changed("temperature") {
		options.Temperature = utils.Ptr(f.temperature)
	}
	if cmd.Flags().Changed("max-tokens") {
		options.MaxTokens = utils.Ptr(f.maxTokens)
	}
	return options
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt != "" {
		return prompt, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	prompt = strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty prompt: pass it as arguments or on stdin")
	}
	return prompt, nil
}

func runChat(ctx context.Context, c *client.Client, out io.Writer, messages []ai.Message, options ai.ChatOptions, flags *chatFlags) error {
	if flags.noStream || flags.jsonOutput {
		var response *ai.ChatResponse
		var err error
		if flags.noStream {
			response, err = c.Complete(ctx, messages, options)
		} else {
			response, err = c.Chat(ctx, messages, options)
		}
		if err != nil {
			return err
		}
		if flags.jsonOutput {
			return printJSON(out, response)
		}
		_, err = fmt.Fprintln(out, response.Content())
		return err
	}

	stream, err := c.Stream(ctx, messages, options)
	if err != nil {
		return err
	}
	for delta, err := range stream.Iter() {
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
		if _, err := io.WriteString(out, delta.Content); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out)
	return err
}

func printJSON(out io.Writer, response *ai.ChatResponse) error {
	value, err := client.ParseResponseAs[any](response)
	if err != nil {
		return fmt.Errorf("reply is not JSON: %w", err)
	}
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}
