package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"ollamanodes/model"
	"ollamanodes/nodes"
	"ollamanodes/provider"
	"ollamanodes/ui"
)

// chatOptionFlags maps option flags to option names.
var chatOptionFlags = map[string]string{
	"temperature":    model.OptTemperature,
	"seed":           model.OptSeed,
	"max-tokens":     model.OptNumPredict,
	"top-p":          model.OptTopP,
	"top-k":          model.OptTopK,
	"repeat-penalty": model.OptRepeatPenalty,
}

var chatCmd = &cobra.Command{
	Use:   "chat MODEL [PROMPT...]",
	Short: "Run one chat step",
	Long: `Sends PROMPT to MODEL and prints the reply. When PROMPT is omitted or "-",
it is read from stdin. Use --history to continue a saved conversation and
--save to store the result for the next turn.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		prompt, err := readPrompt(cmd.InOrStdin(), args[1:])
		if err != nil {
			return err
		}

		values := map[string]float64{}
		for flag, key := range chatOptionFlags {
			if flags.Changed(flag) {
				v, _ := flags.GetFloat64(flag)
				values[key] = v
			}
		}
		extra, _ := flags.GetString("extra")
		opts, err := nodes.RunOptionChain(ctx, a.executor, values, extra)
		if err != nil {
			return err
		}

		system, _ := flags.GetString("system")
		format, _ := flags.GetString("format")
		in := nodes.Inputs{
			"client":        a.cfg.Endpoint,
			"model":         args[0],
			"prompt":        prompt,
			"system_prompt": system,
			"options":       opts,
			"format":        format,
		}

		if ref, _ := flags.GetString("history"); ref != "" {
			loaded, err := a.executor.Run(ctx, "OllamaLoadHistory", nodes.Inputs{"name": ref})
			if err != nil {
				return err
			}
			in["history"] = loaded.Outputs["history"]
		}
		if path, _ := flags.GetString("image"); path != "" {
			img, err := provider.LoadImageFile(path)
			if err != nil {
				return err
			}
			in["image"] = img
		}

		reply, history, err := nodes.ChatOnce(ctx, a.executor, in)
		if err != nil {
			return err
		}

		if name, _ := flags.GetString("save"); name != "" {
			if _, err := a.executor.Run(ctx, "OllamaSaveHistory", nodes.Inputs{"name": name, "history": history}); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if show, _ := flags.GetBool("show-history"); show {
			res, err := a.executor.Run(ctx, "OllamaDebugHistory", nodes.Inputs{"history": history})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.String("formatted_history"))
		} else if md, _ := flags.GetBool("markdown"); md {
			width, _ := flags.GetInt("width")
			fmt.Fprintln(out, ui.RenderMarkdown(reply, width))
		} else {
			fmt.Fprintln(out, reply)
		}

		if copyReply, _ := flags.GetBool("copy"); copyReply {
			if err := clipboard.WriteAll(reply); err != nil {
				return fmt.Errorf("failed to copy reply: %w", err)
			}
		}
		return nil
	}),
}

func readPrompt(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", fmt.Errorf("no prompt given")
		}
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt given")
	}
	return prompt, nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	f := chatCmd.Flags()
	f.StringP("system", "s", "", "System prompt, used only when starting a conversation")
	f.String("history", "", "Name or id of a saved history to continue")
	f.String("save", "", "Save the resulting history under this name")
	f.String("format", "none", "Response format: none, json, or a JSON schema object")
	f.String("image", "", "Attach an image file (png, jpeg, gif, bmp, tiff, webp)")
	f.String("extra", "", "Additional Ollama options as a JSON object")
	f.Float64("temperature", 0.8, "Sampling temperature (0-2)")
	f.Float64("seed", 42, "Seed for reproducible output")
	f.Float64("max-tokens", 128, "Maximum tokens to generate")
	f.Float64("top-p", 0.9, "Nucleus sampling threshold (0-1)")
	f.Float64("top-k", 40, "Consider only the K most likely tokens (1-100)")
	f.Float64("repeat-penalty", 1.1, "Repeat penalty (0-2)")
	f.Bool("markdown", false, "Render the reply as markdown")
	f.Int("width", 100, "Wrap width for --markdown")
	f.Bool("copy", false, "Copy the reply to the clipboard")
	f.Bool("show-history", false, "Print the whole conversation instead of the reply")
}
