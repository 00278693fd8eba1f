package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const (
	chatPrompt  = "You: "
	optionsText = "You can 'list' orchestras, 'describe <name>' an orchestra, 'run <name>' an orchestra, or 'build' a new one."
	unknownText = "I'm sorry, I don't understand that. Can you rephrase?"
)

var cannedResponses = map[string]string{
	"hello":                "Hi there! How can I help you today?",
	"how are you":          "I'm just a program, but I'm doing great! How about you?",
	"bye":                  "Goodbye! Have a great day!",
	"help":                 "Sure, let me know what you need help with!",
	"what are the options": optionsText,
	"options":              optionsText,
}

// chatbotResponse answers small talk; matching ignores case.
func chatbotResponse(input string) string {
	if resp, ok := cannedResponses[strings.ToLower(strings.TrimSpace(input))]; ok {
		return resp
	}
	return unknownText
}

func newChatCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive prompt for listing, describing, running and building orchestras",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return chat(cmd, app)
		},
	}
}

func chat(cmd *cobra.Command, app *app) error {
	out := cmd.OutOrStdout()
	s := newStyles(out)
	in := bufio.NewScanner(cmd.InOrStdin())

	say := func(format string, args ...any) {
		_, _ = fmt.Fprintf(out, "%s %s\n", s.bot.Render("Chatbot:"), fmt.Sprintf(format, args...))
	}
	ask := func(prompt string) (string, bool) {
		_, _ = fmt.Fprint(out, prompt)
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	_, _ = fmt.Fprintln(out, s.title.Render("Welcome to CLI Chat! Type 'exit' to quit."))
	_, _ = fmt.Fprintln(out, "You can either list orchestras with 'list', describe one with 'describe <name>', "+
		"run one by asking 'run <name>', or build a new one.")

	for {
		line, ok := ask(chatPrompt)
		if !ok {
			return in.Err()
		}
		lower := strings.ToLower(line)

		var err error
		switch {
		case line == "":
			continue
		case lower == "exit":
			say("Goodbye! Take care.")
			return nil
		case lower == "list":
			err = listOrchestras(cmd, app)
		case strings.HasPrefix(lower, "describe "):
			err = describeOrchestra(cmd, app, strings.TrimSpace(line[len("describe "):]))
		case strings.HasPrefix(lower, "run "):
			err = runOrchestra(cmd, app, strings.TrimSpace(line[len("run "):]), runFlags{})
		case lower == "build":
			name, ok := ask("Enter the name of the orchestra to build: ")
			if !ok {
				return in.Err()
			}
			description, ok := ask("Enter a description for the orchestra: ")
			if !ok {
				return in.Err()
			}
			err = buildOrchestra(cmd, app, name, description)
		default:
			say("%s", chatbotResponse(line))
		}
		if err != nil {
			say("%v", err)
		}
	}
}
