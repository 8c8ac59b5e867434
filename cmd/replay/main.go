package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"issue-agent-be/pkg/agent/protocol"

	"github.com/fatih/color"
)

// Replays raw model output lines through the activity codec and shows what the
// engine would see. Useful for debugging misbehaving prompts:
//
//	go run ./cmd/replay -file transcript.txt
//	echo 'ACTION: getWeather("Jakarta")' | go run ./cmd/replay
func main() {
	file := flag.String("file", "", "file with one model output per line (default stdin)")
	flag.Parse()

	in := os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			color.Red("Failed to open %s: %v", *file, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	color.Cyan("🔁 Activity Codec Replay\n")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	lineNo := 0
	failures := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		activity, err := protocol.Decode(line)
		if err != nil {
			failures++
			color.Red("%3d ✗ %v", lineNo, err)
			continue
		}

		printActivity(lineNo, activity)

		if encoded, err := protocol.Encode(activity); err == nil && encoded != line {
			color.Yellow("      re-encodes as: %s", encoded)
		}
	}
	if err := scanner.Err(); err != nil {
		color.Red("Read error: %v", err)
		os.Exit(1)
	}

	fmt.Println()
	if failures > 0 {
		color.Red("%d line(s) failed to decode", failures)
		os.Exit(1)
	}
	color.Green("All lines decoded")
}

func printActivity(lineNo int, a protocol.Activity) {
	switch a.Kind {
	case protocol.KindThought:
		color.White("%3d 💭 THOUGHT       %s", lineNo, a.Body)
	case protocol.KindAction:
		param := "(bare)"
		if a.ActionParameter != nil {
			param = *a.ActionParameter
		}
		color.Magenta("%3d 🔧 ACTION        %s %s", lineNo, a.Action, param)
	case protocol.KindResponse:
		color.Green("%3d 💬 RESPONSE      %s", lineNo, a.Body)
	case protocol.KindElicitation:
		color.Yellow("%3d ❓ ELICITATION   [%s] %s", lineNo, a.Parameter, a.Body)
	case protocol.KindError:
		color.Red("%3d ⚠️ ERROR         %s", lineNo, a.Body)
	case protocol.KindUserResponse:
		color.Blue("%3d 👤 USER_RESPONSE %s", lineNo, a.Body)
	case protocol.KindToolResult:
		color.Cyan("%3d 📦 TOOL_RESULT   %s", lineNo, a.Body)
	default:
		color.Red("%3d ?? %s", lineNo, a.Kind)
	}
}
