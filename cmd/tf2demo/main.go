/*

Command tf2demo parses a single TF2 demo file end to end (container,
schema, events, entities) and prints a summary of what happened: users,
deaths, rounds, chat.

*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/icza/tf2demo/analyzer"
	"github.com/icza/tf2demo/demofile"
	"github.com/icza/tf2demo/parser"
)

func main() {
	format := flag.String("format", "json", "output format: json or yaml")
	chat := flag.Bool("chat", true, "include chat messages in the output")
	deaths := flag.Bool("deaths", true, "include deaths in the output")
	rounds := flag.Bool("rounds", true, "include rounds in the output")
	users := flag.Bool("users", true, "include users in the output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tf2demo [-format json|yaml] [-chat] [-deaths] [-rounds] [-users] <demo-file>")
		os.Exit(2)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("reading demo file: %v", err)
	}

	reader, err := demofile.Open(data)
	if err != nil {
		log.Fatalf("opening demo: %v", err)
	}

	az := analyzer.New()
	p := parser.New()
	p.State.Meta = parser.DemoMeta{
		ServerName: reader.Header.ServerName,
		ClientName: reader.Header.ClientName,
		MapName:    reader.Header.MapName,
		GameDir:    reader.Header.GameDir,
		Playtime:   reader.Header.Playtime,
		TickCount:  int(reader.Header.TickCount),
	}

	output, err := p.Run(reader, az)
	if err != nil {
		log.Fatalf("parsing demo: %v", err)
	}

	state := output.(*analyzer.MatchState)
	filtered := buildOutput(state, *chat, *deaths, *rounds, *users)

	var encoded []byte
	switch *format {
	case "json":
		encoded, err = json.MarshalIndent(filtered, "", "  ")
	case "yaml":
		encoded, err = yaml.Marshal(filtered)
	default:
		log.Fatalf("unknown -format %q: want json or yaml", *format)
	}
	if err != nil {
		log.Fatalf("encoding output: %v", err)
	}

	os.Stdout.Write(encoded)
	fmt.Println()
}

// summary is the CLI's selectable view of a MatchState; fields are
// omitted entirely (rather than emitted empty) when their flag is off.
type summary struct {
	Users  map[int32]*analyzer.UserInfo `json:"users,omitempty" yaml:"users,omitempty"`
	Deaths []analyzer.Death             `json:"deaths,omitempty" yaml:"deaths,omitempty"`
	Rounds []analyzer.Round             `json:"rounds,omitempty" yaml:"rounds,omitempty"`
	Chat   []analyzer.ChatMessage       `json:"chat,omitempty" yaml:"chat,omitempty"`
}

func buildOutput(state *analyzer.MatchState, chat, deaths, rounds, users bool) summary {
	var s summary
	if users {
		s.Users = state.Users
	}
	if deaths {
		s.Deaths = state.Deaths
	}
	if rounds {
		s.Rounds = state.Rounds
	}
	if chat {
		s.Chat = state.Chat
	}
	return s
}
