// Package commanddoc is the dictionary behind `actcli help <command>`.
package commanddoc

import (
	"sort"
	"strings"
)

type Doc struct {
	Path     string   `json:"path"`
	Category string   `json:"category"`
	Summary  string   `json:"summary"`
	Usage    []string `json:"usage,omitempty"`
	Examples []string `json:"examples,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

func NormalizePath(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(s)), " "))
}

// Dictionary returns every entry sorted by category, then path.
func Dictionary() []Doc {
	out := append([]Doc(nil), docs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category == out[j].Category {
			return out[i].Path < out[j].Path
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func Lookup(path string) (Doc, bool) {
	path = NormalizePath(path)
	for _, d := range docs {
		if NormalizePath(d.Path) == path {
			return d, true
		}
	}
	return Doc{}, false
}

// Search ranks entries by how closely path, then summary, then category
// match query.
func Search(query string, limit int) []Doc {
	query = NormalizePath(query)
	if limit <= 0 {
		limit = 5
	}

	type match struct {
		doc   Doc
		score int
	}
	matches := make([]match, 0, len(docs))
	for _, d := range docs {
		score := 0
		docPath := NormalizePath(d.Path)
		switch {
		case query == "":
			score = 1
		case docPath == query:
			score = 100
		case strings.HasPrefix(docPath, query):
			score = 80
		case strings.Contains(docPath, query):
			score = 60
		case strings.Contains(NormalizePath(d.Summary), query):
			score = 40
		case strings.Contains(NormalizePath(d.Category), query):
			score = 20
		}
		if score > 0 {
			matches = append(matches, match{doc: d, score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].doc.Path < matches[j].doc.Path
		}
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Doc, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.doc)
	}
	return out
}

var docs = []Doc{
	{
		Path:     "help",
		Category: "meta",
		Summary:  "Show usage, or explain one command",
		Usage:    []string{"actcli help", "actcli help <command path>"},
		Examples: []string{"actcli help", `actcli help "trust allow-here"`},
	},
	{
		Path:     "version",
		Category: "meta",
		Summary:  "Print the actcli version",
		Usage:    []string{"actcli version"},
	},
	{
		Path:     "init",
		Category: "workspace",
		Summary:  "Write a commented actcli.yaml and the output folder",
		Usage:    []string{"actcli init [--workspace DIR] [--name NAME] [--ollama-host URL] [--force]"},
		Examples: []string{"actcli init", "actcli init --ollama-host http://127.0.0.1:11435"},
		Notes:    []string{"An existing actcli.yaml is kept unless --force is given."},
	},
	{
		Path:     "validate",
		Category: "workspace",
		Summary:  "Check actcli.yaml for errors and warnings",
		Usage:    []string{"actcli validate [--workspace DIR]"},
	},
	{
		Path:     "doctor",
		Category: "workspace",
		Summary:  "Report Go runtime, terminal, Ollama, credentials and folder trust",
		Usage:    []string{"actcli doctor [--workspace DIR] [--ollama-host URL]"},
	},
	{
		Path:     "chat",
		Category: "roundtable",
		Summary:  "Ask every attending model, let them critique each other, and synthesize",
		Usage: []string{
			`actcli chat [--multi a,b,c] [--rounds 1-3] [--timeout-ms N] [--seed N] [--system TEXT] "<prompt>"`,
			"actcli chat ... [--save FILE.md] [--audit FILE.json] [--presenter-state FILE.json] [--no-history]",
		},
		Examples: []string{
			`actcli chat "Compare two reserving strategies"`,
			`actcli chat --multi echo,llama3 --rounds 3 --save out/seminar.md "Is this migration safe?"`,
		},
		Notes: []string{
			"Round 1 answers the prompt; later rounds critique peers' previous answers.",
			"Cloud models take part only when the folder is trusted with --cloud-share and mode is hybrid.",
			"Output files must match the folder's write globs (default ./out/**).",
		},
	},
	{
		Path:     "chat --repl",
		Category: "roundtable",
		Summary:  "Interactive roundtable with slash commands",
		Usage:    []string{"actcli chat --repl [--multi a,b,c] [--rounds 1-3]"},
		Notes: []string{
			"/models add <id>, /models remove <id>, /rounds <n>, /ollama <url>, /quit.",
			"Falls back to a line prompt when stdout is not a terminal.",
		},
	},
	{
		Path:     "history list",
		Category: "roundtable",
		Summary:  "List recorded sessions, newest first",
		Usage:    []string{"actcli history list [--workspace DIR] [--limit N]"},
	},
	{
		Path:     "history show",
		Category: "roundtable",
		Summary:  "Render a recorded session as markdown",
		Usage:    []string{"actcli history show [--raw] <id|prefix>"},
	},
	{
		Path:     "history rm",
		Category: "roundtable",
		Summary:  "Delete a recorded session",
		Usage:    []string{"actcli history rm <id|prefix>"},
	},
	{
		Path:     "presenter",
		Category: "roundtable",
		Summary:  "Serve a live page of the latest session on 127.0.0.1",
		Usage:    []string{"actcli presenter [--workspace DIR] [--port N]"},
		Notes:    []string{"Chat sessions in the workspace refresh the page through server-sent events."},
	},
	{
		Path:     "trust status",
		Category: "policy",
		Summary:  "Show the folder's trust scope, read/write globs and cloud sharing",
		Usage:    []string{"actcli trust status [--workspace DIR]"},
	},
	{
		Path:     "trust allow-here",
		Category: "policy",
		Summary:  "Trust this folder until revoked",
		Usage:    []string{"actcli trust allow-here [--cloud-share] [--read globs] [--write globs]"},
		Examples: []string{"actcli trust allow-here --cloud-share", `actcli trust allow-here --write "./reports/**"`},
	},
	{
		Path:     "trust allow-once",
		Category: "policy",
		Summary:  "Trust this folder for the next chat command only",
		Usage:    []string{"actcli trust allow-once [--cloud-share] [--read globs] [--write globs]"},
	},
	{
		Path:     "trust revoke",
		Category: "policy",
		Summary:  "Forget the folder's trust record",
		Usage:    []string{"actcli trust revoke [--workspace DIR]"},
	},
	{
		Path:     "auth status",
		Category: "providers",
		Summary:  "Show how each cloud provider is authenticated",
		Usage:    []string{"actcli auth status"},
	},
	{
		Path:     "auth login",
		Category: "providers",
		Summary:  "Record a provider login",
		Usage:    []string{"actcli auth login [--method api-key|device|pkce] <provider>"},
		Notes:    []string{"api-key requires the provider's key variable to be exported."},
	},
	{
		Path:     "auth logout",
		Category: "providers",
		Summary:  "Forget a provider login",
		Usage:    []string{"actcli auth logout <provider>"},
	},
	{
		Path:     "models list",
		Category: "providers",
		Summary:  "List models installed on the Ollama host",
		Usage:    []string{"actcli models list [--ollama-host URL]"},
	},
	{
		Path:     "models pull",
		Category: "providers",
		Summary:  "Pull models onto the Ollama host with progress",
		Usage:    []string{"actcli models pull [--ollama-host URL] [--models a,b] [--all]"},
	},
	{
		Path:     "models add",
		Category: "providers",
		Summary:  "Declare a model in actcli.yaml",
		Usage:    []string{"actcli models add --type TYPE [--model M] [--base-url URL] [--local true|false] [--attend] <id>"},
		Examples: []string{
			"actcli models add --type ollama --model codellama:34b --attend coder",
			"actcli models add --type grpc --base-url 10.0.0.5:7070 --local true --attend lab",
		},
	},
	{
		Path:     "backend serve",
		Category: "providers",
		Summary:  "Expose one model over gRPC so another machine can invite it",
		Usage:    []string{"actcli backend serve [--addr HOST:PORT] <model-id>"},
		Notes:    []string{"Cloud models are served only from folders trusted with --cloud-share."},
	},
}
