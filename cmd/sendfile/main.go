// Command sendfile emails a spreadsheet artifact on demand. With no
// argument it discovers xlsx files near the working directory and asks
// which one to send. Exits 0 only when a message was actually sent.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"coingecko_export/internal/artifacts"
	"coingecko_export/internal/notify"
)

func main() {
	godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	to := flag.String("to", "", "recipient address (overrides RECIPIENT_EMAIL)")
	subject := flag.String("subject", "", "subject line (default: generated from the file)")
	body := flag.String("body", "", "message body (default: generated from the file)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [file.xlsx]\n\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(os.Stderr, "Without a file argument, nearby xlsx files are listed for selection.")
		flag.PrintDefaults()
	}
	flag.Parse()

	path := flag.Arg(0)
	if path == "" {
		path = pickCandidate()
	}

	info, err := os.Stat(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("File not found")
		os.Exit(1)
	}

	cfg := notify.Config{
		SMTPHost: envOr("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		From:     os.Getenv("SENDER_EMAIL"),
		To:       os.Getenv("RECIPIENT_EMAIL"),
	}
	if *to != "" {
		cfg.To = *to
	}

	now := time.Now()
	name := filepath.Base(path)
	subj := *subject
	if subj == "" {
		subj = notify.FileSubject(name, now)
	}
	text := *body
	if text == "" {
		text = notify.FileBody(name, float64(info.Size())/(1024*1024), now)
	}

	status, err := notify.NewSender(cfg).SendArtifact(path, subj, text)
	if err != nil {
		log.Error().Err(err).Msg("Send failed")
	}
	if status != notify.StatusSent {
		os.Exit(1)
	}
}

// pickCandidate discovers nearby workbooks and asks the user to choose.
// Exits nonzero when nothing is found or the user declines.
func pickCandidate() string {
	candidates := artifacts.ListCandidates(artifacts.DefaultSearchDirs())
	if len(candidates) == 0 {
		log.Error().Strs("dirs", artifacts.DefaultSearchDirs()).Msg("No xlsx files found")
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	if len(candidates) == 1 {
		c := candidates[0]
		fmt.Printf("Send %s (%.2f MB, modified %s)? [Y/n]: ",
			c.Path, c.SizeMB(), c.ModTime.Format("02 Jan 2006 15:04"))
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "" && answer != "y" && answer != "yes" {
			fmt.Println("Cancelled.")
			os.Exit(1)
		}
		return c.Path
	}

	fmt.Println("Found xlsx files:")
	for i, c := range candidates {
		fmt.Printf("  %d) %s (%.2f MB, modified %s)\n",
			i+1, c.Path, c.SizeMB(), c.ModTime.Format("02 Jan 2006 15:04"))
	}
	fmt.Printf("Select a file to send [1-%d, q to quit]: ", len(candidates))

	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, "q") {
		fmt.Println("Cancelled.")
		os.Exit(1)
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(candidates) {
		fmt.Println("Invalid selection.")
		os.Exit(1)
	}
	return candidates[n-1].Path
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
