package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/tidesound/soundprint/internal/acquire"
	"github.com/tidesound/soundprint/internal/model"
	"github.com/tidesound/soundprint/pkg/logging"
	"github.com/tidesound/soundprint/pkg/soundprint"
)

func main() {
	log := logging.Default()
	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("executing command: %s", command)

	switch command {
	case "add":
		handleAdd()
	case "add-dir":
		handleAddDir()
	case "match":
		handleMatch()
	case "list":
		handleList()
	default:
		fmt.Printf("unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println(`
 ____                      _ ____       _       _
/ ___|  ___  _   _ _ __   __| |  _ \ _ __(_)_ __ | |_
\___ \ / _ \| | | | '_ \ / _` + "`" + ` | |_) | '__| | '_ \| __|
 ___) | (_) | |_| | | | | (_| |  __/| |  | | | | | |_
|____/ \___/ \__,_|_| |_|\__,_|_|   |_|  |_|_| |_|\__|

          anchor/target constellation fingerprinting
`)
}

func newService() soundprint.Service {
	dbPath := os.Getenv("SOUNDPRINT_DB_PATH")
	if dbPath == "" {
		dbPath = "soundprint.sqlite3"
	}

	svc, err := soundprint.New(soundprint.WithDBPath(dbPath))
	if err != nil {
		fmt.Printf("failed to create service: %v\n", err)
		os.Exit(1)
	}
	return svc
}

func handleAdd() {
	args := os.Args[2:]
	var audioPath string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && audioPath == "" {
			audioPath = arg
		} else {
			flagArgs = args[i:]
			break
		}
	}

	fs := pflag.NewFlagSet("add", pflag.ExitOnError)
	title := fs.String("title", "", "track title (required)")
	artist := fs.String("artist", "", "artist name (required)")
	source := fs.String("source", "", "source locator, e.g. a file path or URL (optional)")
	fs.Parse(flagArgs)

	if audioPath == "" {
		fmt.Println("error: audio file path required")
		fmt.Println("usage: soundprint add <audio_file> --title <title> --artist <artist>")
		os.Exit(1)
	}
	if *title == "" || *artist == "" {
		fmt.Println("error: --title and --artist are required")
		os.Exit(1)
	}

	svc := newService()
	defer svc.Close()

	id, err := addOneFile(svc, audioPath, *title, *artist, *source)
	if err != nil {
		fmt.Printf("failed to add track: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("added track %d: %q by %q\n", id, *title, *artist)
}

func addOneFile(svc soundprint.Service, audioPath, title, artist, source string) (uint32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	wavPath, err := acquire.ConvertToWAV(ctx, audioPath, os.TempDir())
	if err != nil {
		return 0, err
	}
	defer os.Remove(wavPath)

	attrs := model.TrackAttributes{Title: title, Artist: artist, SourceLocator: source}
	return svc.AddTrack(ctx, wavPath, attrs)
}

// handleAddDir batch-ingests every audio file in a directory, deriving
// title/artist from the filename ("Artist - Title", else the bare name
// with "Unknown Artist"); container tags are not read.
func handleAddDir() {
	if len(os.Args) < 3 {
		fmt.Println("usage: soundprint add-dir <directory>")
		os.Exit(1)
	}
	dir := os.Args[2]

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("failed to read directory: %v\n", err)
		os.Exit(1)
	}

	svc := newService()
	defer svc.Close()

	exts := map[string]bool{".mp3": true, ".wav": true, ".m4a": true, ".flac": true}
	added, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !exts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		title, artist := name, "Unknown Artist"
		if parts := strings.SplitN(name, " - ", 2); len(parts) == 2 {
			artist, title = parts[0], parts[1]
		}

		fmt.Printf("processing: %s\n", entry.Name())
		id, err := addOneFile(svc, path, title, artist, path)
		if err != nil {
			fmt.Printf("  skipped (%v)\n", err)
			skipped++
			continue
		}
		fmt.Printf("  added as track %d\n", id)
		added++
	}

	fmt.Printf("\nbatch complete: %d added, %d skipped\n", added, skipped)
}

func handleMatch() {
	if len(os.Args) < 3 {
		fmt.Println("usage: soundprint match <audio_file>")
		os.Exit(1)
	}
	audioPath := os.Args[2]

	svc := newService()
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	wavPath, err := acquire.ConvertToWAV(ctx, audioPath, os.TempDir())
	if err != nil {
		fmt.Printf("failed to process audio: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(wavPath)

	result, ok, err := svc.MatchClip(ctx, wavPath)
	if err != nil {
		fmt.Printf("match failed: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Println("no confident match found")
		return
	}

	fmt.Printf("matched: %q by %q\n", result.Track.Attributes.Title, result.Track.Attributes.Artist)
	fmt.Printf("  track id: %d, score: %d, offset: %dms\n", result.Track.ID, result.Score, result.AnchorOffset)
}

func handleList() {
	svc := newService()
	defer svc.Close()

	tracks, err := svc.ListTracks()
	if err != nil {
		fmt.Printf("failed to list tracks: %v\n", err)
		os.Exit(1)
	}
	if len(tracks) == 0 {
		fmt.Println("no tracks in catalog")
		return
	}

	fmt.Printf("%d track(s):\n\n", len(tracks))
	for _, t := range tracks {
		fmt.Printf("%s. %q by %q\n", strconv.FormatUint(uint64(t.ID), 10), t.Attributes.Title, t.Attributes.Artist)
	}
}

func printUsage() {
	fmt.Println("soundprint - audio fingerprinting CLI")
	fmt.Println("\nusage:")
	fmt.Println("  soundprint add <audio_file> --title <title> --artist <artist>")
	fmt.Println("  soundprint add-dir <directory>")
	fmt.Println("  soundprint match <audio_file>")
	fmt.Println("  soundprint list")
}
