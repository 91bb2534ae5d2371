// Command staticweb is the thin CLI front end: it is not part of the core
// pipeline, it just wires a net/http fetcher and argument parsing around
// engine.Shell.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dpotapov/staticweb/engine"
	"github.com/dpotapov/staticweb/enginecfg"
	"github.com/dpotapov/staticweb/resource"
)

const version = "staticweb 0.1.0"

const usage = `usage: staticweb <url> [output.ppm] [width] [height] [--size=WIDTHxHEIGHT] [--config=FILE]

  -h, --help       print this message and exit
  -V, --version    print the version and exit
  --config=FILE    optional YAML sidecar (default_width/default_height/retry.max_attempts)

Defaults: output.ppm, viewport 1280x720.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// defaultWidth/defaultHeight are the built-in viewport used when neither an
// explicit --size/positional argument nor a --config sidecar supplies one.
const (
	defaultWidth  = 1280
	defaultHeight = 720
)

func run(args []string, stdout, stderr *os.File) int {
	url, outputPath, width, height, configPath, ok := parseArgs(args, stdout, stderr)
	if !ok {
		return exitCodeFor(args)
	}
	if url == "" {
		return 0
	}

	if configPath != "" {
		cfg, err := enginecfg.Load(configPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		width, height = cfg.ApplyDefaults(width, height)
	}
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	shell := &engine.Shell{Fetcher: httpFetcher{}}
	result := shell.Navigate(
		engine.NavigationInput{URL: url, Width: width, Height: height},
		engine.NavigationOptions{OutputPath: outputPath},
	)
	if !result.OK {
		fmt.Fprintln(stderr, result.Message)
		return 1
	}
	fmt.Fprintln(stdout, result.Message)
	return 0
}

// exitCodeFor handles the two early-exit cases (-h/--help, -V/--version)
// that parseArgs already printed output for: both succeed with code 0.
func exitCodeFor(args []string) int {
	for _, a := range args {
		if a == "-h" || a == "--help" || a == "-V" || a == "--version" {
			return 0
		}
	}
	return 1
}

// parseArgs parses argv, printing help/version/usage as needed. The bool
// return is false only on a parse failure; help and version return
// ok == true with url == "" (exit 0, nothing to render). width/height
// are left at 0 ("unset") unless --size or the positional args supply them,
// so the caller can layer --config's defaults, then the built-in default,
// on top.
func parseArgs(args []string, stdout, stderr *os.File) (url, outputPath string, width, height int, configPath string, ok bool) {
	outputPath = "output.ppm"

	var positional []string
	for _, a := range args {
		switch {
		case a == "-h" || a == "--help":
			fmt.Fprint(stdout, usage)
			return "", "", 0, 0, "", true
		case a == "-V" || a == "--version":
			fmt.Fprintln(stdout, version)
			return "", "", 0, 0, "", true
		case strings.HasPrefix(a, "--size="):
			w, h, perr := parseSize(strings.TrimPrefix(a, "--size="))
			if perr != nil {
				fmt.Fprint(stderr, usage)
				return "", "", 0, 0, "", false
			}
			width, height = w, h
		case strings.HasPrefix(a, "--config="):
			configPath = strings.TrimPrefix(a, "--config=")
		case strings.HasPrefix(a, "-"):
			fmt.Fprint(stderr, usage)
			return "", "", 0, 0, "", false
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) == 0 {
		fmt.Fprint(stderr, usage)
		return "", "", 0, 0, "", false
	}
	url = positional[0]
	if len(positional) > 1 {
		outputPath = positional[1]
	}
	if len(positional) > 2 {
		w, err := strconv.Atoi(positional[2])
		if err != nil || w <= 0 {
			fmt.Fprint(stderr, usage)
			return "", "", 0, 0, "", false
		}
		width = w
	}
	if len(positional) > 3 {
		h, err := strconv.Atoi(positional[3])
		if err != nil || h <= 0 {
			fmt.Fprint(stderr, usage)
			return "", "", 0, 0, "", false
		}
		height = h
	}
	return url, outputPath, width, height, configPath, true
}

func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid --size %q", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid width in --size %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid height in --size %q", s)
	}
	return w, h, nil
}

// httpFetcher is the one concrete, network-touching Fetcher
// implementation: the core pipeline only ever depends on resource.Fetcher,
// never net/http directly.
type httpFetcher struct{}

func (httpFetcher) Fetch(url string) (resource.FetchResponse, error) {
	started := time.Now()
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		timedOut := false
		if ue, ok := err.(interface{ Timeout() bool }); ok {
			timedOut = ue.Timeout()
		}
		return resource.FetchResponse{Error: err.Error(), TotalDurationSeconds: elapsed, TimedOut: timedOut}, nil
	}
	defer resp.Body.Close()

	body := make([]byte, 0, 4096)
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		body = append(body, buf[:n]...)
		if rerr != nil {
			break
		}
	}

	return resource.FetchResponse{
		StatusCode:           resp.StatusCode,
		Reason:               resp.Status,
		Body:                 string(body),
		FinalURL:             resp.Request.URL.String(),
		TotalDurationSeconds: elapsed,
	}, nil
}
