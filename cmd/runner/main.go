// runner drives the full analysis pipeline for one TikTok video.
//
//	runner <video_url>   full pipeline from URL (metadata via Apify)
//	runner <video_id>    legacy mode over pre-populated analyzer outputs
//
// Progress markers go to stdout; informational logs go to stderr so that
// downstream consumers parsing the final JSON line are not disturbed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tumilabs/rumiai/adapters"
	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/markers"
	"github.com/tumilabs/rumiai/persistence"
	"github.com/tumilabs/rumiai/pipeline"
	"github.com/tumilabs/rumiai/prompts"
	"github.com/tumilabs/rumiai/providers"
	"github.com/tumilabs/rumiai/providers/claude"
	"github.com/tumilabs/rumiai/providers/mock"
	"github.com/tumilabs/rumiai/scraper"
	"github.com/tumilabs/rumiai/timeline"
	"github.com/tumilabs/rumiai/timestamp"
	"github.com/tumilabs/rumiai/types"
	"github.com/tumilabs/rumiai/version"
)

// Exit codes.
const (
	exitOK          = 0
	exitGeneric     = 1
	exitInvalidArgs = 2
	exitExternalAPI = 3
	exitMLPipeline  = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "rumiai.yaml", "optional YAML settings override file")
		outputDir   = flag.String("output-dir", "", "root directory for pipeline outputs (defaults to settings)")
		logFile     = flag.String("log-file", "", "additional JSON log file")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
		dryRun      = flag.Bool("dry-run", false, "use the deterministic mock provider instead of Claude")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersionInfo())
		return exitOK
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: runner <video_url|video_id>")
		return exitInvalidArgs
	}
	target := flag.Arg(0)

	settings := config.FromEnv()
	if err := settings.LoadOverrides(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidArgs
	}
	if *outputDir != "" {
		settings.OutputDir = *outputDir
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitInvalidArgs
	}

	level := logger.LevelFromEnv()
	if *verbose {
		level = slog.LevelDebug
	}
	closer, err := logger.Setup(logger.Options{Level: level, FilePath: *logFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitGeneric
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := persistence.NewStore(settings.OutputDir)

	// Resolve metadata: URL mode scrapes it, legacy mode loads it from the
	// analyzer output layout.
	progress("resolving video metadata", 5)
	meta, code := resolveMetadata(ctx, settings, store, target)
	if code != exitOK {
		return code
	}
	if err := meta.Validate(); err != nil {
		failure("metadata validation", err)
		return exitGeneric
	}
	if meta.DurationSeconds > settings.MaxVideoDuration {
		failure("metadata validation", fmt.Errorf("duration %.1fs exceeds MAX_VIDEO_DURATION %.1fs",
			meta.DurationSeconds, settings.MaxVideoDuration))
		return exitInvalidArgs
	}
	success(fmt.Sprintf("metadata resolved for %s (%.1fs)", meta.VideoID, meta.DurationSeconds))

	if meta.OriginalFPS > 0 {
		if err := timestamp.DefaultRegistry.Register(meta.VideoID, timestamp.FPSContext{
			Original:    meta.OriginalFPS,
			Extraction:  timestamp.DefaultExtractionFPS,
			Aggregation: 1,
		}); err != nil {
			logger.Warn("FPS registration failed", "video_id", meta.VideoID, "error", err)
		}
	}

	// Join the five analyzer outputs. Runs may have been parallel upstream;
	// here the completed outputs are loaded and adapted concurrently.
	progress("adapting analyzer outputs", 25)
	results := loadAnalyzerResults(ctx, store, meta)
	if allFailed(results) {
		failure("ML analysis", errors.New("no analyzer output could be adapted"))
		return exitMLPipeline
	}
	if settings.StrictMode {
		for model, r := range results {
			if !r.Success {
				failure("ML analysis", fmt.Errorf("%s: %s (strict mode)", model, r.Error))
				return exitMLPipeline
			}
		}
	}
	success("analyzer outputs adapted")

	progress("assembling unified timeline", 45)
	ua, err := timeline.Assemble(meta, results)
	if err != nil {
		failure("timeline assembly", err)
		return exitGeneric
	}
	success(fmt.Sprintf("timeline assembled (%d entries)", ua.Timeline.Len()))

	progress("extracting temporal markers", 55)
	ua.TemporalMarkers = markers.Extract(ua)
	if _, err := store.WriteTemporalMarkers(ua.TemporalMarkers); err != nil {
		logger.Error("failed to persist temporal markers", "video_id", ua.VideoID, "error", err)
	}
	if err := store.WriteUnifiedAnalysis(ua); err != nil {
		failure("persistence", err)
		return exitGeneric
	}
	success("unified analysis persisted")

	provider, code := buildProvider(settings, *dryRun)
	if code != exitOK {
		return code
	}
	defer provider.Close()

	registry, err := prompts.NewRegistry()
	if err != nil {
		failure("prompt registry", err)
		return exitGeneric
	}

	progress("running LLM analyses", 65)
	orchestrator := pipeline.New(settings, provider, store, registry)
	report, err := orchestrator.Run(ctx, ua)
	if err != nil {
		failure("LLM analyses", err)
		return exitExternalAPI
	}
	if report.Success {
		success("all analyses complete")
	} else {
		logger.Warn("pipeline finished with failures", "video_id", ua.VideoID)
	}

	progress("finalizing", 100)

	// The final stdout line is the machine-readable summary.
	summary, err := json.Marshal(report)
	if err != nil {
		failure("summary serialization", err)
		return exitGeneric
	}
	fmt.Println(string(summary))

	if !report.Success {
		return exitExternalAPI
	}
	return exitOK
}

// resolveMetadata distinguishes URL mode from legacy video-id mode.
func resolveMetadata(ctx context.Context, settings config.Settings, store *persistence.Store, target string) (types.VideoMetadata, int) {
	if strings.Contains(target, "://") {
		client := scraper.NewClient("", settings.ApifyAPIToken)
		meta, err := client.FetchMetadata(ctx, target)
		if err != nil {
			failure("video scraping", err)
			return types.VideoMetadata{}, exitExternalAPI
		}
		return meta, exitOK
	}

	meta, err := store.ReadVideoMetadata(target)
	if err != nil {
		failure("metadata load", fmt.Errorf("no metadata for video id %s: %w", target, err))
		return types.VideoMetadata{}, exitInvalidArgs
	}
	return meta, exitOK
}

// loadAnalyzerResults loads and adapts the five analyzer outputs
// concurrently. Missing or malformed outputs become failed results; the
// pipeline degrades rather than aborts.
func loadAnalyzerResults(ctx context.Context, store *persistence.Store, meta types.VideoMetadata) map[string]types.MLAnalysisResult {
	fps := meta.OriginalFPS
	if fps <= 0 {
		fps = timestamp.DefaultRegistry.Lookup(meta.VideoID).Original
	}

	adapt := map[string]func([]byte) types.MLAnalysisResult{
		types.ModelObjectTracking: func(raw []byte) types.MLAnalysisResult { return adapters.AdaptObjectTracker(raw, fps) },
		types.ModelSpeech:         adapters.AdaptSpeech,
		types.ModelHuman:          func(raw []byte) types.MLAnalysisResult { return adapters.AdaptHuman(raw, fps) },
		types.ModelOCR:            func(raw []byte) types.MLAnalysisResult { return adapters.AdaptOCR(raw, fps) },
		types.ModelSceneDetection: func(raw []byte) types.MLAnalysisResult { return adapters.AdaptScene(raw, fps) },
	}

	results := make(map[string]types.MLAnalysisResult, len(adapt))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	for model, fn := range adapt {
		model, fn := model, fn
		g.Go(func() error {
			raw, err := store.ReadAnalyzerOutput(meta.VideoID, model)
			var result types.MLAnalysisResult
			if err != nil {
				result = types.FailedResult(model, "output not found: "+err.Error())
			} else {
				result = fn(raw)
			}
			mu.Lock()
			results[model] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func allFailed(results map[string]types.MLAnalysisResult) bool {
	for _, r := range results {
		if r.Success {
			return false
		}
	}
	return true
}

func buildProvider(settings config.Settings, dryRun bool) (providers.Provider, int) {
	if dryRun {
		return mock.NewProvider(), exitOK
	}
	if settings.ClaudeAPIKey == "" {
		failure("provider setup", errors.New("CLAUDE_API_KEY is not set (use -dry-run for the mock provider)"))
		return nil, exitExternalAPI
	}
	return claude.NewProvider("claude", settings.ClaudeModel(), "", settings.ClaudeAPIKey), exitOK
}

// Stdout progress markers; the formats are part of the CLI contract.

func progress(step string, pct int) {
	fmt.Printf("📊 %s... (%d%%)\n", step, pct)
}

func success(msg string) {
	fmt.Printf("✅ %s\n", msg)
}

func failure(step string, err error) {
	fmt.Printf("❌ %s failed: %s\n", step, err)
	logger.Error(step+" failed", "error", err)
}
