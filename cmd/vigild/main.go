// Command vigild runs the anti-cheat telemetry gateway: a WebSocket listener
// in front of the vigil protocol engine, configured entirely from the
// environment.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vigil-ac/vigil"
	promexport "github.com/vigil-ac/vigil/metrics/export/prometheus"
	"github.com/vigil-ac/vigil/wsgateway"
)

func main() {
	listen := flag.String("listen", envOr("VIGIL_LISTEN", ":8080"), "listen address")
	path := flag.String("path", envOr("VIGIL_PATH", "/telemetry"), "websocket path")
	metricsPath := flag.String("metrics", envOr("VIGIL_METRICS_PATH", "/metrics"), "Prometheus metrics path, empty to disable")
	keysFile := flag.String("keys", os.Getenv("VIGIL_KEYS_FILE"), "JSON file of version->key entries")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := vigil.ConfigFromEnv()
	if err != nil {
		logger.Fatal("configuration invalid", zap.Error(err))
	}
	if *metricsPath != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.EnableLatencyHistograms = true
	}

	var staticKeys []vigil.KeySpec
	if *keysFile != "" {
		staticKeys, err = loadKeys(*keysFile)
		if err != nil {
			logger.Fatal("keys file invalid",
				zap.String("path", *keysFile), zap.Error(err))
		}
	}

	builder := vigil.New().
		WithConfig(cfg).
		WithStaticKeys(staticKeys).
		WithLogger(logger).
		WithAuditSink(vigil.NewJSONWriterSink(os.Stdout))

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Bans.Enabled = true
		builder = builder.
			WithConfig(cfg).
			WithRedis(redis.NewClient(&redis.Options{Addr: addr}))
	}

	engine, err := builder.Build()
	if err != nil {
		logger.Fatal("engine build failed", zap.Error(err))
	}
	defer engine.Close()

	gateway := wsgateway.New(engine, logger, int64(cfg.Telemetry.MaxMessageBytes))

	mux := http.NewServeMux()
	mux.Handle(*path, gateway)
	if *metricsPath != "" {
		mux.Handle(*metricsPath, promexport.NewPrometheusExporter(engine).Handler())
	}

	logger.Info("vigild listening",
		zap.String("addr", *listen), zap.String("path", *path))
	if err := http.ListenAndServe(*listen, mux); err != nil {
		logger.Fatal("listener failed", zap.Error(err))
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// loadKeys reads a JSON object of version->encoded-key pairs, walking the
// object token by token so the keyring's trial order matches the file's
// document order.
func loadKeys(path string) ([]vigil.KeySpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("keys file must be a JSON object of version->key strings")
	}

	var out []vigil.KeySpec
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		version, _ := keyTok.(string)
		var key string
		if err := dec.Decode(&key); err != nil {
			return nil, err
		}
		out = append(out, vigil.KeySpec{Version: version, Key: key})
	}
	return out, nil
}
