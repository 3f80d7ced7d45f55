package config

const (
	defaultWatchDir            = "~/vlog/inbox"
	defaultDataDir             = "~/.local/share/vlog"
	defaultLogDir              = "~/.local/share/vlog/logs"
	defaultAPIBind             = "127.0.0.1:7473"
	defaultBatchSize           = 5
	defaultBatchTimeout        = 60
	defaultSettleDelay         = 2
	defaultShutdownWait        = 30
	defaultDescribeBaseURL     = "http://127.0.0.1:5555"
	defaultDescribeModel       = "mlx-community/Qwen3-VL-8B-Instruct-4bit"
	defaultSamplingFPS         = 1.0
	defaultMaxPixels           = 224 * 224
	defaultMaxTokens           = 10000
	defaultTemperature         = 0.7
	defaultDescribeTimeout     = 600
	defaultWhisperBinary       = "mlx_whisper"
	defaultWhisperModel        = "mlx-community/whisper-large-v3-turbo"
	defaultTranscribeTimeout   = 600
	defaultTranscriptionOn     = true
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

func defaultExtensions() []string {
	return []string{"mp4", "mov", "avi", "mkv"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Ingest: Ingest{
			BatchSize:    defaultBatchSize,
			BatchTimeout: defaultBatchTimeout,
			SettleDelay:  defaultSettleDelay,
			ShutdownWait: defaultShutdownWait,
			Extensions:   defaultExtensions(),
		},
		Describe: Describe{
			BaseURL:        defaultDescribeBaseURL,
			Model:          defaultDescribeModel,
			SamplingFPS:    defaultSamplingFPS,
			MaxPixels:      defaultMaxPixels,
			MaxTokens:      defaultMaxTokens,
			Temperature:    defaultTemperature,
			TimeoutSeconds: defaultDescribeTimeout,
		},
		Transcription: Transcription{
			Enabled:        defaultTranscriptionOn,
			Binary:         defaultWhisperBinary,
			Model:          defaultWhisperModel,
			TimeoutSeconds: defaultTranscribeTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
