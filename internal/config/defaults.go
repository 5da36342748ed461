package config

const (
	defaultConfigPath            = "~/.config/mkvkeep/config.toml"
	defaultStateDir              = "~/.local/share/mkvkeep"
	defaultLogDir                = "~/.local/share/mkvkeep/logs"
	defaultOutputSubdir          = "processed"
	defaultOutputPrefix          = "processed_"
	defaultMkvmergeBinary        = "mkvmerge"
	defaultToolTimeoutSeconds    = 4 * 60 * 60
	defaultMinProcesses          = 2
	defaultMaxProcesses          = 8
	defaultMemoryBufferFraction  = 0.2
	defaultMemoryPerJobMiB       = 500
	defaultCPUSampleMillis       = 1000
	defaultSpaceFactor           = 1.5
	defaultStateFileJSON         = "processing_state.json"
	defaultStateFileSQLite       = "processing_state.db"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyRequestTimeout  = 10
	defaultOutputExtension       = ".mkv"
	defaultAudioSourceLanguage2  = "ja"
	defaultAudioSourceLanguage3  = "jpn"
	defaultSubtitleTargetLang2   = "fr"
	defaultSubtitleTargetLang3   = "fre"
	StateBackendJSON             = "json"
	StateBackendSQLite           = "sqlite"
	mkvmergeBinaryEnv            = "MKVMERGE_PATH"
	ntfyTopicEnv                 = "MKVKEEP_NTFY_TOPIC"
	maxReasonableProcessesCutoff = 256
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
			OutputSubdir: defaultOutputSubdir,
			OutputPrefix: defaultOutputPrefix,
			Extensions:   []string{defaultOutputExtension},
		},
		Mkvmerge: Mkvmerge{
			Binary:         defaultMkvmergeBinary,
			TimeoutSeconds: defaultToolTimeoutSeconds,
		},
		Languages: Languages{
			AudioSource:    []string{defaultAudioSourceLanguage3, defaultAudioSourceLanguage2},
			SubtitleTarget: []string{defaultSubtitleTargetLang3, defaultSubtitleTargetLang2},
		},
		Resources: Resources{
			MinProcesses:         defaultMinProcesses,
			MaxProcesses:         defaultMaxProcesses,
			MemoryBufferFraction: defaultMemoryBufferFraction,
			MemoryPerJobMiB:      defaultMemoryPerJobMiB,
			CPUSampleMillis:      defaultCPUSampleMillis,
			SpaceFactor:          defaultSpaceFactor,
		},
		State: State{
			Backend: StateBackendJSON,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
