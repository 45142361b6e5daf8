package config

const (
	defaultSaveDir                  = "~/Pictures/shutterpro"
	defaultLogDir                   = "~/.local/share/shutterpro/logs"
	defaultSessionID                = "def"
	defaultObjective                = "Test Target"
	defaultFrameType                = "test"
	defaultTimezone                 = "Local"
	defaultGPIOPin                  = 27
	defaultPulseSeconds             = 1.0
	defaultCompensationSeconds      = 0.35
	defaultSettleSeconds            = 1.0
	defaultBulbSeconds              = 10.0
	defaultRemoteBaseURL            = "http://192.168.50.200"
	defaultPollIntervalSeconds      = 1.0
	defaultListTimeoutSeconds       = 5
	defaultFetchTimeoutSeconds      = 60
	defaultStabilityAttempts        = 25
	defaultStabilityInterval        = 1.0
	defaultMountDevice              = "LX200 OnStep"
	defaultWeatherDevice            = "LX200 OnStep"
	defaultCoordProperty            = "EQUATORIAL_EOD_COORD"
	defaultGeoProperty              = "GEOGRAPHIC_COORD"
	defaultWeatherProperty          = "WEATHER_PARAMETERS"
	defaultTelemetryTimeoutSeconds  = 1
	defaultSolverBinary             = "solve-field"
	defaultSolverWorkDir            = "~/.cache/shutterpro/solver"
	defaultSolverTimeoutSeconds     = 25
	defaultSolverScaleLow           = 1.0
	defaultSolverScaleHigh          = 15.0
	defaultDecodeAttempts           = 5
	defaultDecodeDelaySeconds       = 1.0
	defaultSettleDelaySeconds       = 1.0
	defaultDrainPollSeconds         = 2.0
	defaultDownloadRetryBudget      = 1
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultEquipmentCamera          = "Generic Camera"
	defaultEquipmentPlaceholderName = "N/A"
)

// Default returns a Config populated with repository defaults.
func Default() *Config {
	return &Config{
		Paths: Paths{
			SaveDir: defaultSaveDir,
			LogDir:  defaultLogDir,
		},
		Session: Session{
			ID:        defaultSessionID,
			Objective: defaultObjective,
			FrameType: defaultFrameType,
			Timezone:  defaultTimezone,
		},
		Equipment: Equipment{
			Telescope: defaultEquipmentPlaceholderName,
			Optics:    defaultEquipmentPlaceholderName,
			Filter:    defaultEquipmentPlaceholderName,
			Camera:    defaultEquipmentCamera,
		},
		Trigger: Trigger{
			GPIOPin:             defaultGPIOPin,
			PulseSeconds:        defaultPulseSeconds,
			CompensationSeconds: defaultCompensationSeconds,
			SettleSeconds:       defaultSettleSeconds,
			DefaultBulbSeconds:  defaultBulbSeconds,
		},
		Remote: Remote{
			BaseURL:                  defaultRemoteBaseURL,
			Extensions:               []string{".dng", ".jpg"},
			PollIntervalSeconds:      defaultPollIntervalSeconds,
			ListTimeoutSeconds:       defaultListTimeoutSeconds,
			FetchTimeoutSeconds:      defaultFetchTimeoutSeconds,
			StabilityAttempts:        defaultStabilityAttempts,
			StabilityIntervalSeconds: defaultStabilityInterval,
		},
		Telemetry: Telemetry{
			MountDevice:     defaultMountDevice,
			WeatherDevice:   defaultWeatherDevice,
			CoordProperty:   defaultCoordProperty,
			GeoProperty:     defaultGeoProperty,
			WeatherProperty: defaultWeatherProperty,
			TimeoutSeconds:  defaultTelemetryTimeoutSeconds,
		},
		Solver: Solver{
			Binary:         defaultSolverBinary,
			WorkDir:        defaultSolverWorkDir,
			TimeoutSeconds: defaultSolverTimeoutSeconds,
			ScaleLow:       defaultSolverScaleLow,
			ScaleHigh:      defaultSolverScaleHigh,
		},
		Workflow: Workflow{
			DecodeAttempts:      defaultDecodeAttempts,
			DecodeDelaySeconds:  defaultDecodeDelaySeconds,
			SettleDelaySeconds:  defaultSettleDelaySeconds,
			DrainPollSeconds:    defaultDrainPollSeconds,
			DownloadRetryBudget: defaultDownloadRetryBudget,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
